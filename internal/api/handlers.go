package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bft-labs/keyframer/internal/adapters/imagedir"
	"github.com/bft-labs/keyframer/internal/app"
	"github.com/bft-labs/keyframer/internal/domain"
	"github.com/bft-labs/keyframer/internal/locator"
	"github.com/bft-labs/keyframer/internal/ports"
)

// maxUploadBytes bounds the multipart form held in memory.
const maxUploadBytes = 32 << 20

// Defaults fills request parameters the client leaves out.
type Defaults struct {
	KeyframesPath   string
	Recursive       bool
	Workers         int
	Method          domain.Method
	Distance        float64
	CroppingPercent int
}

// Handlers serves locate requests against one store directory.
type Handlers struct {
	svc      *app.LocateService
	defaults Defaults
	logger   ports.Logger
}

// NewHandlers creates handlers backed by svc.
func NewHandlers(svc *app.LocateService, defaults Defaults, logger ports.Logger) *Handlers {
	return &Handlers{svc: svc, defaults: defaults, logger: logger}
}

// PingHandler answers liveness checks with "pong".
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("pong"))
}

// LocateHandler answers GET /locate?hash=&method=&distance=.
func (h *Handlers) LocateHandler(w http.ResponseWriter, r *http.Request) {
	req, err := h.request(r.URL.Query().Get)
	if err != nil {
		h.writeError(w, err)
		return
	}
	req.Hash = r.URL.Query().Get("hash")
	if req.Hash == "" {
		h.writeError(w, fmt.Errorf("%w: hash is required", domain.ErrInvalidConfig))
		return
	}

	report, err := h.svc.Locate(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeReport(w, report)
}

// LocateImageHandler answers POST /locate/image with a multipart "image" field.
func (h *Handlers) LocateImageHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err))
		return
	}
	req, err := h.request(r.FormValue)
	if err != nil {
		h.writeError(w, err)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: image field: %v", domain.ErrInvalidConfig, err))
		return
	}
	defer file.Close()

	img, err := imagedir.Decode(file)
	if err != nil {
		h.writeError(w, err)
		return
	}

	report, err := h.svc.LocateImage(r.Context(), img, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeReport(w, report)
}

// request builds a LocateRequest from form or query values over the defaults.
func (h *Handlers) request(get func(string) string) (app.LocateRequest, error) {
	req := app.LocateRequest{
		Method:          h.defaults.Method,
		Distance:        h.defaults.Distance,
		CroppingPercent: h.defaults.CroppingPercent,
		KeyframesPath:   h.defaults.KeyframesPath,
		Recursive:       h.defaults.Recursive,
		Workers:         h.defaults.Workers,
	}
	if v := get("method"); v != "" {
		m, err := domain.ParseMethod(v)
		if err != nil {
			return req, err
		}
		req.Method = m
	}
	if v := get("distance"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, fmt.Errorf("%w: distance: %v", domain.ErrInvalidConfig, err)
		}
		req.Distance = d
	}
	if v := get("cropping"); v != "" {
		c, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("%w: cropping: %v", domain.ErrInvalidConfig, err)
		}
		req.CroppingPercent = c
	}
	return req, nil
}

func (h *Handlers) writeReport(w http.ResponseWriter, report locator.Report) {
	if report.Hits == nil {
		report.Hits = []locator.Hit{}
	}
	writeJSON(w, http.StatusOK, struct {
		Matched bool `json:"matched"`
		locator.Report
	}{Matched: report.Matched(), Report: report})
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("locate request failed", ports.Err(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, domain.ErrUnsupportedMethod),
		errors.Is(err, domain.ErrInvalidHash),
		errors.Is(err, domain.ErrInvalidCropping),
		errors.Is(err, domain.ErrDecode),
		errors.Is(err, domain.ErrEmptyFrame):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
