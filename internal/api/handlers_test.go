package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/keyframer/internal/adapters/fs"
	"github.com/bft-labs/keyframer/internal/adapters/imagedir"
	logadapter "github.com/bft-labs/keyframer/internal/adapters/log"
	"github.com/bft-labs/keyframer/internal/app"
	"github.com/bft-labs/keyframer/internal/domain"
)

type response struct {
	Matched bool `json:"matched"`
	Hits    []struct {
		Path       string  `json:"path"`
		SourceKey  string  `json:"source_key"`
		FrameIndex int     `json:"frame_index"`
		Distance   float64 `json:"distance"`
	} `json:"hits"`
	Scanned int    `json:"scanned"`
	Error   string `json:"error"`
}

func gradient() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 10), B: 40, A: 255})
		}
	}
	return img
}

// newTestRouter stores one video whose only keyframe is the gradient.
func newTestRouter(t *testing.T) (http.Handler, domain.HashValue) {
	t.Helper()
	dir := t.TempDir()
	store := fs.NewStoreFileRepository(dir)

	hash, err := app.HashImage(gradient(), domain.MethodAverage, 33)
	require.NoError(t, err)
	_, err = store.Write(context.Background(), "clip", domain.VideoEntry{
		Method:     domain.MethodAverage,
		Distance:   0,
		Cropping:   33,
		FrameCount: 1,
		Keyframes:  []domain.KeyframeEntry{{Index: 0, Hash: hash}},
	})
	require.NoError(t, err)

	logger := logadapter.NewRecorder()
	svc := app.NewLocateService(store, imagedir.DecodeFile, logger)
	h := NewHandlers(svc, Defaults{
		KeyframesPath:   dir,
		Recursive:       true,
		Workers:         1,
		Method:          domain.MethodAverage,
		CroppingPercent: 33,
	}, logger)
	return NewRouter(h), hash
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestPing(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestLocateHandler(t *testing.T) {
	router, hash := newTestRouter(t)
	flipped := domain.NewBitHash(domain.MethodAverage, ^hash.Bits)

	tests := []struct {
		name        string
		query       string
		wantStatus  int
		wantMatched bool
	}{
		{"exact hash", "?hash=" + hash.String(), http.StatusOK, true},
		{"explicit method and distance", "?method=average&distance=0&hash=" + hash.String(), http.StatusOK, true},
		{"far hash", "?distance=3&hash=" + flipped.String(), http.StatusOK, false},
		{"far hash within distance", "?distance=64&hash=" + flipped.String(), http.StatusOK, true},
		{"other method skips file", "?method=dhash&hash=" + hash.String(), http.StatusOK, false},
		{"missing hash", "", http.StatusBadRequest, false},
		{"bad hash", "?hash=zz", http.StatusBadRequest, false},
		{"bad method", "?method=sha1&hash=00", http.StatusBadRequest, false},
		{"bad distance", "?distance=near&hash=00", http.StatusBadRequest, false},
		{"negative distance", "?distance=-1&hash=00", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/locate"+tt.query, nil))

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			resp := decode(t, rec)
			if tt.wantStatus != http.StatusOK {
				assert.NotEmpty(t, resp.Error)
				return
			}
			assert.Equal(t, tt.wantMatched, resp.Matched)
			assert.Equal(t, 1, resp.Scanned)
			if tt.wantMatched {
				require.Len(t, resp.Hits, 1)
				assert.Equal(t, "clip", resp.Hits[0].SourceKey)
			} else {
				assert.Empty(t, resp.Hits)
			}
		})
	}
}

func multipartImage(t *testing.T, img image.Image, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if img != nil {
		part, err := mw.CreateFormFile("image", "query.png")
		require.NoError(t, err)
		require.NoError(t, png.Encode(part, img))
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestLocateImageHandler(t *testing.T) {
	router, _ := newTestRouter(t)

	body, ctype := multipartImage(t, gradient(), map[string]string{"method": "average", "cropping": "33"})
	req := httptest.NewRequest(http.MethodPost, "/locate/image", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode(t, rec)
	assert.True(t, resp.Matched)
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, 0, resp.Hits[0].FrameIndex)
	assert.Equal(t, 0.0, resp.Hits[0].Distance)
}

func TestLocateImageHandler_Errors(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("missing image", func(t *testing.T) {
		body, ctype := multipartImage(t, nil, map[string]string{"method": "average"})
		req := httptest.NewRequest(http.MethodPost, "/locate/image", body)
		req.Header.Set("Content-Type", ctype)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/locate/image", bytes.NewBufferString("x"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("undecodable image", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("image", "query.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("not an image"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/locate/image", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_ServeAndShutdown(t *testing.T) {
	router, _ := newTestRouter(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(ln.Addr().String(), router, logadapter.NewRecorder())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool { return srv.State() == app.StateRunning }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, app.StateStopped, srv.State())
}
