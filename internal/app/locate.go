package app

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/bft-labs/keyframer/internal/domain"
	"github.com/bft-labs/keyframer/internal/hashing"
	"github.com/bft-labs/keyframer/internal/locator"
	"github.com/bft-labs/keyframer/internal/ports"
	"github.com/bft-labs/keyframer/internal/preprocess"
)

// ImageDecoder loads a query image from disk.
type ImageDecoder func(path string) (image.Image, error)

// LocateRequest selects the query and where to search. Exactly one of Hash,
// ImagePath and QueryRecord must be set.
type LocateRequest struct {
	// Hash is a literal hash in text form
	Hash string

	// ImagePath is an image to hash with Method and CroppingPercent
	ImagePath string

	// QueryRecord is a store document; QueryIndex picks its keyframe by frame index
	QueryRecord string
	QueryIndex  int

	Method          domain.Method
	Distance        float64
	CroppingPercent int

	// KeyframesPath is the store directory to scan
	KeyframesPath string
	Recursive     bool
	Workers       int
}

// LocateService resolves query hashes and runs the Locator.
type LocateService struct {
	store   ports.StoreRepository
	decode  ImageDecoder
	locator *locator.Locator
	logger  ports.Logger
}

// NewLocateService creates a locate service reading store documents via store.
func NewLocateService(store ports.StoreRepository, decode ImageDecoder, logger ports.Logger) *LocateService {
	return &LocateService{
		store:   store,
		decode:  decode,
		locator: locator.New(store, logger),
		logger:  logger,
	}
}

// Locate scans the store directory for the request's query.
func (s *LocateService) Locate(ctx context.Context, req LocateRequest) (locator.Report, error) {
	q, err := s.Query(ctx, req)
	if err != nil {
		return locator.Report{}, err
	}
	if req.KeyframesPath == "" {
		return locator.Report{}, fmt.Errorf("%w: keyframes path is required", domain.ErrInvalidConfig)
	}
	return s.locator.Locate(ctx, q, locator.Options{
		Dir:       req.KeyframesPath,
		Recursive: req.Recursive,
		Workers:   req.Workers,
	})
}

// LocateCatalog runs the request's query against a catalog.
func (s *LocateService) LocateCatalog(ctx context.Context, req LocateRequest, catalog locator.CatalogReader) (locator.Report, error) {
	q, err := s.Query(ctx, req)
	if err != nil {
		return locator.Report{}, err
	}
	return s.locator.LocateCatalog(ctx, q, catalog)
}

// LocateImage hashes img and scans the request's store directory.
func (s *LocateService) LocateImage(ctx context.Context, img image.Image, req LocateRequest) (locator.Report, error) {
	hash, err := HashImage(img, req.Method, req.CroppingPercent)
	if err != nil {
		return locator.Report{}, err
	}
	req.Hash, req.ImagePath, req.QueryRecord = hash.String(), "", ""
	return s.Locate(ctx, req)
}

// Query resolves the request into a method-tagged query hash.
func (s *LocateService) Query(ctx context.Context, req LocateRequest) (locator.Query, error) {
	set := 0
	for _, v := range []string{req.Hash, req.ImagePath, req.QueryRecord} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	if set != 1 {
		return locator.Query{}, fmt.Errorf("%w: exactly one of hash, image or query record is required", domain.ErrInvalidConfig)
	}
	if req.Distance < 0 {
		return locator.Query{}, fmt.Errorf("%w: distance must be >= 0", domain.ErrInvalidConfig)
	}

	var (
		hash domain.HashValue
		err  error
	)
	switch {
	case req.Hash != "":
		if _, err = hashing.New(req.Method); err != nil {
			return locator.Query{}, err
		}
		hash, err = domain.ParseHash(req.Method, req.Hash)
	case req.ImagePath != "":
		if s.decode == nil {
			return locator.Query{}, fmt.Errorf("%w: no image decoder configured", domain.ErrInvalidConfig)
		}
		var img image.Image
		img, err = s.decode(req.ImagePath)
		if err != nil {
			return locator.Query{}, err
		}
		hash, err = HashImage(img, req.Method, req.CroppingPercent)
	default:
		hash, err = s.recordHash(ctx, req)
	}
	if err != nil {
		return locator.Query{}, err
	}

	s.logger.Debug("query hash resolved",
		ports.Stringer("method", hash.Method),
		ports.Stringer("hash", hash),
	)
	return locator.Query{Hash: hash, Threshold: req.Distance}, nil
}

func (s *LocateService) recordHash(ctx context.Context, req LocateRequest) (domain.HashValue, error) {
	doc, err := s.store.Read(ctx, req.QueryRecord)
	if err != nil {
		return domain.HashValue{}, err
	}
	key := domain.SourceKey(req.QueryRecord)
	entry, ok := doc[key]
	if !ok {
		return domain.HashValue{}, fmt.Errorf("%w: %s has no entry %q", domain.ErrParse, req.QueryRecord, key)
	}
	if req.Method != "" && req.Method != entry.Method {
		s.logger.Warn("query record method overrides requested method",
			ports.Stringer("requested", req.Method),
			ports.Stringer("record", entry.Method),
		)
	}
	for _, k := range entry.Keyframes {
		if k.Index == req.QueryIndex {
			return k.Hash, nil
		}
	}
	return domain.HashValue{}, fmt.Errorf("%w: %s has no keyframe at frame %d", domain.ErrInvalidConfig, req.QueryRecord, req.QueryIndex)
}

// HashImage crops img by the resolved cropping percentage and hashes it with m.
func HashImage(img image.Image, m domain.Method, croppingPercent int) (domain.HashValue, error) {
	h, err := hashing.New(m)
	if err != nil {
		return domain.HashValue{}, err
	}
	crop, _ := preprocess.ResolveCropping(croppingPercent)
	_, hash, err := hashFrame(h, img, crop.Fraction)
	return hash, err
}
