package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/keyframer/internal/domain"
	"github.com/bft-labs/keyframer/internal/hashing"
	"github.com/bft-labs/keyframer/internal/ports"
	"github.com/bft-labs/keyframer/internal/preprocess"
	"github.com/bft-labs/keyframer/internal/selector"
)

// ProcessConfig describes one keyframe extraction run.
type ProcessConfig struct {
	// Source is a video file or a directory of frame images
	Source string

	// Method is the hash method
	Method domain.Method

	// Distance is the selection threshold
	Distance float64

	// CroppingPercent is the vertical cropping; values outside [0, 50) become 33
	CroppingPercent int

	// SaveImages writes each keyframe as <hash>.jpg
	SaveImages bool

	// Check runs the coverage check after selection
	Check bool

	// FlushTrailing emits the final anchor as a keyframe
	FlushTrailing bool
}

// ProcessResult summarizes a completed run.
type ProcessResult struct {
	RunID               string
	SourceKey           string
	StorePath           string
	FrameCount          int
	Keyframes           []selector.Candidate
	ImagePaths          []string
	Cropping            preprocess.Cropping
	CroppingSubstituted bool
	Coverage            *selector.Coverage
	Elapsed             time.Duration
}

// Processor extracts keyframes from one video and persists them.
type Processor struct {
	opener ports.FrameSourceOpener
	store  ports.StoreRepository
	images ports.KeyframeImageWriter
	logger ports.Logger
}

// NewProcessor creates a processor. images may be nil when keyframe images
// are never saved.
func NewProcessor(opener ports.FrameSourceOpener, store ports.StoreRepository, images ports.KeyframeImageWriter, logger ports.Logger) *Processor {
	return &Processor{opener: opener, store: store, images: images, logger: logger}
}

// Process runs the pipeline: open source, crop, hash, select, write.
// The store document is only written once every frame has been consumed.
func (p *Processor) Process(ctx context.Context, cfg ProcessConfig) (ProcessResult, error) {
	start := time.Now()
	res := ProcessResult{RunID: uuid.New().String(), SourceKey: domain.SourceKey(cfg.Source)}

	if cfg.Source == "" {
		return res, fmt.Errorf("%w: source is required", domain.ErrInvalidConfig)
	}
	if cfg.Distance < 0 {
		return res, fmt.Errorf("%w: distance must be >= 0", domain.ErrInvalidConfig)
	}
	if cfg.SaveImages && p.images == nil {
		return res, fmt.Errorf("%w: no keyframe image writer configured", domain.ErrInvalidConfig)
	}

	res.Cropping, res.CroppingSubstituted = preprocess.ResolveCropping(cfg.CroppingPercent)
	if res.CroppingSubstituted {
		p.logger.Warn("cropping out of range, using default",
			ports.String("run_id", res.RunID),
			ports.Int("requested", cfg.CroppingPercent),
			ports.Int("cropping", res.Cropping.Percent),
		)
	}

	hasher, err := hashing.New(cfg.Method)
	if err != nil {
		return res, err
	}

	src, err := p.opener.Open(ctx, cfg.Source)
	if err != nil {
		return res, err
	}
	defer src.Close()

	width, height := src.Dimensions()
	p.logger.Info("processing video",
		ports.String("run_id", res.RunID),
		ports.String("source", cfg.Source),
		ports.Stringer("method", cfg.Method),
		ports.Float64("distance", cfg.Distance),
		ports.Int("cropping", res.Cropping.Percent),
		ports.Int("frames", src.FrameCount()),
		ports.Int("width", width),
		ports.Int("height", height),
	)

	sel := selector.New(selector.Options{Threshold: cfg.Distance, FlushTrailing: cfg.FlushTrailing})
	var all []domain.HashValue

	for {
		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("%s: %w", cfg.Source, err)
		}

		img, hash, err := hashFrame(hasher, frame.Image, res.Cropping.Fraction)
		if err != nil {
			return res, fmt.Errorf("%s frame %d: %w", cfg.Source, frame.Index, err)
		}
		if cfg.Check {
			all = append(all, hash)
		}

		kf, err := sel.Push(frame.Index, hash, img)
		if err != nil {
			return res, fmt.Errorf("%s: %w", cfg.Source, err)
		}
		if kf != nil && cfg.SaveImages {
			if err := p.saveImage(ctx, &res, kf); err != nil {
				return res, err
			}
		}
	}

	keyframes, trailing := sel.Finish()
	if trailing != nil && cfg.SaveImages {
		if err := p.saveImage(ctx, &res, trailing); err != nil {
			return res, err
		}
	}
	res.Keyframes = keyframes
	res.FrameCount = sel.Scanned()

	entry := domain.VideoEntry{
		Method:     cfg.Method,
		Distance:   cfg.Distance,
		Cropping:   res.Cropping.Percent,
		FrameCount: res.FrameCount,
		Keyframes:  make([]domain.KeyframeEntry, 0, len(keyframes)),
	}
	for _, k := range keyframes {
		entry.Keyframes = append(entry.Keyframes, domain.KeyframeEntry{Index: k.Index, Hash: k.Hash})
	}
	res.StorePath, err = p.store.Write(ctx, res.SourceKey, entry)
	if err != nil {
		return res, fmt.Errorf("write store document: %w", err)
	}

	if cfg.Check {
		kfHashes := make([]domain.HashValue, len(keyframes))
		for i, k := range keyframes {
			kfHashes[i] = k.Hash
		}
		cov, err := selector.CheckCoverage(all, kfHashes, cfg.Distance, nil)
		if err != nil {
			return res, err
		}
		res.Coverage = &cov
		p.logger.Info("coverage",
			ports.String("run_id", res.RunID),
			ports.Int("hits", cov.Hits),
			ports.Int("misses", cov.Misses),
			ports.Int("total", cov.Total),
		)
	}

	res.Elapsed = time.Since(start)
	p.logger.Info("video processed",
		ports.String("run_id", res.RunID),
		ports.String("store", res.StorePath),
		ports.Int("frames", res.FrameCount),
		ports.Int("keyframes", len(res.Keyframes)),
		ports.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func (p *Processor) saveImage(ctx context.Context, res *ProcessResult, kf *selector.Keyframe) error {
	path, err := p.images.WriteKeyframe(ctx, kf.Hash, kf.Image)
	if err != nil {
		return fmt.Errorf("write keyframe %d: %w", kf.Index, err)
	}
	res.ImagePaths = append(res.ImagePaths, path)
	return nil
}

// hashFrame crops img and hashes the result.
func hashFrame(h hashing.Hasher, img image.Image, fraction float64) (image.Image, domain.HashValue, error) {
	cropped, err := preprocess.Crop(img, fraction)
	if err != nil {
		return nil, domain.HashValue{}, err
	}
	hash, err := h.Compute(cropped)
	if err != nil {
		return nil, domain.HashValue{}, err
	}
	return cropped, hash, nil
}
