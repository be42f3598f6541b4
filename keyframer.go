// Package keyframer extracts keyframes from videos by perceptual hashing and
// locates images among previously extracted keyframes.
//
// Example usage:
//
//	cfg := keyframer.DefaultConfig()
//	cfg.Source = "/videos/holiday.mp4"
//	cfg.Destination = "/data/keyframes"
//	res, err := keyframer.Process(context.Background(), cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg.Hash = res.Keyframes[0].Hash.String()
//	report, err := keyframer.Locate(context.Background(), cfg)
package keyframer

import (
	"context"
	"fmt"

	"github.com/bft-labs/keyframer/internal/adapters/ffmpeg"
	"github.com/bft-labs/keyframer/internal/adapters/fs"
	"github.com/bft-labs/keyframer/internal/adapters/imagedir"
	"github.com/bft-labs/keyframer/internal/adapters/source"
	"github.com/bft-labs/keyframer/internal/adapters/sqlite"
	"github.com/bft-labs/keyframer/internal/app"
	"github.com/bft-labs/keyframer/internal/cliconfig"
	"github.com/bft-labs/keyframer/internal/domain"
	"github.com/bft-labs/keyframer/internal/locator"
	"github.com/bft-labs/keyframer/pkg/log"
)

// Config holds the configuration for processing and locating.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = cliconfig.Config

// ProcessResult summarizes one processed video.
type ProcessResult = app.ProcessResult

// Report lists the store files that matched a query.
type Report = locator.Report

// Hit is one matching store file.
type Hit = locator.Hit

// HashValue is a method-tagged perceptual hash.
type HashValue = domain.HashValue

// DefaultConfig returns a Config with sensible default values.
// At minimum, set Source before calling Process.
func DefaultConfig() Config {
	return cliconfig.DefaultConfig()
}

// Option configures Process and Locate.
type Option func(*options)

type options struct {
	logger log.Logger
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{logger: log.Discard}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Process extracts the keyframes of cfg.Source into a store document under
// cfg.Destination. Source may be a video file or a directory of frames.
func Process(ctx context.Context, cfg Config, opts ...Option) (ProcessResult, error) {
	if err := cfg.Validate(); err != nil {
		return ProcessResult{}, err
	}
	o := buildOptions(opts)
	return NewProcessor(cfg, o.logger).Process(ctx, ProcessSettings(cfg))
}

// NewProcessor wires a processor with the ffmpeg and image directory frame
// sources and the JSON store under cfg.Destination.
func NewProcessor(cfg Config, logger log.Logger) *app.Processor {
	opener := source.Opener{
		Video:  ffmpeg.NewOpener(ffmpeg.Config{FFmpegPath: cfg.FFmpegPath, FFprobePath: cfg.FFprobePath}),
		Frames: imagedir.NewOpener(),
	}
	return app.NewProcessor(opener,
		fs.NewStoreFileRepository(cfg.Destination),
		fs.NewJPEGImageWriter(cfg.ImagesDir, fs.DefaultJPEGQuality),
		logger,
	)
}

// ProcessSettings extracts the per-video settings from cfg.
func ProcessSettings(cfg Config) app.ProcessConfig {
	return app.ProcessConfig{
		Source:          cfg.Source,
		Method:          cfg.HashMethod(),
		Distance:        cfg.Distance,
		CroppingPercent: cfg.CroppingPercent,
		SaveImages:      cfg.SaveImages,
		Check:           cfg.Check,
		FlushTrailing:   cfg.FlushTrailing,
	}
}

// Locate answers whether the query in cfg (Hash, Image or QueryRecord)
// matches any keyframe stored under cfg.Destination, or in cfg.Catalog when
// it is set.
func Locate(ctx context.Context, cfg Config, opts ...Option) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	o := buildOptions(opts)
	svc := NewLocateService(o.logger)
	req := LocateSettings(cfg)

	if cfg.Catalog == "" {
		return svc.Locate(ctx, req)
	}
	catalog, err := sqlite.Open(cfg.Catalog)
	if err != nil {
		return Report{}, err
	}
	defer catalog.Close()
	return svc.LocateCatalog(ctx, req, catalog)
}

// NewLocateService wires a locate service over JSON store files.
func NewLocateService(logger log.Logger) *app.LocateService {
	return app.NewLocateService(fs.NewStoreFileRepository(""), imagedir.DecodeFile, logger)
}

// LocateSettings extracts the query settings from cfg.
func LocateSettings(cfg Config) app.LocateRequest {
	return app.LocateRequest{
		Hash:            cfg.Hash,
		ImagePath:       cfg.Image,
		QueryRecord:     cfg.QueryRecord,
		QueryIndex:      cfg.QueryIndex,
		Method:          cfg.HashMethod(),
		Distance:        cfg.Distance,
		CroppingPercent: cfg.CroppingPercent,
		KeyframesPath:   cfg.Destination,
		Recursive:       cfg.Recursive,
		Workers:         cfg.Workers,
	}
}

// HashImageFile hashes the image at path with cfg's method and cropping.
func HashImageFile(cfg Config, path string) (HashValue, error) {
	if err := cfg.Validate(); err != nil {
		return HashValue{}, err
	}
	img, err := imagedir.DecodeFile(path)
	if err != nil {
		return HashValue{}, err
	}
	return app.HashImage(img, cfg.HashMethod(), cfg.CroppingPercent)
}

// ImportResult counts the store files and records copied into a catalog.
type ImportResult = app.ImportResult

// ImportCatalog mirrors every store document under cfg.Destination into the
// SQLite catalog at cfg.Catalog.
func ImportCatalog(ctx context.Context, cfg Config, opts ...Option) (ImportResult, error) {
	if err := cfg.Validate(); err != nil {
		return ImportResult{}, err
	}
	if cfg.Catalog == "" {
		return ImportResult{}, fmt.Errorf("%w: catalog path is required", domain.ErrInvalidConfig)
	}
	o := buildOptions(opts)

	catalog, err := sqlite.Open(cfg.Catalog)
	if err != nil {
		return ImportResult{}, err
	}
	defer catalog.Close()

	return app.ImportCatalog(ctx, fs.NewStoreFileRepository(cfg.Destination), catalog, cfg.Destination, cfg.Recursive, o.logger)
}
