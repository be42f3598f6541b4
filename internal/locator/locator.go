// Package locator answers whether a query hash matches any stored keyframe.
//
// The search is a brute-force scan: every store document under a directory
// is read and every keyframe of the matching method is compared with the
// query. A file is reported once when any keyframe lies within the threshold.
// Unreadable documents and documents of another method are skipped.
package locator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bft-labs/keyframer/internal/domain"
	"github.com/bft-labs/keyframer/internal/hashing"
	"github.com/bft-labs/keyframer/internal/ports"
	"github.com/bft-labs/keyframer/pkg/log"
)

// Query is a method-tagged hash and the distance tolerance for a match.
type Query struct {
	Hash      domain.HashValue
	Threshold float64
}

// Options configures a directory scan.
type Options struct {
	// Dir is the store directory to scan
	Dir string

	// Recursive descends into subdirectories
	Recursive bool

	// Workers is the number of files read concurrently; values below 1 mean 1
	Workers int
}

// DefaultOptions returns a recursive, sequential scan of dir.
func DefaultOptions(dir string) Options {
	return Options{Dir: dir, Recursive: true, Workers: 1}
}

// Hit is a store file with at least one keyframe within the threshold.
type Hit struct {
	// Path is the store document path, or the catalog's recorded store path
	Path string `json:"path"`

	// SourceKey is the video the keyframe belongs to
	SourceKey string `json:"source_key"`

	// FrameIndex is the closest matching keyframe
	FrameIndex int `json:"frame_index"`

	// Distance is that keyframe's distance to the query
	Distance float64 `json:"distance"`
}

// Report is the result of a scan. Hits are sorted by path.
type Report struct {
	Hits    []Hit `json:"hits"`
	Scanned int   `json:"scanned"`
	Skipped int   `json:"skipped"`
}

// Matched reports whether any file matched.
func (r Report) Matched() bool { return len(r.Hits) > 0 }

// Locator scans store documents for a query hash.
type Locator struct {
	repo   ports.StoreRepository
	logger log.Logger
}

// New creates a Locator reading documents through repo.
func New(repo ports.StoreRepository, logger log.Logger) *Locator {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Locator{repo: repo, logger: logger}
}

type outcome struct {
	hit     *Hit
	skipped bool
}

// Locate scans opts.Dir. A missing directory is a configuration error;
// per-file failures are logged and counted as skipped.
func (l *Locator) Locate(ctx context.Context, q Query, opts Options) (Report, error) {
	if q.Threshold < 0 {
		return Report{}, fmt.Errorf("%w: negative distance %v", domain.ErrInvalidConfig, q.Threshold)
	}
	if _, err := hashing.New(q.Hash.Method); err != nil {
		return Report{}, err
	}

	files, err := l.repo.List(ctx, opts.Dir, opts.Recursive)
	if err != nil {
		return Report{}, err
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	outcomes := make([]outcome, len(files))
	if workers <= 1 {
		for i, path := range files {
			if err := ctx.Err(); err != nil {
				return Report{}, err
			}
			outcomes[i] = l.scanFile(ctx, q, path)
		}
	} else {
		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					outcomes[i] = l.scanFile(ctx, q, files[i])
				}
			}()
		}
	feed:
		for i := range files {
			select {
			case jobs <- i:
			case <-ctx.Done():
				break feed
			}
		}
		close(jobs)
		wg.Wait()
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
	}

	report := Report{Hits: []Hit{}, Scanned: len(files)}
	for _, o := range outcomes {
		if o.skipped {
			report.Skipped++
		}
		if o.hit != nil {
			report.Hits = append(report.Hits, *o.hit)
		}
	}
	sortHits(report.Hits)

	l.logger.Debug("locate finished",
		log.String("dir", opts.Dir),
		log.Int("scanned", report.Scanned),
		log.Int("skipped", report.Skipped),
		log.Int("hits", len(report.Hits)),
	)
	return report, nil
}

func (l *Locator) scanFile(ctx context.Context, q Query, path string) outcome {
	doc, err := l.repo.Read(ctx, path)
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			l.logger.Warn("skipping store file", log.String("path", path), log.Err(err))
		}
		return outcome{skipped: true}
	}

	key := domain.SourceKey(path)
	entry, ok := doc[key]
	if !ok {
		l.logger.Warn("skipping store file without entry for its name",
			log.String("path", path), log.String("key", key))
		return outcome{skipped: true}
	}

	hit, matched, err := Match(q, entry.Records(key))
	if err != nil {
		l.logger.Warn("skipping store file", log.String("path", path), log.Err(err))
		return outcome{skipped: true}
	}
	if !matched {
		return outcome{}
	}
	hit.Path = path
	return outcome{hit: &hit}
}

// Match compares q with records of one video and returns the closest record
// within the threshold. Records of another method yield domain.ErrMethodMismatch.
func Match(q Query, records []domain.KeyframeRecord) (Hit, bool, error) {
	var (
		best    Hit
		matched bool
	)
	for _, r := range records {
		if r.Method != q.Hash.Method {
			return Hit{}, false, fmt.Errorf("%w: store uses %s, query uses %s", domain.ErrMethodMismatch, r.Method, q.Hash.Method)
		}
		d, err := hashing.Distance(q.Hash, r.Hash)
		if err != nil {
			return Hit{}, false, err
		}
		if d > q.Threshold {
			continue
		}
		if !matched || d < best.Distance {
			best = Hit{SourceKey: r.SourceKey, FrameIndex: r.FrameIndex, Distance: d}
			matched = true
		}
	}
	return best, matched, nil
}

// CatalogReader supplies keyframe records grouped by store path.
type CatalogReader interface {
	Records(ctx context.Context) (map[string][]domain.KeyframeRecord, error)
}

// LocateCatalog applies the Locate policy to records held in a catalog.
// Each store path counts as one scanned file, including paths the catalog
// holds with no keyframes.
func (l *Locator) LocateCatalog(ctx context.Context, q Query, catalog CatalogReader) (Report, error) {
	if q.Threshold < 0 {
		return Report{}, fmt.Errorf("%w: negative distance %v", domain.ErrInvalidConfig, q.Threshold)
	}
	groups, err := catalog.Records(ctx)
	if err != nil {
		return Report{}, err
	}

	report := Report{Hits: []Hit{}, Scanned: len(groups)}
	for path, records := range groups {
		hit, matched, err := Match(q, records)
		if err != nil {
			l.logger.Debug("skipping catalog entry", log.String("path", path), log.Err(err))
			report.Skipped++
			continue
		}
		if matched {
			hit.Path = path
			report.Hits = append(report.Hits, hit)
		}
	}
	sortHits(report.Hits)
	return report, nil
}

func sortHits(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Path != hits[j].Path {
			return filepath.ToSlash(hits[i].Path) < filepath.ToSlash(hits[j].Path)
		}
		return hits[i].FrameIndex < hits[j].FrameIndex
	})
}
