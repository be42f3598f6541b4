package app

import (
	"context"
	"errors"

	"github.com/bft-labs/keyframer/internal/domain"
	"github.com/bft-labs/keyframer/internal/ports"
)

// CatalogWriter receives the records of one store document.
type CatalogWriter interface {
	Replace(ctx context.Context, storePath string, records []domain.KeyframeRecord) error
	Remove(ctx context.Context, storePath string) error
	Count(ctx context.Context) (rows, files int, err error)
}

// ImportResult counts what an import did. CatalogRows and CatalogFiles are
// the catalog totals once the import finished.
type ImportResult struct {
	Files        int
	Records      int
	Skipped      int
	CatalogRows  int
	CatalogFiles int
}

// ImportCatalog mirrors every store document under dir into catalog.
// Unreadable documents are logged, skipped and dropped from the catalog.
func ImportCatalog(ctx context.Context, store ports.StoreRepository, catalog CatalogWriter, dir string, recursive bool, logger ports.Logger) (ImportResult, error) {
	files, err := store.List(ctx, dir, recursive)
	if err != nil {
		return ImportResult{}, err
	}

	var res ImportResult
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		doc, err := store.Read(ctx, path)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return res, err
			}
			logger.Warn("skipping store file", ports.String("path", path), ports.Err(err))
			if err := catalog.Remove(ctx, path); err != nil {
				return res, err
			}
			res.Skipped++
			continue
		}
		key := domain.SourceKey(path)
		entry, ok := doc[key]
		if !ok {
			logger.Warn("skipping store file without entry for its name",
				ports.String("path", path), ports.String("key", key))
			if err := catalog.Remove(ctx, path); err != nil {
				return res, err
			}
			res.Skipped++
			continue
		}
		records := entry.Records(key)
		if err := catalog.Replace(ctx, path, records); err != nil {
			return res, err
		}
		res.Files++
		res.Records += len(records)
	}

	res.CatalogRows, res.CatalogFiles, err = catalog.Count(ctx)
	if err != nil {
		return res, err
	}

	logger.Info("catalog imported",
		ports.String("dir", dir),
		ports.Int("files", res.Files),
		ports.Int("records", res.Records),
		ports.Int("skipped", res.Skipped),
		ports.Int("catalog_rows", res.CatalogRows),
		ports.Int("catalog_files", res.CatalogFiles),
	)
	return res, nil
}
