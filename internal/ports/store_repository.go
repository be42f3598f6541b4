package ports

import (
	"context"

	"github.com/bft-labs/keyframer/internal/domain"
)

// StoreRepository persists keyframe store documents, one per video.
type StoreRepository interface {
	// Write replaces the document for key atomically and returns its path.
	// A failed write leaves any previous document untouched.
	Write(ctx context.Context, key string, entry domain.VideoEntry) (string, error)

	// Read loads and validates the document at path.
	// Returns an error wrapping domain.ErrStoreNotFound if the file is absent and
	// domain.ErrParse if it is malformed.
	Read(ctx context.Context, path string) (domain.StoreDocument, error)

	// List returns the store documents under dir, sorted by path.
	// Returns an error wrapping domain.ErrInvalidConfig if dir does not exist.
	List(ctx context.Context, dir string, recursive bool) ([]string, error)
}
