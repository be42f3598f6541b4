package fs

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/bft-labs/keyframer/internal/domain"
)

// StoreExt is the extension of keyframe store documents.
const StoreExt = ".json"

//go:embed schema.json
var schemaJSON []byte

var storeSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	const url = "store.schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("add store schema: %v", err))
	}
	return compiler.MustCompile(url)
}

// StoreFileRepository implements ports.StoreRepository with one JSON document
// per video under a directory.
type StoreFileRepository struct {
	dir string
}

// NewStoreFileRepository creates a repository writing into dir.
func NewStoreFileRepository(dir string) *StoreFileRepository {
	return &StoreFileRepository{dir: dir}
}

// Path returns the document path for key.
func (r *StoreFileRepository) Path(key string) string {
	return filepath.Join(r.dir, key+StoreExt)
}

// Write serializes the whole document for key and replaces the file atomically.
// Uses atomic write (write to temp file, then rename) to prevent corruption.
func (r *StoreFileRepository) Write(ctx context.Context, key string, entry domain.VideoEntry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if key == "" || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("%w: invalid store key %q", domain.ErrInvalidConfig, key)
	}
	if entry.Keyframes == nil {
		entry.Keyframes = []domain.KeyframeEntry{}
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create store dir: %w", err)
	}

	data, err := json.MarshalIndent(domain.StoreDocument{key: entry}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode store document: %w", err)
	}

	path := r.Path(key)
	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.New().String())

	// Write to temp file
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write store document: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("replace store document: %w", err)
	}
	return path, nil
}

// Read loads and validates the document at path.
func (r *StoreFileRepository) Read(ctx context.Context, path string) (domain.StoreDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrStoreNotFound, path)
		}
		return nil, err
	}
	return DecodeStoreDocument(data)
}

// DecodeStoreDocument validates data against the store schema and decodes it.
// Any failure wraps domain.ErrParse.
func DecodeStoreDocument(data []byte) (domain.StoreDocument, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	if err := storeSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	var doc domain.StoreDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	return doc, nil
}

// List implements ports.StoreRepository using ListStoreFiles.
func (r *StoreFileRepository) List(ctx context.Context, dir string, recursive bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ListStoreFiles(dir, recursive)
}

// ListStoreFiles returns the store documents under dir, sorted by path.
// Subdirectories are descended when recursive is true. Temp files left by
// interrupted writes are ignored.
func ListStoreFiles(dir string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, fmt.Errorf("%w: keyframes directory %s does not exist", domain.ErrInvalidConfig, dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidConfig, dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), StoreExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
