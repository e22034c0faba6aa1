// Package storage defines the Storage interface: the contract for anything
// that can hand the inference service a serialized prediction pipeline.
//
// The service only ever reads a single artifact at startup. Two on-disk
// formats exist: a JSON document and a SQLite file. Open picks one from the
// artifact's file extension.
package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aanand-mishra/car-price-api/internal/pipeline"
	"github.com/aanand-mishra/car-price-api/internal/storage/file"
	"github.com/aanand-mishra/car-price-api/internal/storage/sqlite"
)

// Storage is the artifact contract.
type Storage interface {
	// Load reads the whole pipeline document. Every call re-reads the
	// artifact; callers load once and keep the compiled result.
	Load() (pipeline.Document, error)
}

// Open returns the Storage backend for the artifact at path.
func Open(path string) (Storage, error) {
	if path == "" {
		return nil, fmt.Errorf("storage.Open: empty artifact path")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return sqlite.New(path), nil
	default:
		return file.New(path), nil
	}
}

// LoadPipeline loads and compiles the artifact at path. Any error means the
// service must not start.
func LoadPipeline(path string) (*pipeline.Pipeline, error) {
	s, err := Open(path)
	if err != nil {
		return nil, err
	}

	doc, err := s.Load()
	if err != nil {
		return nil, err
	}

	p, err := pipeline.Compile(doc)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadPipeline: %s: %w", path, err)
	}

	return p, nil
}
