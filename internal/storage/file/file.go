// Package file reads a pipeline document stored as JSON.
package file

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aanand-mishra/car-price-api/internal/pipeline"
)

// File is a JSON pipeline artifact on disk.
type File struct {
	Path string
}

// New returns a File for path. Nothing is opened until Load.
func New(path string) *File {
	return &File{Path: path}
}

// Load opens the artifact, decodes it and closes it again before returning.
// Unknown keys are rejected so that a document written for a different
// pipeline layout fails loudly instead of loading half-empty.
func (f *File) Load() (pipeline.Document, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return pipeline.Document{}, fmt.Errorf("file.Load: open: %w", err)
	}
	defer fh.Close()

	dec := json.NewDecoder(fh)
	dec.DisallowUnknownFields()

	var doc pipeline.Document
	if err := dec.Decode(&doc); err != nil {
		return pipeline.Document{}, fmt.Errorf("file.Load: decode %s: %w", f.Path, err)
	}

	return doc, nil
}
