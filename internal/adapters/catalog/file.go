package catalog

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/samirrijal/tourmap/internal/core/domain"
)

// fileDocument is the on-disk layout. JSON files parse as well, being valid YAML.
type fileDocument struct {
	Cities []domain.City  `yaml:"cities"`
	Places []domain.Place `yaml:"places"`
}

// File reads the catalog from a YAML or JSON document on disk. The file is
// read once, on first use.
type File struct {
	path string

	once sync.Once
	doc  fileDocument
	err  error
}

// NewFile creates a source for the document at path.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) load() (fileDocument, error) {
	f.once.Do(func() {
		data, err := os.ReadFile(f.path)
		if err != nil {
			f.err = fmt.Errorf("read catalog %s: %w", f.path, err)
			return
		}
		if err := yaml.Unmarshal(data, &f.doc); err != nil {
			f.err = fmt.Errorf("parse catalog %s: %w", f.path, err)
		}
	})
	return f.doc, f.err
}

func (f *File) Places(_ context.Context) ([]domain.Place, error) {
	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	return doc.Places, nil
}

func (f *File) Cities(_ context.Context) ([]domain.City, error) {
	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	return doc.Cities, nil
}
