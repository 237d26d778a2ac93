package thredds

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nimbusgeo/stac-populator/internal/ncmeta"
)

// DirectoryLoader yields attribute bundles from JSON files exported by an
// earlier crawl. It backs offline validation runs. It implements
// pipeline.Loader.
type DirectoryLoader struct {
	paths []string
	next  int
}

// NewDirectoryLoader collects every .json file under dir, in walk order.
func NewDirectoryLoader(dir string) (*DirectoryLoader, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return &DirectoryLoader{paths: paths}, nil
}

// Len reports how many files the loader will yield.
func (l *DirectoryLoader) Len() int { return len(l.paths) }

// Next returns the next exported bundle, or io.EOF when all files have been
// read.
func (l *DirectoryLoader) Next(ctx context.Context) (string, *ncmeta.Bundle, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	if l.next >= len(l.paths) {
		return "", nil, io.EOF
	}
	path := l.paths[l.next]
	l.next++

	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", path, err)
	}
	bundle, err := ncmeta.ParseBundle(data)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), ".json")
	return name, bundle, nil
}

// Reset restarts the iteration over the collected files.
func (l *DirectoryLoader) Reset() error {
	l.next = 0
	return nil
}
