package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source is one named list of URLs
type Source struct {
	Name string
	URLs []string
}

// ReadURLFile reads one URL per line, skipping blank lines
func ReadURLFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read url file: %w", err)
	}
	return parseLines(string(data)), nil
}

// ReadInputDir reads every .txt file in dir, ordered by file name
func ReadInputDir(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	sources := make([]Source, 0, len(names))
	for _, name := range names {
		urls, err := ReadURLFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		sources = append(sources, Source{Name: name, URLs: urls})
	}

	return sources, nil
}
