// Package ingest opens record files (CSV or JSON) as batch sources.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"clinvalidate/internal/batch"
	"clinvalidate/internal/csv"
)

// ReadCloser is a batch source backed by an open file
type ReadCloser interface {
	batch.Source
	io.Closer
}

// Open picks the reader by file extension: .json is read as JSON, anything
// else as delimited text.
func Open(path string, delimiter rune) (ReadCloser, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return OpenJSON(path)
	}

	r, err := csv.NewReader(path, delimiter)
	if err != nil {
		return nil, err
	}
	return batch.NewCSVSource(r), nil
}

// JSONSource serves the elements of a JSON array (or a single JSON object)
// as batch items. Numbers are kept as json.Number.
type JSONSource struct {
	headers []string
	items   []any
	pos     int
}

// OpenJSON reads a JSON record file
func OpenJSON(path string) (*JSONSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON file: %w", err)
	}
	return NewJSONSource(bytes.NewReader(data))
}

// NewJSONSource decodes all records from r
func NewJSONSource(r io.Reader) (*JSONSource, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON records: %w", err)
	}

	var items []any
	if arr, ok := doc.([]any); ok {
		items = arr
	} else {
		items = []any{doc}
	}

	return &JSONSource{
		headers: unionKeys(items),
		items:   items,
	}, nil
}

// Headers returns every key seen in any object, sorted
func (s *JSONSource) Headers() []string {
	return s.headers
}

// Next returns the next element; RowNumber is its 1-based position
func (s *JSONSource) Next() (batch.Item, error) {
	if s.pos >= len(s.items) {
		return batch.Item{}, io.EOF
	}
	item := batch.Item{RowNumber: s.pos + 1, Value: s.items[s.pos]}
	s.pos++
	return item, nil
}

// Close is a no-op; the file is read fully on open
func (s *JSONSource) Close() error { return nil }

func unionKeys(items []any) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for k := range obj {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
