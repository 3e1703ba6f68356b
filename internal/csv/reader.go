package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Reader streams data rows of a delimited file keyed by header name
type Reader struct {
	closer    io.Closer
	csvReader *csv.Reader
	headers   []string
}

// Row is one data row as column name -> raw cell text
type Row struct {
	Data      map[string]string
	RowNumber int // 1-based line the row starts on, the header is line 1
}

// NewReader opens path and reads its header row
func NewReader(path string, delimiter rune) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}

	r, err := NewReaderFrom(file, delimiter)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.closer = file
	return r, nil
}

// NewReaderFrom reads delimited data from an already open stream. The
// caller keeps ownership of src.
func NewReaderFrom(src io.Reader, delimiter rune) (*Reader, error) {
	csvReader := csv.NewReader(src)
	csvReader.Comma = delimiter
	csvReader.TrimLeadingSpace = true
	csvReader.ReuseRecord = true

	headers, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	// The header slice is reused by the next Read; keep our own copy.
	cleaned := make([]string, len(headers))
	for i, h := range headers {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff") // spreadsheet exports carry a BOM
		}
		cleaned[i] = strings.TrimSpace(h)
	}

	return &Reader{
		csvReader: csvReader,
		headers:   cleaned,
	}, nil
}

// Headers returns the column names in file order
func (r *Reader) Headers() []string {
	return r.headers
}

// Read returns the next data row or io.EOF
func (r *Reader) Read() (*Row, error) {
	record, err := r.csvReader.Read()
	if err != nil {
		return nil, err
	}
	line, _ := r.csvReader.FieldPos(0)

	// record is reused by encoding/csv, so every cell is cloned
	data := make(map[string]string, len(r.headers))
	for i, header := range r.headers {
		if i < len(record) {
			data[header] = strings.Clone(record[i])
		} else {
			data[header] = ""
		}
	}

	return &Row{
		Data:      data,
		RowNumber: line,
	}, nil
}

// ReadAll reads the remaining rows
func (r *Reader) ReadAll() ([]*Row, error) {
	rows := []*Row{}
	for {
		row, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// Close closes the underlying file when the reader opened it
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
