package batch

import (
	"clinvalidate/internal/csv"
)

// Item is one unit read from a source. Value is normally a mapping but is
// passed to the engine untouched so malformed input can be detected.
type Item struct {
	RowNumber int
	Value     any
}

// Source supplies column names and items in order; Next returns io.EOF
// when exhausted.
type Source interface {
	Headers() []string
	Next() (Item, error)
}

// CSVSource adapts a csv.Reader to Source
type CSVSource struct {
	*csv.Reader
}

// NewCSVSource wraps r
func NewCSVSource(r *csv.Reader) *CSVSource {
	return &CSVSource{Reader: r}
}

// Next returns the next row as raw cell text
func (s *CSVSource) Next() (Item, error) {
	row, err := s.Read()
	if err != nil {
		return Item{}, err
	}
	return Item{RowNumber: row.RowNumber, Value: row.Data}, nil
}
