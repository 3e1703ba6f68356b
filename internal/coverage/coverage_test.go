package coverage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinvalidate/internal/logging"
)

const coverageJSON = `{
  "meta": {"version": "7.4.0"},
  "files": {},
  "totals": {
    "covered_lines": 170,
    "num_statements": 200,
    "percent_covered": 85.0,
    "percent_covered_display": "85",
    "missing_lines": 30
  }
}`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coverage.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDecode(t *testing.T) {
	r, err := Decode(strings.NewReader(coverageJSON))
	require.NoError(t, err)

	require.True(t, r.Known())
	assert.Equal(t, 85.0, *r.Percent)
	assert.Equal(t, 170, *r.LinesCovered)
	assert.Equal(t, 200, *r.LinesTotal)
	assert.Equal(t, "85", *r.Display)
}

func TestDecode_NoTotals(t *testing.T) {
	r, err := Decode(strings.NewReader(`{"files": {}}`))
	require.NoError(t, err)
	assert.False(t, r.Known())
	assert.Nil(t, r.LinesTotal)
}

func TestMeets(t *testing.T) {
	pct := 79.9
	r := &Report{Percent: &pct}
	assert.False(t, r.Meets(80))
	assert.True(t, r.Meets(79.9))

	var empty *Report
	assert.False(t, empty.Known())
	assert.False(t, (&Report{}).Meets(0))
}

func TestParse(t *testing.T) {
	r := Parse(writeFile(t, coverageJSON), logging.NewNop())
	require.True(t, r.Known())
	assert.Equal(t, 85.0, *r.Percent)
}

func TestParse_MissingFileWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, 0)

	r := Parse(filepath.Join(t.TempDir(), "nope.json"), logger)
	assert.False(t, r.Known())
	assert.Contains(t, buf.String(), "level=WARN")

	buf.Reset()
	r = Parse("", logger)
	assert.False(t, r.Known())
	assert.Contains(t, buf.String(), "no coverage file provided")
}

func TestParse_UnparsableWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, 0)

	r := Parse(writeFile(t, "{not json"), logger)
	assert.NotNil(t, r)
	assert.False(t, r.Known())
	assert.Contains(t, buf.String(), "could not parse coverage data")
}
