// Package junit reads JUnit XML test results as written by pytest, go-junit-report
// and most CI test runners.
package junit

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Case status values
const (
	StatusPassed  = "PASSED"
	StatusFailed  = "FAILED"
	StatusSkipped = "SKIPPED"
)

const maxMessageLength = 200

// Case is one executed test case
type Case struct {
	Name      string  `json:"name"`
	ClassName string  `json:"class"`
	Time      float64 `json:"time"`
	Status    string  `json:"status"`
}

// FailedCase is a failed or errored test case and its message
type FailedCase struct {
	Name      string `json:"name"`
	ClassName string `json:"class"`
	Message   string `json:"message"`
}

// Summary aggregates a JUnit XML document
type Summary struct {
	Total       int          `json:"total_tests"`
	Passed      int          `json:"passed"`
	Failed      int          `json:"failed"`
	Skipped     int          `json:"skipped"`
	Duration    float64      `json:"execution_time"`
	Cases       []Case       `json:"test_cases"`
	FailedCases []FailedCase `json:"failed_tests"`
}

// PassRate returns the passed percentage, false when no tests ran
func (s *Summary) PassRate() (float64, bool) {
	if s.Total <= 0 {
		return 0, false
	}
	return float64(s.Passed) / float64(s.Total) * 100, true
}

// node is a generic XML element
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func (n *node) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) child(name string) *node {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == name {
			return &n.Children[i]
		}
	}
	return nil
}

// descendants appends every element below n named name, in document order
func (n *node) descendants(name string, out []*node) []*node {
	for i := range n.Children {
		c := &n.Children[i]
		if c.XMLName.Local == name {
			out = append(out, c)
		}
		out = c.descendants(name, out)
	}
	return out
}

// Parse reads a JUnit XML file
func Parse(path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open JUnit XML: %w", err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode reads a JUnit XML document from r
func Decode(r io.Reader) (*Summary, error) {
	var root node
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to parse JUnit XML: %w", err)
	}

	suites := root.descendants("testsuite", nil)
	if len(suites) == 0 && root.XMLName.Local == "testsuite" {
		suites = []*node{&root}
	}

	var failures, errs int
	s := &Summary{
		Cases:       []Case{},
		FailedCases: []FailedCase{},
	}
	for _, suite := range suites {
		s.Total += intAttr(suite, "tests")
		failures += intAttr(suite, "failures")
		errs += intAttr(suite, "errors")
		s.Skipped += intAttr(suite, "skipped")
		s.Duration += floatAttr(suite, "time")
	}
	s.Failed = failures + errs
	s.Passed = s.Total - (s.Failed + s.Skipped)

	cases := root.descendants("testcase", nil)
	if root.XMLName.Local == "testcase" {
		cases = append([]*node{&root}, cases...)
	}

	for _, tc := range cases {
		c := Case{
			Name:      attrOr(tc, "name", "Unknown"),
			ClassName: attrOr(tc, "classname", "Unknown"),
			Time:      floatAttr(tc, "time"),
			Status:    StatusPassed,
		}

		failure := tc.child("failure")
		if failure == nil {
			failure = tc.child("error")
		}

		switch {
		case failure != nil:
			c.Status = StatusFailed
			s.FailedCases = append(s.FailedCases, FailedCase{
				Name:      c.Name,
				ClassName: c.ClassName,
				Message:   failureMessage(failure),
			})
		case tc.child("skipped") != nil:
			c.Status = StatusSkipped
		}

		s.Cases = append(s.Cases, c)
	}

	return s, nil
}

func failureMessage(n *node) string {
	msg := strings.TrimSpace(n.Text)
	if msg == "" {
		msg, _ = n.attr("message")
	}
	if msg == "" {
		return "No message"
	}
	if runes := []rune(msg); len(runes) > maxMessageLength {
		msg = string(runes[:maxMessageLength])
	}
	return msg
}

func attrOr(n *node, name, fallback string) string {
	if v, ok := n.attr(name); ok {
		return v
	}
	return fallback
}

func intAttr(n *node, name string) int {
	v, ok := n.attr(name)
	if !ok {
		return 0
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return i
}

func floatAttr(n *node, name string) float64 {
	v, ok := n.attr(name)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}
