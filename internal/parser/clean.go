package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// Running header and footer lines of the NJDOT 2019 specifications.
const (
	DefaultHeaderPattern = `(?i)2019 STANDARD SPECIFICATIONS.*`
	DefaultFooterPattern = `(?i)NEW JERSEY DEPARTMENT OF TRANSPORTATION.*`
)

var multiSpace = regexp.MustCompile(`\s{2,}`)

// Cleaner drops running header and footer lines from page text and
// normalises whitespace inside the remaining lines. Line breaks survive so
// headings can be matched at the start of a line.
type Cleaner struct {
	drop []*regexp.Regexp
}

// NewCleaner compiles the given line patterns. Empty patterns are skipped.
func NewCleaner(patterns ...string) (*Cleaner, error) {
	c := &Cleaner{}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile line pattern %q: %w", p, err)
		}
		c.drop = append(c.drop, re)
	}
	return c, nil
}

// DefaultCleaner drops the default header and footer lines.
func DefaultCleaner() *Cleaner {
	c, _ := NewCleaner(DefaultHeaderPattern, DefaultFooterPattern)
	return c
}

// Clean removes matching lines and blank lines, trims the rest and collapses
// runs of whitespace inside each line. A nil Cleaner only normalises.
func (c *Cleaner) Clean(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if c != nil && c.matches(line) {
			continue
		}
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, multiSpace.ReplaceAllString(line, " "))
		}
	}
	return strings.Join(kept, "\n")
}

func (c *Cleaner) matches(line string) bool {
	for _, re := range c.drop {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
