// Package segment turns an ordered page stream into a flat sequence of
// sections, one per heading code found in the text.
package segment

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/specassist/internal/corpus"
)

// Default heading patterns. The first capture group is the section id.
// Headings start a line and their titles are whole uppercase words on that
// line. Order matters for ties at the same offset: the most specific code wins.
var (
	SubcodePattern    = regexp.MustCompile(`(?m)^([1-9]\d{2}\.\d{2}\([A-Z0-9]\))`)
	MajorMinorPattern = regexp.MustCompile(`(?m)^([1-9]\d{2}\.\d{2})[ \t]+[A-Z]+(?:[ \t]+[A-Z]+)*\b`)
	MajorPattern      = regexp.MustCompile(`(?m)^([1-9]\d{2})[ \t]+[A-Z]+(?:[ \t]+[A-Z]+)*\b`)
)

// DefaultPatterns returns the subcode, major.minor and major heading patterns.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{SubcodePattern, MajorMinorPattern, MajorPattern}
}

// Segmenter splits pages into sections at heading matches.
type Segmenter struct {
	patterns []*regexp.Regexp
	preamble string
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithPatterns replaces the heading patterns. Each must have at least one
// capture group; earlier patterns win ties at the same offset.
func WithPatterns(patterns ...*regexp.Regexp) Option {
	return func(s *Segmenter) { s.patterns = patterns }
}

// WithPreamble keeps text found before the first heading in a synthetic
// section with the given id instead of dropping it.
func WithPreamble(id string) Option {
	return func(s *Segmenter) { s.preamble = id }
}

// New creates a Segmenter with the default heading patterns.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{patterns: DefaultPatterns()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// heading is one accepted heading match inside a page.
type heading struct {
	start, end int
	id         string
	rank       int // pattern index, for ties
}

// Segment runs one linear pass over pages. Every heading on a page closes the
// open section and opens a new one; the page text, minus its headings, then
// goes to the section open at the end of the page. Pages must be in strictly
// ascending order by number; otherwise no sections are returned.
func (s *Segmenter) Segment(pages []corpus.Page) ([]corpus.Section, error) {
	if err := checkOrder(pages); err != nil {
		return nil, err
	}
	for i, re := range s.patterns {
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("%w: heading pattern %d has no capture group", corpus.ErrValidation, i)
		}
	}

	var (
		out  []corpus.Section
		open *corpus.Section
		text strings.Builder
	)

	closeOpen := func(page int) {
		if open == nil {
			return
		}
		open.PageEnd = page
		open.Text = text.String()
		out = append(out, *open)
		open = nil
		text.Reset()
	}

	for _, p := range pages {
		hs := s.headings(p.Text)
		for _, h := range hs {
			closeOpen(p.Number)
			open = &corpus.Section{ID: h.id, PageStart: p.Number}
		}

		body := stripHeadings(p.Text, hs)
		if body == "" {
			continue
		}
		if open == nil {
			if s.preamble == "" {
				continue
			}
			open = &corpus.Section{ID: s.preamble, PageStart: p.Number}
		}
		text.WriteString(" ")
		text.WriteString(body)
	}
	if len(pages) > 0 {
		closeOpen(pages[len(pages)-1].Number)
	}
	return out, nil
}

// headings pools matches from every pattern, orders them by offset and drops
// any match that starts inside an already accepted one.
func (s *Segmenter) headings(text string) []heading {
	var all []heading
	for rank, re := range s.patterns {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			if m[2] < 0 {
				continue
			}
			all = append(all, heading{start: m[0], end: m[1], id: text[m[2]:m[3]], rank: rank})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		return all[i].rank < all[j].rank
	})

	accepted := all[:0]
	end := -1
	for _, h := range all {
		if h.start < end {
			continue
		}
		accepted = append(accepted, h)
		end = h.end
	}
	return accepted
}

// stripHeadings removes the accepted heading matches from text and joins the
// remaining trimmed fragments with single spaces.
func stripHeadings(text string, hs []heading) string {
	var parts []string
	pos := 0
	for _, h := range hs {
		if f := strings.TrimSpace(text[pos:h.start]); f != "" {
			parts = append(parts, f)
		}
		pos = h.end
	}
	if f := strings.TrimSpace(text[pos:]); f != "" {
		parts = append(parts, f)
	}
	return strings.Join(parts, " ")
}

func checkOrder(pages []corpus.Page) error {
	prev := 0
	for i, p := range pages {
		if p.Number < 1 {
			return fmt.Errorf("%w: page %d at position %d", corpus.ErrUnsortedPages, p.Number, i)
		}
		if p.Number <= prev {
			return fmt.Errorf("%w: page %d follows page %d", corpus.ErrUnsortedPages, p.Number, prev)
		}
		prev = p.Number
	}
	return nil
}
