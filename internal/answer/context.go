package answer

import (
	"fmt"
	"strings"

	"github.com/dgallion1/specassist/internal/retrieval"
)

// SegmentDelimiter separates context segments.
const SegmentDelimiter = "\n\n----\n\n"

// SegmentHeader labels one context segment with its section id and page range.
func SegmentHeader(sectionID string, pageStart, pageEnd int) string {
	return fmt.Sprintf("[Section %s | pages %d-%d]", sectionID, pageStart, pageEnd)
}

// BuildContext formats hits into one text block, one segment per hit, in
// retrieval rank order.
func BuildContext(hits []retrieval.Hit) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		r := h.Record
		parts = append(parts, SegmentHeader(r.SectionID, r.PageStart, r.PageEnd)+"\n"+strings.TrimSpace(r.Content))
	}
	return strings.Join(parts, SegmentDelimiter)
}
