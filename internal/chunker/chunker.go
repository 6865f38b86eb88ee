package chunker

import (
	"fmt"

	"github.com/dgallion1/specassist/internal/corpus"
)

// ErrInvalidConfig is returned before any work when the window cannot advance.
var ErrInvalidConfig = fmt.Errorf("%w: chunk overlap must be >= 0 and < max size", corpus.ErrValidation)

// Config controls chunking behavior. MaxSize and Overlap are measured in Unit.
type Config struct {
	MaxSize int  // Units per chunk.
	Overlap int  // Units shared by consecutive chunks.
	Unit    Unit // Sizing unit, fixed for a whole build.
}

// DefaultConfig returns the word-based 256/50 window.
func DefaultConfig() Config {
	return Config{
		MaxSize: 256,
		Overlap: 50,
		Unit:    UnitWord,
	}
}

// Validate checks that the window advances on every step.
func (c Config) Validate() error {
	if c.MaxSize <= 0 {
		return fmt.Errorf("%w (max size %d)", ErrInvalidConfig, c.MaxSize)
	}
	if c.Overlap < 0 || c.Overlap >= c.MaxSize {
		return fmt.Errorf("%w (overlap %d, max size %d)", ErrInvalidConfig, c.Overlap, c.MaxSize)
	}
	if _, err := ParseUnit(string(c.Unit)); err != nil {
		return err
	}
	return nil
}

// Span is one window over a unit sequence, [Start, End).
type Span struct {
	Start   int
	End     int
	Content string
}

// Size is the span length in units.
func (s Span) Size() int { return s.End - s.Start }

// Split slides a MaxSize window over text, advancing MaxSize-Overlap units at a
// time, until a window reaches the last unit. Empty text yields no spans.
func Split(text string, cfg Config) ([]Span, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	units := unitsOf(text, cfg.Unit)
	n := len(units.parts)
	if n == 0 {
		return nil, nil
	}

	step := cfg.MaxSize - cfg.Overlap
	var spans []Span
	for start := 0; ; start += step {
		end := min(start+cfg.MaxSize, n)
		spans = append(spans, Span{Start: start, End: end, Content: units.join(start, end)})
		if end == n {
			break
		}
	}
	return spans, nil
}

// ChunkSection splits one section, copying its id and page range onto every chunk.
func ChunkSection(sec corpus.Section, cfg Config) ([]corpus.Chunk, error) {
	spans, err := Split(sec.Text, cfg)
	if err != nil {
		return nil, err
	}
	chunks := make([]corpus.Chunk, 0, len(spans))
	for _, sp := range spans {
		chunks = append(chunks, corpus.Chunk{
			SectionID: sec.ID,
			PageStart: sec.PageStart,
			PageEnd:   sec.PageEnd,
			Content:   sp.Content,
			Size:      sp.Size(),
		})
	}
	return chunks, nil
}

// ChunkSections chunks every section in order. Sections with no text produce no chunks.
func ChunkSections(secs []corpus.Section, cfg Config) ([]corpus.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var out []corpus.Chunk
	for i, sec := range secs {
		chunks, err := ChunkSection(sec, cfg)
		if err != nil {
			return nil, fmt.Errorf("section %d (%s): %w", i, sec.ID, err)
		}
		out = append(out, chunks...)
	}
	return out, nil
}

