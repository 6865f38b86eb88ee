package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/bbalet/stopwords"
)

// HashEmbedder is a local, deterministic bag-of-words embedder. Tokens are
// lowercased, stop words removed and each token plus each adjacent pair is
// hashed into one of Dim buckets with a hash-derived sign. It needs no network
// and gives stable vectors for offline builds and tests.
type HashEmbedder struct {
	dim int
}

func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 384
	}
	return &HashEmbedder{dim: dim}
}

func (h *HashEmbedder) Dimension() int { return h.dim }
func (h *HashEmbedder) Model() string  { return fmt.Sprintf("hash-%d", h.dim) }

func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v := make([]float32, h.dim)
	tokens := Tokens(text)
	for i, tok := range tokens {
		h.add(v, tok, 1)
		if i > 0 {
			h.add(v, tokens[i-1]+" "+tok, 0.5)
		}
	}
	return v, nil
}

func (h *HashEmbedder) add(v []float32, feature string, weight float32) {
	f := fnv.New64a()
	f.Write([]byte(feature))
	sum := f.Sum64()
	idx := int(sum % uint64(h.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	v[idx] += weight
}

// Tokens lowercases text, splits it into words and section-code-like tokens
// and drops English stop words. Tokens containing a digit are always kept.
func Tokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r == '.' || r == '(' || r == ')' || unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".")
		if strings.HasPrefix(f, "(") || !strings.Contains(f, "(") {
			f = strings.Trim(f, "()")
		}
		if f == "" {
			continue
		}
		if strings.IndexFunc(f, unicode.IsDigit) < 0 && strings.TrimSpace(stopwords.CleanString(f, "en", false)) == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}
