package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/specassist/internal/corpus"
)

// Unit is the sizing unit for chunk windows.
type Unit string

const (
	UnitWord Unit = "word" // Whitespace-separated fields.
	UnitRune Unit = "rune" // Unicode code points.
)

// ParseUnit accepts "word", "rune" or the aliases "token" and "char".
// An empty string means UnitWord.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "word", "words", "token", "tokens":
		return UnitWord, nil
	case "rune", "runes", "char", "chars", "character", "characters":
		return UnitRune, nil
	}
	return "", fmt.Errorf("%w: unknown chunk unit %q", corpus.ErrValidation, s)
}

// CountUnits reports the length of text in unit.
func CountUnits(text string, unit Unit) int {
	if unit == UnitRune {
		return utf8.RuneCountInString(text)
	}
	return len(strings.Fields(text))
}

type unitSeq struct {
	parts []string
	sep   string
}

func (u unitSeq) join(start, end int) string {
	return strings.Join(u.parts[start:end], u.sep)
}

func unitsOf(text string, unit Unit) unitSeq {
	if unit == UnitRune {
		parts := make([]string, 0, len(text))
		for _, r := range text {
			parts = append(parts, string(r))
		}
		return unitSeq{parts: parts}
	}
	return unitSeq{parts: strings.Fields(text), sep: " "}
}
