package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/specassist/internal/corpus"
)

// TextParser handles plain text files. Form feeds separate pages, as in
// pdftotext output; text without form feeds is a single page.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) ([]corpus.Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\f")
	return numberPages(strings.Split(text, "\f")), nil
}

// PagesParser reads pages.jsonl as written by the extraction step.
type PagesParser struct{}

func (p *PagesParser) Parse(r io.Reader, filename string) ([]corpus.Page, error) {
	return corpus.ReadJSONL[corpus.Page](r)
}
