package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/specassist/internal/corpus"
)

// Parser converts raw document bytes into numbered pages of text.
type Parser interface {
	Parse(r io.Reader, filename string) ([]corpus.Page, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
	".jsonl":    true,
}

// Options tunes format-specific behavior.
type Options struct {
	PDFFallbackPdftotext bool
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".jsonl":
		return &PagesParser{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported file extension: %s", corpus.ErrValidation, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Extract parses r with the parser for filename, cleans every page and drops
// pages left empty. Page numbers keep their physical position.
func Extract(r io.Reader, filename string, opts Options, cleaner *Cleaner) ([]corpus.Page, error) {
	p, err := ForFile(filename, opts)
	if err != nil {
		return nil, err
	}
	pages, err := p.Parse(r, filename)
	if err != nil {
		return nil, err
	}
	out := pages[:0]
	for _, pg := range pages {
		pg.Text = cleaner.Clean(pg.Text)
		if pg.Text == "" {
			continue
		}
		out = append(out, pg)
	}
	return out, nil
}

// numberPages turns raw page texts into pages numbered from 1.
func numberPages(texts []string) []corpus.Page {
	pages := make([]corpus.Page, 0, len(texts))
	for i, t := range texts {
		pages = append(pages, corpus.Page{Number: i + 1, Text: t})
	}
	return pages
}
