package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/specassist/internal/corpus"
)

// DOCXParser handles .docx files. Explicit page breaks separate pages;
// every paragraph is one line of page text.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) ([]corpus.Page, error) {
	// go-docx needs a ReaderAt+size, so write to temp file.
	tmp, err := os.CreateTemp("", "specassist-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var pages []string
	var current strings.Builder
	writeLine := func(s string) {
		if s = strings.TrimSpace(s); s == "" {
			return
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(s)
	}

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		var line strings.Builder
		for _, child := range para.Children {
			run, ok := child.(*docx.Run)
			if !ok {
				continue
			}
			for _, rc := range run.Children {
				switch v := rc.(type) {
				case *docx.Text:
					line.WriteString(v.Text)
				case *docx.BarterRabbet:
					if v.Type != "page" {
						line.WriteString(" ")
						continue
					}
					writeLine(line.String())
					line.Reset()
					pages = append(pages, current.String())
					current.Reset()
				}
			}
		}
		writeLine(line.String())
	}
	pages = append(pages, current.String())

	return numberPages(pages), nil
}
