package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/specassist/internal/corpus"
)

func TestTextParser_FormFeedPages(t *testing.T) {
	input := "100 GENERAL PROVISIONS\nlorem\fipsum\r\n\f100.01 SCOPE dolor\f"
	pages, err := (&TextParser{}).Parse(strings.NewReader(input), "spec.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	want := []corpus.Page{
		{Number: 1, Text: "100 GENERAL PROVISIONS\nlorem"},
		{Number: 2, Text: "ipsum\n"},
		{Number: 3, Text: "100.01 SCOPE dolor"},
	}
	for i, w := range want {
		if pages[i] != w {
			t.Errorf("page[%d]: expected %+v, got %+v", i, w, pages[i])
		}
	}
}

func TestTextParser_SinglePage(t *testing.T) {
	pages, err := (&TextParser{}).Parse(strings.NewReader("Hello world"), "single.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 || pages[0].Number != 1 || pages[0].Text != "Hello world" {
		t.Errorf("unexpected pages %+v", pages)
	}
}

func TestPagesParser_ReadsJSONL(t *testing.T) {
	input := `{"page":3,"text":"a"}` + "\n" + `{"page":4,"text":"b"}` + "\n"
	pages, err := (&PagesParser{}).Parse(strings.NewReader(input), "pages.jsonl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 2 || pages[0].Number != 3 || pages[1].Text != "b" {
		t.Errorf("unexpected pages %+v", pages)
	}
}

func TestCleaner_DropsHeadersAndFooters(t *testing.T) {
	page := "2019 Standard Specifications for Road and Bridge Construction\n" +
		"  401.03   PROCEDURES  \n" +
		"\n" +
		"Compact   the   mixture.\n" +
		"New Jersey Department of Transportation 212\n"
	got := DefaultCleaner().Clean(page)
	want := "401.03 PROCEDURES\nCompact the mixture."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCleaner_Nil(t *testing.T) {
	var c *Cleaner
	if got := c.Clean(" a \r\n\n b\t\tc "); got != "a\nb c" {
		t.Errorf("expected %q, got %q", "a\nb c", got)
	}
}

func TestNewCleaner_BadPattern(t *testing.T) {
	if _, err := NewCleaner("("); err == nil {
		t.Fatal("expected error for invalid regex")
	}
}

func TestExtract_CleansAndDropsEmptyPages(t *testing.T) {
	input := "100 GENERAL\nbody\f2019 STANDARD SPECIFICATIONS\f101 SCOPE\nmore"
	pages, err := Extract(strings.NewReader(input), "spec.txt", Options{}, DefaultCleaner())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []corpus.Page{
		{Number: 1, Text: "100 GENERAL\nbody"},
		{Number: 3, Text: "101 SCOPE\nmore"},
	}
	if len(pages) != len(want) {
		t.Fatalf("expected %d pages, got %d: %+v", len(want), len(pages), pages)
	}
	for i, w := range want {
		if pages[i] != w {
			t.Errorf("page[%d]: expected %+v, got %+v", i, w, pages[i])
		}
	}
}

func TestForFile_Unsupported(t *testing.T) {
	_, err := ForFile("data.xlsx", Options{})
	if !errors.Is(err, corpus.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if IsSupportedExtension("data.xlsx") {
		t.Error("xlsx should not be supported")
	}
	if !IsSupportedExtension("Spec.PDF") {
		t.Error("pdf should be supported regardless of case")
	}
}
