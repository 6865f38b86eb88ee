package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
)

func TestMarkdownParser_ThematicBreaksSplitPages(t *testing.T) {
	input := `# 100 GENERAL PROVISIONS

Intro text.

---

- first item
- second item

***

## 100.01 SCOPE

Scope text.
`
	pages, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "spec.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d: %+v", len(pages), pages)
	}
	if pages[0].Text != "100 GENERAL PROVISIONS\nIntro text." {
		t.Errorf("page 1: got %q", pages[0].Text)
	}
	if !strings.Contains(pages[1].Text, "first item") || !strings.Contains(pages[1].Text, "second item") {
		t.Errorf("page 2: expected list items, got %q", pages[1].Text)
	}
	if pages[2].Number != 3 || pages[2].Text != "100.01 SCOPE\nScope text." {
		t.Errorf("page 3: got %+v", pages[2])
	}
}

func TestMarkdownParser_NoBreaks(t *testing.T) {
	pages, err := (&MarkdownParser{}).Parse(strings.NewReader("Just a paragraph\nwrapped."), "a.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].Text != "Just a paragraph wrapped." {
		t.Errorf("unexpected text %q", pages[0].Text)
	}
}

func TestMarkdownParser_CodeBlockText(t *testing.T) {
	input := "Table:\n\n```\n401 HOT MIX\n```\n"
	pages, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "a.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(pages[0].Text, "401 HOT MIX") {
		t.Errorf("expected code block text, got %q", pages[0].Text)
	}
}

func TestHTMLParser_PageDivs(t *testing.T) {
	input := `<html><head><title>Spec</title><style>p{}</style></head><body>
<div class="page" id="p1"><h2>100 GENERAL PROVISIONS</h2><p>lorem</p></div>
<div class="page"><p>ipsum</p><script>var x;</script></div>
</body></html>`
	pages, err := (&HTMLParser{}).Parse(strings.NewReader(input), "spec.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0].Text != "100 GENERAL PROVISIONS\nlorem" {
		t.Errorf("page 1: got %q", pages[0].Text)
	}
	if pages[1].Number != 2 || pages[1].Text != "ipsum" {
		t.Errorf("page 2: got %+v", pages[1])
	}
}

func TestHTMLParser_BodyFallback(t *testing.T) {
	input := `<html><body><nav>menu</nav><p>One</p><p>Two<br>lines</p></body></html>`
	pages, err := (&HTMLParser{}).Parse(strings.NewReader(input), "a.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if strings.Contains(pages[0].Text, "menu") {
		t.Errorf("nav text should be skipped, got %q", pages[0].Text)
	}
	if pages[0].Text != "One\nTwo\nlines" {
		t.Errorf("unexpected text %q", pages[0].Text)
	}
}

func TestDOCXParser_PageBreaks(t *testing.T) {
	doc := docx.New()
	doc.AddParagraph().AddText("100 GENERAL PROVISIONS")
	doc.AddParagraph().AddText("lorem")
	doc.AddParagraph().AddPageBreaks()
	doc.AddParagraph().AddText("ipsum")

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}

	pages, err := (&DOCXParser{}).Parse(&buf, "spec.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d: %+v", len(pages), pages)
	}
	if pages[0].Text != "100 GENERAL PROVISIONS\nlorem" {
		t.Errorf("page 1: got %q", pages[0].Text)
	}
	if pages[1].Number != 2 || pages[1].Text != "ipsum" {
		t.Errorf("page 2: got %+v", pages[1])
	}
}
