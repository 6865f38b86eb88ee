package corpus

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

func TestJSONL_SectionsKeepFieldNames(t *testing.T) {
	var buf bytes.Buffer
	secs := []Section{{ID: "401.03(A)", PageStart: 12, PageEnd: 13, Text: " a < b & c"}}
	if err := WriteJSONL(&buf, secs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"section_id":"401.03(A)","page_start":12,"page_end":13,"text":" a < b & c"}` + "\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestJSONL_ReadSkipsBlankLines(t *testing.T) {
	input := "{\"page\":1,\"text\":\"one\"}\n\n   \n{\"page\":2,\"text\":\"two\"}\n"
	pages, err := ReadJSONL[Page](strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[1].Number != 2 || pages[1].Text != "two" {
		t.Errorf("unexpected second page %+v", pages[1])
	}
}

func TestJSONL_ReadReportsLine(t *testing.T) {
	_, err := ReadJSONL[Page](strings.NewReader("{\"page\":1}\n{broken\n"))
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected error to name line 2, got %v", err)
	}
}

func TestJSONL_FileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "metadata.jsonl")
	recs := []Record{RecordFor(0, Chunk{SectionID: "100", PageStart: 1, PageEnd: 3, Content: "x", Size: 1})}
	if err := WriteJSONLFile(path, recs); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadJSONLFile[Record](path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 || got[0] != recs[0] {
		t.Errorf("expected %+v, got %+v", recs, got)
	}
}

func TestErrors_Kinds(t *testing.T) {
	if !errors.Is(ErrEmptyIndex, ErrValidation) {
		t.Error("expected ErrEmptyIndex to be a validation error")
	}
	if errors.Is(ErrEmptyIndex, ErrExternal) {
		t.Error("validation error must not be external")
	}

	err := fmt.Errorf("answer: %w", External("generate", errors.New("connection refused")))
	if !errors.Is(err, ErrExternal) {
		t.Error("expected wrapped external error to match ErrExternal")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("external error must not be a validation error")
	}
	if IsRetryable(err) {
		t.Error("External() errors are not retryable")
	}
	if !IsRetryable(&ExternalError{Op: "embed", StatusCode: 503, Retryable: true, Err: errors.New("busy")}) {
		t.Error("expected retryable external error")
	}
	if External("embed", nil) != nil {
		t.Error("expected nil for nil input")
	}
}
