package segment

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/specassist/internal/corpus"
)

func TestSegment_SpansPages(t *testing.T) {
	pages := []corpus.Page{
		{Number: 1, Text: "100 GENERAL PROVISIONS lorem"},
		{Number: 2, Text: "ipsum"},
		{Number: 3, Text: "100.01 SCOPE dolor"},
	}

	got, err := New().Segment(pages)
	require.NoError(t, err)
	assert.Equal(t, []corpus.Section{
		{ID: "100", PageStart: 1, PageEnd: 3, Text: " lorem ipsum"},
		{ID: "100.01", PageStart: 3, PageEnd: 3, Text: " dolor"},
	}, got)
}

func TestSegment_TextualOrderNotSpecificity(t *testing.T) {
	// The subcode appears before the major heading on the same page and must
	// open its section first. Both close on this page and the page text goes
	// to the section still open after the last heading.
	pages := []corpus.Page{
		{Number: 4, Text: "901.01(A) tests for aggregate\n902 MATERIALS\ncement"},
	}

	got, err := New().Segment(pages)
	require.NoError(t, err)
	assert.Equal(t, []corpus.Section{
		{ID: "901.01(A)", PageStart: 4, PageEnd: 4, Text: ""},
		{ID: "902", PageStart: 4, PageEnd: 4, Text: " tests for aggregate cement"},
	}, got)
}

func TestSegment_PageTextGoesToLastHeadingOnPage(t *testing.T) {
	pages := []corpus.Page{
		{Number: 1, Text: "300 EARTHWORK\nexcavate"},
		{Number: 2, Text: "intro\n200 MATERIALS\ncement"},
	}

	got, err := New().Segment(pages)
	require.NoError(t, err)
	assert.Equal(t, []corpus.Section{
		{ID: "300", PageStart: 1, PageEnd: 2, Text: " excavate"},
		{ID: "200", PageStart: 2, PageEnd: 2, Text: " intro cement"},
	}, got)
}

func TestSegment_TitleStopsAtLineEnd(t *testing.T) {
	pages := []corpus.Page{
		{Number: 1, Text: "100 GENERAL PROVISIONS\nThe Contractor shall comply."},
		{Number: 2, Text: "100.01 SCOPE OF WORK\nWork Includes all labor."},
	}

	got, err := New().Segment(pages)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, " The Contractor shall comply.", got[0].Text)
	assert.Equal(t, " Work Includes all labor.", got[1].Text)
}

func TestSegment_TitleKeepsOnlyUppercaseWords(t *testing.T) {
	hs := New().headings("401 HOT MIX Asphalt placement")
	require.Len(t, hs, 1)
	assert.Equal(t, "401 HOT MIX", "401 HOT MIX Asphalt placement"[hs[0].start:hs[0].end])
}

func TestSegment_CodesInsideBodyTextAreNotHeadings(t *testing.T) {
	pages := []corpus.Page{
		{Number: 1, Text: "602 PIPE CULVERTS\nInstall pipe as shown."},
		{Number: 2, Text: "Pipe shall be 300 MM DIAMETER minimum. See 601.03 JOINTS and 601.03(B) for seals."},
	}

	got, err := New().Segment(pages)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, corpus.Section{
		ID:        "602",
		PageStart: 1,
		PageEnd:   2,
		Text:      " Install pipe as shown. Pipe shall be 300 MM DIAMETER minimum. See 601.03 JOINTS and 601.03(B) for seals.",
	}, got[0])
}

func TestSegment_RepeatedIDsStayDistinct(t *testing.T) {
	pages := []corpus.Page{
		{Number: 1, Text: "100 GENERAL\ntoc"},
		{Number: 2, Text: "100 GENERAL\nbody text"},
	}

	got, err := New().Segment(pages)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "100", got[0].ID)
	assert.Equal(t, "100", got[1].ID)
	assert.Equal(t, 2, got[0].PageEnd)
	assert.Equal(t, " body text", got[1].Text)
}

func TestSegment_DropsTextBeforeFirstHeading(t *testing.T) {
	pages := []corpus.Page{
		{Number: 1, Text: "Title page"},
		{Number: 2, Text: "foreword\n101 SCOPE\nbody"},
	}

	got, err := New().Segment(pages)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, corpus.Section{ID: "101", PageStart: 2, PageEnd: 2, Text: " foreword body"}, got[0])
}

func TestSegment_PreambleOption(t *testing.T) {
	pages := []corpus.Page{
		{Number: 1, Text: "Title page"},
		{Number: 2, Text: "Contents"},
		{Number: 3, Text: "foreword\n101 SCOPE\nbody"},
	}

	got, err := New(WithPreamble("preamble")).Segment(pages)
	require.NoError(t, err)
	assert.Equal(t, []corpus.Section{
		{ID: "preamble", PageStart: 1, PageEnd: 3, Text: " Title page Contents"},
		{ID: "101", PageStart: 3, PageEnd: 3, Text: " foreword body"},
	}, got)
}

func TestSegment_NoHeadings(t *testing.T) {
	got, err := New().Segment([]corpus.Page{{Number: 1, Text: "nothing here"}})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = New().Segment(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSegment_UnsortedPages(t *testing.T) {
	cases := map[string][]corpus.Page{
		"descending": {{Number: 2, Text: "100 GENERAL a"}, {Number: 1, Text: "b"}},
		"duplicate":  {{Number: 1, Text: "100 GENERAL a"}, {Number: 1, Text: "b"}},
		"zero":       {{Number: 0, Text: "100 GENERAL a"}},
	}
	for name, pages := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := New().Segment(pages)
			require.ErrorIs(t, err, corpus.ErrUnsortedPages)
			assert.ErrorIs(t, err, corpus.ErrValidation)
			assert.Nil(t, got)
		})
	}
}

func TestSegment_CustomPatterns(t *testing.T) {
	art := regexp.MustCompile(`Article (\d+)`)
	pages := []corpus.Page{{Number: 1, Text: "Article 1 first Article 2 second"}}

	got, err := New(WithPatterns(art)).Segment(pages)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Empty(t, got[0].Text)
	assert.Equal(t, "2", got[1].ID)
	assert.Equal(t, " first second", got[1].Text)
}

func TestSegment_PatternWithoutGroup(t *testing.T) {
	_, err := New(WithPatterns(regexp.MustCompile(`Article \d+`))).Segment([]corpus.Page{{Number: 1, Text: "x"}})
	assert.ErrorIs(t, err, corpus.ErrValidation)
}

func TestHeadings_OverlapIgnored(t *testing.T) {
	// "100 GENERAL" also contains a match for the second pattern at offset 4;
	// the later match starts inside the first and is skipped.
	s := New(WithPatterns(
		regexp.MustCompile(`(100) GENERAL`),
		regexp.MustCompile(`(GENERAL)`),
	))
	hs := s.headings("100 GENERAL rest")
	require.Len(t, hs, 1)
	assert.Equal(t, "100", hs[0].id)
}
