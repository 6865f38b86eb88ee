package corpus

// Page is one page of extracted document text.
type Page struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}

// Section is a contiguous, page-bounded span of text opened by one heading code.
// Section IDs are not unique: the same code may appear in a table of contents and
// again in the body.
type Section struct {
	ID        string `json:"section_id"`
	PageStart int    `json:"page_start"`
	PageEnd   int    `json:"page_end"`
	Text      string `json:"text"`
}

// Chunk is a bounded sub-span of a section's text, sized for embedding.
type Chunk struct {
	SectionID string `json:"section_id"`
	PageStart int    `json:"page_start"`
	PageEnd   int    `json:"page_end"`
	Content   string `json:"content"`
	Size      int    `json:"size"` // Length in chunker units.
}

// Record is the persisted metadata for one vector row. ID always equals the row.
type Record struct {
	ID        int    `json:"id"`
	SectionID string `json:"section_id"`
	PageStart int    `json:"page_start"`
	PageEnd   int    `json:"page_end"`
	Content   string `json:"content"`
	Size      int    `json:"size"`
}

// RecordFor builds the metadata record for the chunk stored at row.
func RecordFor(row int, c Chunk) Record {
	return Record{
		ID:        row,
		SectionID: c.SectionID,
		PageStart: c.PageStart,
		PageEnd:   c.PageEnd,
		Content:   c.Content,
		Size:      c.Size,
	}
}
