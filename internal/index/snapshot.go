// Package index builds, persists and publishes vector snapshots: a vector
// matrix and a metadata array whose rows always describe the same chunk.
package index

import (
	"fmt"
	"time"

	"github.com/dgallion1/specassist/internal/corpus"
)

// Manifest records everything needed to interpret a snapshot at query time.
type Manifest struct {
	BuildID        string    `json:"build_id"`
	Metric         Metric    `json:"metric"`
	Dimension      int       `json:"dimension"`
	Count          int       `json:"count"`
	Normalized     bool      `json:"normalized"`
	EmbeddingModel string    `json:"embedding_model"`
	ChunkUnit      string    `json:"chunk_unit,omitempty"`
	ChunkMaxSize   int       `json:"chunk_max_size,omitempty"`
	ChunkOverlap   int       `json:"chunk_overlap,omitempty"`
	CreatedAt      time.Time `json:"created_at"`

	// Checksums of the saved files, set by Save.
	MetadataSHA256 string `json:"metadata_sha256,omitempty"`
	VectorsSHA256  string `json:"vectors_sha256,omitempty"`
}

// Snapshot is one immutable build. Never mutate a snapshot after it has been
// published; build a new one instead.
type Snapshot struct {
	Manifest Manifest
	Vectors  [][]float32
	Records  []corpus.Record
}

// Len is the number of rows.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Validate checks row alignment between vectors, metadata and manifest.
func (s *Snapshot) Validate() error {
	if len(s.Vectors) != len(s.Records) {
		return fmt.Errorf("%w: %d vectors, %d records", corpus.ErrLengthMismatch, len(s.Vectors), len(s.Records))
	}
	if s.Manifest.Count != len(s.Records) {
		return fmt.Errorf("%w: manifest count %d, %d records", corpus.ErrLengthMismatch, s.Manifest.Count, len(s.Records))
	}
	if _, err := ParseMetric(string(s.Manifest.Metric)); err != nil {
		return err
	}
	for i, v := range s.Vectors {
		if len(v) != s.Manifest.Dimension {
			return fmt.Errorf("%w: row %d has %d values, manifest says %d", corpus.ErrDimensionMismatch, i, len(v), s.Manifest.Dimension)
		}
		if s.Records[i].ID != i {
			return fmt.Errorf("%w: record at row %d has id %d", corpus.ErrValidation, i, s.Records[i].ID)
		}
	}
	return nil
}
