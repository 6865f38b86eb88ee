package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/specassist/internal/corpus"
	"github.com/dgallion1/specassist/internal/parser"
	"github.com/dgallion1/specassist/internal/pipeline"
)

type sectionSummary struct {
	ID        string `json:"section_id"`
	PageStart int    `json:"page_start"`
	PageEnd   int    `json:"page_end"`
	Chunks    int    `json:"chunks"`
}

// handleIndexInfo describes the published snapshot.
func (s *Server) handleIndexInfo(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Handle.Current()
	if snap == nil {
		jsonError(w, corpus.ErrEmptyIndex.Error(), http.StatusServiceUnavailable)
		return
	}

	var sections []sectionSummary
	pos := make(map[string]int)
	for _, rec := range snap.Records {
		i, ok := pos[rec.SectionID]
		if !ok {
			i = len(sections)
			pos[rec.SectionID] = i
			sections = append(sections, sectionSummary{ID: rec.SectionID, PageStart: rec.PageStart, PageEnd: rec.PageEnd})
		}
		sections[i].Chunks++
		sections[i].PageStart = min(sections[i].PageStart, rec.PageStart)
		sections[i].PageEnd = max(sections[i].PageEnd, rec.PageEnd)
	}

	body := map[string]any{
		"manifest": snap.Manifest,
		"sections": sections,
	}
	if s.deps.Orchestrator != nil {
		body["queue_depth"] = s.deps.Orchestrator.QueueDepth()
	}
	writeJSON(w, http.StatusOK, body)
}

// handleIndexUpload queues a rebuild from an uploaded document.
func (s *Server) handleIndexUpload(w http.ResponseWriter, r *http.Request) {
	if s.deps.Orchestrator == nil {
		jsonError(w, "index rebuilds are disabled", http.StatusServiceUnavailable)
		return
	}
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	job := pipeline.NewJob(filename, data)
	if err := s.deps.Orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/index/jobs/%s", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Orchestrator == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	job := s.deps.Orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleSectionChunks lists every chunk of one section in row order.
func (s *Server) handleSectionChunks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sectionID")
	snap := s.deps.Handle.Current()
	if snap == nil {
		jsonError(w, corpus.ErrEmptyIndex.Error(), http.StatusServiceUnavailable)
		return
	}
	var chunks []corpus.Record
	for _, rec := range snap.Records {
		if rec.SectionID == id {
			chunks = append(chunks, rec)
		}
	}
	if len(chunks) == 0 {
		jsonError(w, fmt.Sprintf("no chunks for section %s", id), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"section_id": id,
		"build_id":   snap.Manifest.BuildID,
		"chunks":     chunks,
	})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
