package index

import "sync/atomic"

// Handle is the process-wide holder of the current snapshot. Readers get an
// immutable snapshot and never see a partially built one; publishing a new
// build is a single pointer swap.
type Handle struct {
	cur atomic.Pointer[Snapshot]
}

// NewHandle creates a handle holding snap, which may be nil when no index has
// been built yet.
func NewHandle(snap *Snapshot) *Handle {
	h := &Handle{}
	if snap != nil {
		h.cur.Store(snap)
	}
	return h
}

// Current returns the published snapshot or nil.
func (h *Handle) Current() *Snapshot { return h.cur.Load() }

// Publish swaps in snap and returns the previous snapshot.
func (h *Handle) Publish(snap *Snapshot) *Snapshot { return h.cur.Swap(snap) }

// Reset drops the published snapshot.
func (h *Handle) Reset() { h.cur.Store(nil) }
