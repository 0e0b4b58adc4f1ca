package scene

import (
	"slices"

	"github.com/chazu/platen/pkg/graph"
)

// DefaultHistoryLimit is the number of edits kept for undo.
const DefaultHistoryLimit = 100

// rec is one undoable edit. The selection is captured on both sides so
// undo and redo restore it exactly.
type rec struct {
	action    string
	undo      func() error
	redo      func() error
	selBefore []*graph.Node
	selAfter  []*graph.Node
}

// history is a linear undo stack. idx is the number of records that are
// currently applied; records past idx can be redone.
type history struct {
	recs  []*rec
	idx   int
	limit int
}

// push appends r after the applied records, discarding the redo tail and
// the oldest record when over the limit.
func (h *history) push(r *rec) {
	h.recs = append(h.recs[:h.idx], r)
	if h.limit > 0 && len(h.recs) > h.limit {
		h.recs = slices.Delete(h.recs, 0, len(h.recs)-h.limit)
	}
	h.idx = len(h.recs)
}

func (h *history) canUndo() bool { return h.idx > 0 }
func (h *history) canRedo() bool { return h.idx < len(h.recs) }

func (h *history) reset() {
	h.recs = nil
	h.idx = 0
}

// labels returns the action names, oldest first.
func (h *history) labels() []string {
	out := make([]string, len(h.recs))
	for i, r := range h.recs {
		out[i] = r.action
	}
	return out
}
