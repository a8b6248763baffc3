package targeting

import (
	"slices"

	"github.com/OCAP2/unitcore/pkg/core"
)

// DefaultHistorySize is used when a history is created with a non-positive size.
const DefaultHistorySize = 8

// History is a bounded recency list of previously selected targets,
// most recent first. It is not safe for concurrent use.
type History struct {
	size    int
	handles []core.Handle
}

// NewHistory creates an empty history holding at most size handles.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{size: size}
}

// Record moves h to the front, dropping the oldest entry when full.
func (h *History) Record(handle core.Handle) {
	if handle == 0 {
		return
	}
	h.Forget(handle)
	h.handles = slices.Insert(h.handles, 0, handle)
	if len(h.handles) > h.size {
		h.handles = h.handles[:h.size]
	}
}

// Forget removes handle from the history.
func (h *History) Forget(handle core.Handle) {
	h.handles = slices.DeleteFunc(h.handles, func(x core.Handle) bool { return x == handle })
}

// Handles returns a copy of the history, most recent first.
func (h *History) Handles() []core.Handle {
	return slices.Clone(h.handles)
}

// Len returns the number of remembered handles.
func (h *History) Len() int { return len(h.handles) }
