// Package carousel keeps a fixed-size visible slice over an ordered collection.
package carousel

import "sync"

// State is a point-in-time view of a window.
type State struct {
	Start    int `json:"start"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// Window tracks the start index of the visible page. Start always satisfies
// 0 <= Start <= max(0, Total-PageSize).
type Window struct {
	mu       sync.Mutex
	start    int
	pageSize int
	total    int
}

// New returns a window showing pageSize items. Non-positive sizes become 1.
func New(pageSize int) *Window {
	if pageSize <= 0 {
		pageSize = 1
	}
	return &Window{pageSize: pageSize}
}

// SetTotal records the collection size and clamps the start index.
func (w *Window) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.total = total
	w.clamp()
}

// ShiftLeft moves one item towards the beginning; no effect at the floor.
func (w *Window) ShiftLeft() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.start--
	w.clamp()
}

// ShiftRight moves one item towards the end; no effect at the ceiling.
func (w *Window) ShiftRight() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.start++
	w.clamp()
}

// Reset returns to the first page.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.start = 0
}

// CanShiftLeft reports whether ShiftLeft would move the window.
func (w *Window) CanShiftLeft() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.start > 0
}

// CanShiftRight reports whether ShiftRight would move the window.
func (w *Window) CanShiftRight() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.start < w.ceiling()
}

// State returns the current bounds.
func (w *Window) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{Start: w.start, PageSize: w.pageSize, Total: w.total}
}

func (w *Window) ceiling() int {
	if c := w.total - w.pageSize; c > 0 {
		return c
	}
	return 0
}

func (w *Window) clamp() {
	if w.start > w.ceiling() {
		w.start = w.ceiling()
	}
	if w.start < 0 {
		w.start = 0
	}
}

// Visible returns the page of items the window points at. The window total is
// synced to len(items) first, so a collection that shrank since the last call
// is clamped rather than overrun. The returned slice aliases items.
func Visible[T any](w *Window, items []T) []T {
	start, end := w.bounds(len(items))
	return items[start:end]
}

func (w *Window) bounds(total int) (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.total = total
	w.clamp()
	end := w.start + w.pageSize
	if end > total {
		end = total
	}
	return w.start, end
}
