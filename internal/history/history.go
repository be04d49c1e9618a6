// Package history implements page-scoped undo and redo for editor books.
//
// An Entry stores deep clones of only the pages an action touched plus the
// book's metadata, so taking one costs the same for a 30-page and a 300-page
// book. Restoring overlays those clones onto the live page array; every other
// page is left shared with the live book.
package history

import (
	"slices"

	"photobook/internal/editor"
)

// DefaultMaxEntries caps the stack when New is given a non-positive limit.
const DefaultMaxEntries = 100

type pageSnapshot struct {
	index int
	page  *editor.Page
}

// Entry is one undo step.
type Entry struct {
	meta editor.Book
	// pages is ordered by index; used for non-structural entries.
	pages []pageSnapshot
	// structure holds the full page array of a structural entry.
	structure []*editor.Page
	// structural is kept separately so an empty book can be recorded too.
	structural bool
}

// Snapshot records the metadata of book and a deep clone of every page in
// indexes. Indexes that are out of range are skipped.
func Snapshot(book *editor.Book, indexes []int) Entry {
	e := Entry{meta: book.Meta()}
	for _, i := range indexes {
		if i < 0 || i >= len(book.Pages) || book.Pages[i] == nil {
			continue
		}
		if slices.ContainsFunc(e.pages, func(s pageSnapshot) bool { return s.index == i }) {
			continue
		}
		e.pages = append(e.pages, pageSnapshot{index: i, page: book.Pages[i].Clone()})
	}
	return e
}

// StructuralSnapshot records the whole page array, for actions that add,
// remove or reorder pages.
func StructuralSnapshot(book *editor.Book) Entry {
	e := Entry{meta: book.Meta(), structural: true}
	e.structure = make([]*editor.Page, len(book.Pages))
	for i, p := range book.Pages {
		e.structure[i] = p.Clone()
	}
	return e
}

// Structural reports whether the entry replaces the page array wholesale.
func (e Entry) Structural() bool { return e.structural }

// PageIndexes lists the page indexes a non-structural entry restores.
func (e Entry) PageIndexes() []int {
	out := make([]int, len(e.pages))
	for i, s := range e.pages {
		out[i] = s.index
	}
	return out
}

// Restore returns live with the entry applied. Snapshot pages are cloned
// again so the entry never shares a page with the book it produces. A page
// snapshot is skipped when its index is out of range or now holds a
// different page.
func (e Entry) Restore(live *editor.Book) *editor.Book {
	if e.structural {
		pages := make([]*editor.Page, len(e.structure))
		for i, p := range e.structure {
			pages[i] = p.Clone()
		}
		restored := e.meta
		return restored.WithPages(pages)
	}

	pages := live.Pages
	copied := false
	for _, s := range e.pages {
		if s.index >= len(pages) || pages[s.index] == nil || pages[s.index].ID != s.page.ID {
			continue
		}
		if !copied {
			pages = slices.Clone(pages)
			copied = true
		}
		pages[s.index] = s.page.Clone()
	}
	restored := e.meta
	return restored.WithPages(pages)
}

// counterpart snapshots live the same way e was taken, giving the entry that
// reverses e.Restore.
func (e Entry) counterpart(live *editor.Book) Entry {
	if e.structural {
		return StructuralSnapshot(live)
	}
	return Snapshot(live, e.PageIndexes())
}

// History is a linear undo stack. Entries at or after the cursor are redo
// steps; Push discards them.
type History struct {
	entries []Entry
	cursor  int
	max     int
}

func New(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &History{max: maxEntries}
}

// Push records the state before a mutating action.
func (h *History) Push(e Entry) {
	h.entries = append(h.entries[:h.cursor], e)
	if len(h.entries) > h.max {
		drop := len(h.entries) - h.max
		h.entries = slices.Delete(h.entries, 0, drop)
	}
	h.cursor = len(h.entries)
}

// Undo restores the most recent entry onto live. The entry is replaced by a
// snapshot of live so Redo can reverse it.
func (h *History) Undo(live *editor.Book) (*editor.Book, bool) {
	if !h.CanUndo() || live == nil {
		return live, false
	}
	h.cursor--
	e := h.entries[h.cursor]
	h.entries[h.cursor] = e.counterpart(live)
	return e.Restore(live), true
}

// Redo re-applies the entry most recently undone.
func (h *History) Redo(live *editor.Book) (*editor.Book, bool) {
	if !h.CanRedo() || live == nil {
		return live, false
	}
	e := h.entries[h.cursor]
	h.entries[h.cursor] = e.counterpart(live)
	h.cursor++
	return e.Restore(live), true
}

func (h *History) CanUndo() bool { return h.cursor > 0 }

func (h *History) CanRedo() bool { return h.cursor < len(h.entries) }

func (h *History) Cursor() int { return h.cursor }

func (h *History) Len() int { return len(h.entries) }

// Reset drops every entry.
func (h *History) Reset() {
	h.entries = nil
	h.cursor = 0
}
