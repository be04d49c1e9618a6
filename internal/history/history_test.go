package history_test

import (
	"fmt"
	"testing"

	"photobook/internal/ability"
	"photobook/internal/editor"
	"photobook/internal/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookWithPages(n int) *editor.Book {
	b := &editor.Book{ID: "book", Name: "Spring Yearbook", PageSize: "A4", Orientation: "portrait"}
	for i := 1; i <= n; i++ {
		b.Pages = append(b.Pages, &editor.Page{
			ID:         fmt.Sprintf("p%d", i),
			DatabaseID: fmt.Sprintf("p%d", i),
			PageNumber: i,
			Elements: []editor.Element{{
				ID:   fmt.Sprintf("e%d", i),
				Type: editor.KindText,
				Text: fmt.Sprintf("page %d", i),
			}},
		})
	}
	return b
}

func stateWith(n int) editor.State {
	s := editor.NewState(ability.OwnerPermissions("owner"))
	return editor.Reduce(s, editor.SetBook{Book: bookWithPages(n)})
}

func text(s string) *string { return &s }

func TestUndoRedo_RoundTrip(t *testing.T) {
	s := stateWith(4)
	h := history.New(0)

	h.Push(history.Snapshot(s.Book, []int{1}))
	changed := editor.Reduce(s, editor.UpdateElement{ID: "e2", Patch: editor.ElementPatch{Text: text("changed")}})
	require.Equal(t, "changed", changed.Book.Pages[1].Elements[0].Text)

	undone, ok := h.Undo(changed.Book)
	require.True(t, ok)
	assert.Equal(t, "page 2", undone.Pages[1].Elements[0].Text)
	assert.NotSame(t, s.Book.Pages[1], undone.Pages[1])
	for _, i := range []int{0, 2, 3} {
		assert.Same(t, changed.Book.Pages[i], undone.Pages[i], "untouched page %d is shared", i)
	}
	assert.False(t, h.CanUndo())
	assert.True(t, h.CanRedo())

	redone, ok := h.Redo(undone)
	require.True(t, ok)
	assert.Equal(t, "changed", redone.Pages[1].Elements[0].Text)
	assert.Same(t, undone.Pages[0], redone.Pages[0])
	assert.True(t, h.CanUndo())
	assert.False(t, h.CanRedo())

	again, ok := h.Undo(redone)
	require.True(t, ok)
	assert.Equal(t, "page 2", again.Pages[1].Elements[0].Text)
}

func TestUndo_RestoresMetadata(t *testing.T) {
	s := stateWith(2)
	h := history.New(0)

	h.Push(history.Snapshot(s.Book, nil))
	renamed := editor.Reduce(s, editor.UpdateBookSettings{Name: text("Autumn Yearbook")})
	require.Equal(t, "Autumn Yearbook", renamed.Book.Name)

	undone, ok := h.Undo(renamed.Book)
	require.True(t, ok)
	assert.Equal(t, "Spring Yearbook", undone.Name)
	assert.Same(t, renamed.Book.Pages[0], undone.Pages[0])
}

func TestUndo_Structural(t *testing.T) {
	s := stateWith(4)
	h := history.New(0)

	h.Push(history.StructuralSnapshot(s.Book))
	deleted := editor.Reduce(s, editor.DeletePages{Index: 1, Count: 2})
	require.Len(t, deleted.Book.Pages, 2)

	undone, ok := h.Undo(deleted.Book)
	require.True(t, ok)
	require.Len(t, undone.Pages, 4)
	for i, p := range undone.Pages {
		assert.Equal(t, fmt.Sprintf("p%d", i+1), p.ID)
		assert.Equal(t, i+1, p.PageNumber)
	}

	redone, ok := h.Redo(undone)
	require.True(t, ok)
	assert.Len(t, redone.Pages, 2)
}

func TestPush_TruncatesRedoTail(t *testing.T) {
	s := stateWith(2)
	h := history.New(0)

	h.Push(history.Snapshot(s.Book, []int{0}))
	h.Push(history.Snapshot(s.Book, []int{1}))
	_, ok := h.Undo(s.Book)
	require.True(t, ok)
	require.True(t, h.CanRedo())

	h.Push(history.Snapshot(s.Book, []int{0}))
	assert.False(t, h.CanRedo())
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 2, h.Cursor())
}

func TestPush_Cap(t *testing.T) {
	s := stateWith(1)
	h := history.New(3)
	for i := 0; i < 5; i++ {
		h.Push(history.Snapshot(s.Book, []int{0}))
	}
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 3, h.Cursor())

	assert.Equal(t, history.DefaultMaxEntries, func() int {
		d := history.New(0)
		for i := 0; i < history.DefaultMaxEntries+10; i++ {
			d.Push(history.Snapshot(s.Book, nil))
		}
		return d.Len()
	}())
}

func TestEmptyHistory(t *testing.T) {
	s := stateWith(1)
	h := history.New(0)

	got, ok := h.Undo(s.Book)
	assert.False(t, ok)
	assert.Same(t, s.Book, got)

	got, ok = h.Redo(s.Book)
	assert.False(t, ok)
	assert.Same(t, s.Book, got)
}

func TestSnapshot_SkipsInvalidIndexes(t *testing.T) {
	s := stateWith(3)
	e := history.Snapshot(s.Book, []int{-1, 2, 2, 7})
	assert.Equal(t, []int{2}, e.PageIndexes())
	assert.False(t, e.Structural())
}

func TestRestore_SkipsStalePages(t *testing.T) {
	s := stateWith(3)
	e := history.Snapshot(s.Book, []int{1, 2})

	reordered := editor.Reduce(s, editor.ReorderPagesToOrder{PageIDs: []string{"p1", "p3", "p2"}})
	got := e.Restore(reordered.Book)
	assert.Equal(t, []string{"p1", "p3", "p2"}, []string{got.Pages[0].ID, got.Pages[1].ID, got.Pages[2].ID})
	for i := range got.Pages {
		assert.Same(t, reordered.Book.Pages[i], got.Pages[i])
	}

	shrunk := editor.Reduce(s, editor.DeletePages{Index: 1, Count: 2})
	got = e.Restore(shrunk.Book)
	require.Len(t, got.Pages, 1)
	assert.Same(t, shrunk.Book.Pages[0], got.Pages[0])
}

func TestReset(t *testing.T) {
	s := stateWith(1)
	h := history.New(0)
	h.Push(history.Snapshot(s.Book, []int{0}))
	h.Reset()
	assert.False(t, h.CanUndo())
	assert.Zero(t, h.Len())
}

func BenchmarkSnapshot(b *testing.B) {
	for _, n := range []int{32, 64, 128} {
		book := bookWithPages(n)
		b.Run(fmt.Sprintf("pages=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = history.Snapshot(book, []int{n / 2})
			}
		})
	}
}

func BenchmarkStructuralSnapshot(b *testing.B) {
	for _, n := range []int{32, 64, 128} {
		book := bookWithPages(n)
		b.Run(fmt.Sprintf("pages=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = history.StructuralSnapshot(book)
			}
		})
	}
}
