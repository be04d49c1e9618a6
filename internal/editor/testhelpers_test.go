package editor_test

import (
	"fmt"

	"photobook/internal/ability"
	"photobook/internal/editor"
)

// newBook builds a book with n pages ids p1..pn, each holding one text
// element e1..en.
func newBook(n int) *editor.Book {
	b := &editor.Book{ID: "b1", Name: "Class of 2026", PageSize: "A4", Orientation: "portrait"}
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
			Background: editor.Background{Type: "color", Value: "#ffffff"},
		})
	}
	return b
}

func ownerState(n int) editor.State {
	s := editor.NewState(ability.OwnerPermissions("owner"))
	return editor.Reduce(s, editor.SetBook{Book: newBook(n)})
}

func pageIDs(b *editor.Book) []string {
	ids := make([]string, len(b.Pages))
	for i, p := range b.Pages {
		ids[i] = p.ID
	}
	return ids
}

func pageNumbers(b *editor.Book) []int {
	nums := make([]int, len(b.Pages))
	for i, p := range b.Pages {
		nums[i] = p.PageNumber
	}
	return nums
}

func ptr[T any](v T) *T { return &v }
