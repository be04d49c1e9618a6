package editor

import (
	"slices"

	"github.com/google/uuid"
)

// Renumber returns pages whose PageNumber fields read 1..N in slice order.
// Pages already carrying the right number are reused as is.
func Renumber(pages []*Page) []*Page {
	out := make([]*Page, len(pages))
	for i, p := range pages {
		if p.PageNumber == i+1 {
			out[i] = p
			continue
		}
		c := *p
		c.PageNumber = i + 1
		out[i] = &c
	}
	return out
}

// movePages moves count pages starting at from so they start at to in the
// resulting slice. ok is false when the block is out of range.
func movePages(pages []*Page, from, to, count int) ([]*Page, bool) {
	n := len(pages)
	if count <= 0 || from < 0 || from+count > n {
		return pages, false
	}
	to = max(0, min(to, n-count))
	if to == from {
		return pages, false
	}

	block := slices.Clone(pages[from : from+count])
	rest := make([]*Page, 0, n-count)
	rest = append(rest, pages[:from]...)
	rest = append(rest, pages[from+count:]...)

	return slices.Insert(rest, to, block...), true
}

// orderPages arranges pages by id. Unknown and repeated ids are ignored; pages
// the order does not mention keep their relative order at the end.
func orderPages(pages []*Page, ids []string) []*Page {
	byID := make(map[string]*Page, len(pages))
	for _, p := range pages {
		byID[p.ID] = p
	}
	out := make([]*Page, 0, len(pages))
	placed := make(map[string]bool, len(pages))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || placed[id] {
			continue
		}
		placed[id] = true
		out = append(out, p)
	}
	for _, p := range pages {
		if !placed[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

func newBlankPage(id string) *Page {
	if id == "" {
		id = uuid.NewString()
	}
	return &Page{
		ID:         id,
		Elements:   []Element{},
		Background: Background{Type: "color", Value: "#ffffff", Opacity: 1},
	}
}

func indexOfPage(pages []*Page, p *Page) int {
	if p == nil {
		return -1
	}
	for i, q := range pages {
		if q.ID == p.ID {
			return i
		}
	}
	return -1
}
