// Package editor holds the in-memory book tree and the reducer that mutates
// it through typed actions.
//
// Books are treated as immutable values: Reduce never writes to a page it was
// given. A changed page is cloned, and every page an action does not touch is
// shared by pointer between the old and the new book.
package editor

import (
	"maps"
	"slices"
)

type ElementKind string

const (
	KindText        ElementKind = "text"
	KindImage       ElementKind = "image"
	KindRect        ElementKind = "rect"
	KindCircle      ElementKind = "circle"
	KindLine        ElementKind = "line"
	KindBrush       ElementKind = "brush"
	KindSticker     ElementKind = "sticker"
	KindPlaceholder ElementKind = "placeholder"
	KindQuestion    ElementKind = "question"
	KindAnswer      ElementKind = "answer"
	KindQnA         ElementKind = "qna"
	KindQnA2        ElementKind = "qna2"
)

// Textual reports whether elements of this kind may reference a question.
func (k ElementKind) Textual() bool {
	switch k {
	case KindQuestion, KindAnswer, KindQnA, KindQnA2:
		return true
	}
	return false
}

type Element struct {
	ID       string      `json:"id"`
	Type     ElementKind `json:"type"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Width    float64     `json:"width"`
	Height   float64     `json:"height"`
	Rotation float64     `json:"rotation,omitempty"`

	QuestionID string    `json:"questionId,omitempty"`
	Text       string    `json:"text,omitempty"`
	Src        string    `json:"src,omitempty"`
	Points     []float64 `json:"points,omitempty"`

	// ColorOverrides holds colors the user set explicitly, keyed by style
	// property ("fill", "stroke", ...). They shadow the book's palette.
	ColorOverrides map[string]string `json:"colorOverrides,omitempty"`
	// Props carries kind-specific settings the editor does not interpret.
	Props map[string]any `json:"props,omitempty"`
}

type Background struct {
	Type    string  `json:"type"`
	Value   string  `json:"value"`
	Opacity float64 `json:"opacity,omitempty"`
}

type Page struct {
	ID         string     `json:"id"`
	DatabaseID string     `json:"database_id,omitempty"`
	PageNumber int        `json:"pageNumber"`
	Elements   []Element  `json:"elements"`
	Background Background `json:"background"`
}

type Book struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	PageSize       string  `json:"pageSize"`
	Orientation    string  `json:"orientation"`
	ThemeID        string  `json:"themeId,omitempty"`
	ColorPaletteID string  `json:"colorPaletteId,omitempty"`
	Pages          []*Page `json:"pages"`
}

type Question struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	PoolID string `json:"poolId,omitempty"`
}

type AssignedUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PageAssignment struct {
	PageNumber int          `json:"pageNumber"`
	User       AssignedUser `json:"user"`
}

// Clone returns a deep copy of the element.
func (e Element) Clone() Element {
	e.Points = slices.Clone(e.Points)
	e.ColorOverrides = maps.Clone(e.ColorOverrides)
	if e.Props != nil {
		e.Props = cloneValue(e.Props).(map[string]any)
	}
	return e
}

// Clone returns a deep copy of the page and all of its elements.
func (p *Page) Clone() *Page {
	if p == nil {
		return nil
	}
	c := *p
	if p.Elements != nil {
		c.Elements = make([]Element, len(p.Elements))
		for i, el := range p.Elements {
			c.Elements[i] = el.Clone()
		}
	}
	return &c
}

// Meta returns a copy of the book without its pages.
func (b *Book) Meta() Book {
	m := *b
	m.Pages = nil
	return m
}

// WithPages returns a shallow copy of the book metadata using pages.
func (b *Book) WithPages(pages []*Page) *Book {
	c := *b
	c.Pages = pages
	return &c
}

// Clone deep-copies the whole book.
func (b *Book) Clone() *Book {
	if b == nil {
		return nil
	}
	pages := make([]*Page, len(b.Pages))
	for i, p := range b.Pages {
		pages[i] = p.Clone()
	}
	return b.WithPages(pages)
}

// PageByNumber returns the page with the given 1-based page number.
func (b *Book) PageByNumber(n int) (*Page, bool) {
	if n >= 1 && n <= len(b.Pages) && b.Pages[n-1] != nil && b.Pages[n-1].PageNumber == n {
		return b.Pages[n-1], true
	}
	for _, p := range b.Pages {
		if p != nil && p.PageNumber == n {
			return p, true
		}
	}
	return nil, false
}

// FindElement locates an element by id and returns its page index and
// position within that page.
func (b *Book) FindElement(id string) (pageIndex, elementIndex int, ok bool) {
	for pi, p := range b.Pages {
		if p == nil {
			continue
		}
		for ei := range p.Elements {
			if p.Elements[ei].ID == id {
				return pi, ei, true
			}
		}
	}
	return -1, -1, false
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	default:
		return v
	}
}
