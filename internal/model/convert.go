package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"photobook/internal/editor"
)

var DefaultBackground = editor.Background{Type: "color", Value: "#ffffff", Opacity: 1}

// ToEditor converts a stored book and its pages into the editor tree. Pages
// whose JSON cannot be read are still returned, with empty elements or a
// default background; the returned error lists them.
func (b *Book) ToEditor() (*editor.Book, error) {
	pages := make([]Page, len(b.Pages))
	copy(pages, b.Pages)
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].PageNumber < pages[j].PageNumber })

	out := &editor.Book{
		ID:          b.ID.String(),
		Name:        b.Name,
		PageSize:    b.PageSize,
		Orientation: b.Orientation,
		Pages:       make([]*editor.Page, 0, len(pages)),
	}
	if b.ThemeID != nil {
		out.ThemeID = b.ThemeID.String()
	}
	if b.ColorPaletteID != nil {
		out.ColorPaletteID = b.ColorPaletteID.String()
	}

	var errs []error
	for _, p := range pages {
		ep := &editor.Page{
			ID:         p.ID.String(),
			DatabaseID: p.ID.String(),
			PageNumber: p.PageNumber,
			Elements:   []editor.Element{},
			Background: DefaultBackground,
		}
		if len(p.Elements) > 0 && string(p.Elements) != "null" {
			if err := json.Unmarshal(p.Elements, &ep.Elements); err != nil {
				ep.Elements = []editor.Element{}
				errs = append(errs, fmt.Errorf("page %d elements: %w", p.PageNumber, err))
			}
		}
		if len(p.Background) > 0 && string(p.Background) != "null" {
			if err := json.Unmarshal(p.Background, &ep.Background); err != nil {
				ep.Background = DefaultBackground
				errs = append(errs, fmt.Errorf("page %d background: %w", p.PageNumber, err))
			}
		}
		out.Pages = append(out.Pages, ep)
	}
	out.Pages = editor.Renumber(out.Pages)
	return out, errors.Join(errs...)
}

// PageFromEditor converts an editor page for storage. A page without a
// database id gets a fresh one and Insert reports true.
func PageFromEditor(bookID uuid.UUID, p *editor.Page) (page Page, insert bool, err error) {
	page = Page{BookID: bookID, PageNumber: p.PageNumber}
	if p.DatabaseID == "" {
		page.ID = uuid.New()
		insert = true
	} else if page.ID, err = uuid.Parse(p.DatabaseID); err != nil {
		return Page{}, false, fmt.Errorf("page %d: invalid database_id: %w", p.PageNumber, err)
	}

	elements := p.Elements
	if elements == nil {
		elements = []editor.Element{}
	}
	if page.Elements, err = json.Marshal(elements); err != nil {
		return Page{}, false, fmt.Errorf("page %d elements: %w", p.PageNumber, err)
	}
	if page.Background, err = json.Marshal(p.Background); err != nil {
		return Page{}, false, fmt.Errorf("page %d background: %w", p.PageNumber, err)
	}
	return page, insert, nil
}

// ApplyEditorMeta copies the editable metadata of eb onto b.
func (b *Book) ApplyEditorMeta(eb *editor.Book) error {
	if eb.Name != "" {
		b.Name = eb.Name
	}
	if eb.PageSize != "" {
		b.PageSize = eb.PageSize
	}
	if eb.Orientation != "" {
		b.Orientation = eb.Orientation
	}
	var err error
	if b.ThemeID, err = optionalUUID(eb.ThemeID); err != nil {
		return fmt.Errorf("themeId: %w", err)
	}
	if b.ColorPaletteID, err = optionalUUID(eb.ColorPaletteID); err != nil {
		return fmt.Errorf("colorPaletteId: %w", err)
	}
	return nil
}

func (q Question) ToEditor() editor.Question {
	out := editor.Question{ID: q.ID.String(), Text: q.Text}
	if q.PoolID != nil {
		out.PoolID = q.PoolID.String()
	}
	return out
}

// QuestionFromEditor converts an editor question belonging to bookID.
func QuestionFromEditor(bookID uuid.UUID, q editor.Question) (Question, error) {
	id, err := uuid.Parse(q.ID)
	if err != nil {
		return Question{}, fmt.Errorf("question id: %w", err)
	}
	pool, err := optionalUUID(q.PoolID)
	if err != nil {
		return Question{}, fmt.Errorf("pool id: %w", err)
	}
	return Question{ID: id, BookID: bookID, Text: q.Text, PoolID: pool}, nil
}

func optionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// AssignmentsToEditor converts stored page assignments, which must have their
// User preloaded.
func AssignmentsToEditor(in []PageAssignment) []editor.PageAssignment {
	out := make([]editor.PageAssignment, len(in))
	for i, a := range in {
		out[i] = editor.PageAssignment{
			PageNumber: a.PageNumber,
			User:       editor.AssignedUser{ID: a.UserID.String(), Name: a.User.Name},
		}
	}
	return out
}
