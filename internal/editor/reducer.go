package editor

import (
	"maps"
	"slices"

	"photobook/internal/ability"
)

// State is everything the editor keeps for one open book.
type State struct {
	Book               *Book
	ActivePageIndex    int
	SelectedElementIDs []string
	// TempQuestions holds questions created in the editor but not yet saved,
	// keyed by question id.
	TempQuestions   map[string]Question
	Permissions     ability.Permissions
	Ability         *ability.Ability
	PageAssignments []PageAssignment
}

// NewState returns an empty state for the given permissions.
func NewState(p ability.Permissions) State {
	return State{
		Book:          &Book{Pages: []*Page{}},
		TempQuestions: map[string]Question{},
		Permissions:   p,
		Ability:       ability.Build(p),
	}
}

// ActivePage returns the page being edited, if any.
func (s State) ActivePage() (*Page, bool) {
	if s.Book == nil || s.ActivePageIndex < 0 || s.ActivePageIndex >= len(s.Book.Pages) {
		return nil, false
	}
	return s.Book.Pages[s.ActivePageIndex], true
}

// Reduce applies a to s and returns the new state. It never mutates s and
// never fails: unknown actions and actions naming missing ids or indexes
// return s unchanged.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	if sb, ok := deref(a).(SetBook); ok {
		return setBook(s, sb)
	}
	if s.Book == nil {
		return s
	}
	switch a := deref(a).(type) {
	case AddElement:
		return addElement(s, a)
	case UpdateElement:
		next, ok := patchElement(s, a.ID, a.Patch)
		if ok {
			next.SelectedElementIDs = []string{a.ID}
		}
		return next
	case UpdateElementPreserveSelection:
		next, _ := patchElement(s, a.ID, a.Patch)
		return next
	case DeleteElement:
		return deleteElement(s, a)
	case SelectElements:
		s.SelectedElementIDs = slices.Clone(a.IDs)
		return s
	case ReorderPages:
		pages, ok := movePages(s.Book.Pages, a.FromIndex, a.ToIndex, a.Count)
		if !ok {
			return s
		}
		return withPages(s, pages)
	case ReorderPagesToOrder:
		pages := orderPages(s.Book.Pages, a.PageIDs)
		if slices.Equal(pages, s.Book.Pages) {
			return s
		}
		return withPages(s, pages)
	case AddPagePairAtIndex:
		return addPagePair(s, a)
	case DeletePages:
		return deletePages(s, a)
	case SetActivePage:
		if a.Index < 0 || a.Index >= len(s.Book.Pages) {
			return s
		}
		s.ActivePageIndex = a.Index
		s.SelectedElementIDs = nil
		return s
	case UpdatePageBackground:
		if a.PageIndex < 0 || a.PageIndex >= len(s.Book.Pages) {
			return s
		}
		return updatePage(s, a.PageIndex, func(p *Page) { p.Background = a.Background })
	case UpdateBookSettings:
		return updateSettings(s, a)
	case UpdateTempQuestion:
		if a.Question.ID == "" {
			return s
		}
		temp := maps.Clone(s.TempQuestions)
		if temp == nil {
			temp = map[string]Question{}
		}
		temp[a.Question.ID] = a.Question
		s.TempQuestions = temp
		return s
	case ResetColorOverrides:
		return resetColorOverrides(s, a)
	case SetUserRole:
		s.Permissions.BookRole = a.Role
		s.Ability = ability.Build(s.Permissions)
		return s
	case SetUserPermissions:
		s.Permissions.PageAccessLevel = a.PageAccessLevel
		s.Permissions.EditorInteractionLevel = a.EditorInteractionLevel
		s.Permissions.AssignedPages = slices.Clone(a.AssignedPages)
		s.Ability = ability.Build(s.Permissions)
		return s
	case SetPageAssignments:
		s.PageAssignments = slices.Clone(a.Assignments)
		return s
	}
	return s
}

func setBook(s State, a SetBook) State {
	if a.Book == nil {
		return s
	}
	pages := make([]*Page, 0, len(a.Book.Pages))
	for _, p := range a.Book.Pages {
		if p != nil {
			pages = append(pages, p)
		}
	}
	s.Book = a.Book.WithPages(Renumber(pages))
	s.ActivePageIndex = 0
	s.SelectedElementIDs = nil
	return s
}

func withPages(s State, pages []*Page) State {
	active, _ := s.ActivePage()
	s.Book = s.Book.WithPages(Renumber(pages))
	if i := indexOfPage(s.Book.Pages, active); i >= 0 {
		s.ActivePageIndex = i
	} else {
		s.ActivePageIndex = max(0, min(s.ActivePageIndex, len(s.Book.Pages)-1))
	}
	return s
}

// updatePage clones the page at index, lets fn change the clone and swaps it
// into a fresh page slice.
func updatePage(s State, index int, fn func(p *Page)) State {
	pages := slices.Clone(s.Book.Pages)
	p := pages[index].Clone()
	fn(p)
	pages[index] = p
	s.Book = s.Book.WithPages(pages)
	return s
}

func addElement(s State, a AddElement) State {
	index := s.ActivePageIndex
	if a.PageIndex != nil {
		index = *a.PageIndex
	}
	if index < 0 || index >= len(s.Book.Pages) || a.Element.ID == "" {
		return s
	}
	el := a.Element.Clone()
	s = updatePage(s, index, func(p *Page) { p.Elements = append(p.Elements, el) })
	s.SelectedElementIDs = []string{el.ID}
	return s
}

func patchElement(s State, id string, patch ElementPatch) (State, bool) {
	pi, ei, ok := s.Book.FindElement(id)
	if !ok {
		return s, false
	}
	s = updatePage(s, pi, func(p *Page) { applyPatch(&p.Elements[ei], patch) })
	return s, true
}

func applyPatch(el *Element, patch ElementPatch) {
	setFloat := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setFloat(&el.X, patch.X)
	setFloat(&el.Y, patch.Y)
	setFloat(&el.Width, patch.Width)
	setFloat(&el.Height, patch.Height)
	setFloat(&el.Rotation, patch.Rotation)
	if patch.Text != nil {
		el.Text = *patch.Text
	}
	if patch.QuestionID != nil {
		el.QuestionID = *patch.QuestionID
	}
	if patch.Src != nil {
		el.Src = *patch.Src
	}
	if patch.Points != nil {
		el.Points = slices.Clone(patch.Points)
	}
	if len(patch.ColorOverrides) > 0 {
		if el.ColorOverrides == nil {
			el.ColorOverrides = map[string]string{}
		}
		maps.Copy(el.ColorOverrides, patch.ColorOverrides)
	}
	if len(patch.Props) > 0 {
		if el.Props == nil {
			el.Props = map[string]any{}
		}
		for k, v := range patch.Props {
			el.Props[k] = cloneValue(v)
		}
	}
}

func deleteElement(s State, a DeleteElement) State {
	pi, ei, ok := s.Book.FindElement(a.ID)
	if !ok {
		return s
	}
	s = updatePage(s, pi, func(p *Page) { p.Elements = slices.Delete(p.Elements, ei, ei+1) })
	if slices.Contains(s.SelectedElementIDs, a.ID) {
		s.SelectedElementIDs = slices.DeleteFunc(slices.Clone(s.SelectedElementIDs), func(id string) bool {
			return id == a.ID
		})
	}
	return s
}

func addPagePair(s State, a AddPagePairAtIndex) State {
	index := max(0, min(a.Index, len(s.Book.Pages)))
	ids := make([]string, 2)
	copy(ids, a.PageIDs)
	pages := slices.Clone(s.Book.Pages)
	pages = slices.Insert(pages, index, newBlankPage(ids[0]), newBlankPage(ids[1]))
	return withPages(s, pages)
}

func deletePages(s State, a DeletePages) State {
	n := len(s.Book.Pages)
	if a.Count <= 0 || a.Index < 0 || a.Index+a.Count > n || a.Count >= n {
		return s
	}
	removed := make(map[string]bool, a.Count)
	for _, p := range s.Book.Pages[a.Index : a.Index+a.Count] {
		for _, el := range p.Elements {
			removed[el.ID] = true
		}
	}
	pages := slices.Delete(slices.Clone(s.Book.Pages), a.Index, a.Index+a.Count)
	s = withPages(s, pages)
	if len(removed) > 0 && len(s.SelectedElementIDs) > 0 {
		s.SelectedElementIDs = slices.DeleteFunc(slices.Clone(s.SelectedElementIDs), func(id string) bool {
			return removed[id]
		})
	}
	return s
}

func updateSettings(s State, a UpdateBookSettings) State {
	b := *s.Book
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&b.Name, a.Name)
	set(&b.PageSize, a.PageSize)
	set(&b.Orientation, a.Orientation)
	set(&b.ThemeID, a.ThemeID)
	set(&b.ColorPaletteID, a.ColorPaletteID)
	s.Book = &b
	return s
}

func resetColorOverrides(s State, a ResetColorOverrides) State {
	indexes := a.PageIndexes
	if len(indexes) == 0 {
		indexes = []int{s.ActivePageIndex}
	}
	for _, i := range indexes {
		if i < 0 || i >= len(s.Book.Pages) || !hasOverrides(s.Book.Pages[i]) {
			continue
		}
		s = updatePage(s, i, func(p *Page) {
			for ei := range p.Elements {
				p.Elements[ei].ColorOverrides = nil
			}
		})
	}
	return s
}

func hasOverrides(p *Page) bool {
	for _, el := range p.Elements {
		if len(el.ColorOverrides) > 0 {
			return true
		}
	}
	return false
}
