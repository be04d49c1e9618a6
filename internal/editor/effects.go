package editor

import (
	"photobook/internal/ability"
)

// Effect describes what an action does to the book tree.
type Effect struct {
	// Mutating is set when the action changes the book and belongs in the
	// undo history.
	Mutating bool
	// Structural is set when the action changes the page array itself.
	Structural bool
	// Pages lists the indexes of the pages the action rewrites.
	Pages []int
}

// Affected reports how a would change the book held by s.
func Affected(s State, a Action) Effect {
	if a == nil || s.Book == nil {
		return Effect{}
	}
	switch a := deref(a).(type) {
	case AddElement:
		index := s.ActivePageIndex
		if a.PageIndex != nil {
			index = *a.PageIndex
		}
		return pageEffect(s, index)
	case UpdateElement:
		return elementEffect(s, a.ID)
	case UpdateElementPreserveSelection:
		return elementEffect(s, a.ID)
	case DeleteElement:
		return elementEffect(s, a.ID)
	case ReorderPages, ReorderPagesToOrder, AddPagePairAtIndex, DeletePages:
		return Effect{Mutating: true, Structural: true, Pages: allPages(s.Book)}
	case UpdatePageBackground:
		return pageEffect(s, a.PageIndex)
	case UpdateBookSettings:
		return Effect{Mutating: true}
	case ResetColorOverrides:
		indexes := a.PageIndexes
		if len(indexes) == 0 {
			indexes = []int{s.ActivePageIndex}
		}
		e := Effect{Mutating: true}
		for _, i := range indexes {
			if i >= 0 && i < len(s.Book.Pages) {
				e.Pages = append(e.Pages, i)
			}
		}
		return e
	}
	return Effect{}
}

func pageEffect(s State, index int) Effect {
	if index < 0 || index >= len(s.Book.Pages) {
		return Effect{}
	}
	return Effect{Mutating: true, Pages: []int{index}}
}

func elementEffect(s State, id string) Effect {
	pi, _, ok := s.Book.FindElement(id)
	if !ok {
		return Effect{}
	}
	return Effect{Mutating: true, Pages: []int{pi}}
}

func allPages(b *Book) []int {
	out := make([]int, len(b.Pages))
	for i := range out {
		out[i] = i
	}
	return out
}

// Authorize reports whether ab allows dispatching a against s. Page and
// element changes are checked against every page they touch; structural
// changes need the permission on every page of the book.
func Authorize(ab *ability.Ability, s State, a Action) bool {
	if a == nil {
		return false
	}
	action, subject, known := Requirement(a)
	if !known {
		return false
	}
	if subject != ability.SubjectPage && subject != ability.SubjectElement {
		return ab.Can(action, subject)
	}

	var pages []int
	switch a := deref(a).(type) {
	case SetActivePage:
		pages = []int{a.Index}
	default:
		pages = Affected(s, a).Pages
	}
	if len(pages) == 0 {
		return ab.Can(action, subject)
	}
	for _, i := range pages {
		if s.Book == nil || i < 0 || i >= len(s.Book.Pages) {
			continue
		}
		if !ab.CanOnPage(action, subject, s.Book.Pages[i].PageNumber) {
			return false
		}
	}
	return true
}

// Requirement returns the permission needed to dispatch a. known is false for
// actions outside the closed set.
func Requirement(a Action) (action ability.Action, subject ability.Subject, known bool) {
	switch deref(a).(type) {
	case SetBook:
		return ability.ActionView, ability.SubjectBook, true
	case AddElement:
		return ability.ActionCreate, ability.SubjectElement, true
	case UpdateElement, UpdateElementPreserveSelection, ResetColorOverrides:
		return ability.ActionEdit, ability.SubjectElement, true
	case DeleteElement:
		return ability.ActionDelete, ability.SubjectElement, true
	case SelectElements:
		return ability.ActionView, ability.SubjectElement, true
	case SetActivePage:
		return ability.ActionView, ability.SubjectPage, true
	case ReorderPages, ReorderPagesToOrder, UpdatePageBackground:
		return ability.ActionEdit, ability.SubjectPage, true
	case AddPagePairAtIndex:
		return ability.ActionCreate, ability.SubjectPage, true
	case DeletePages:
		return ability.ActionDelete, ability.SubjectPage, true
	case UpdateBookSettings:
		return ability.ActionEdit, ability.SubjectBook, true
	case UpdateTempQuestion:
		return ability.ActionCreate, ability.SubjectQuestions, true
	case SetUserRole, SetUserPermissions:
		return ability.ActionManage, ability.SubjectBookFriends, true
	case SetPageAssignments:
		return ability.ActionManage, ability.SubjectPageAssignments, true
	}
	return "", "", false
}
