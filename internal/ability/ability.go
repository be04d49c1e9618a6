// Package ability resolves what a collaborator may do inside a book.
//
// An Ability is built once from a Permissions tuple and never mutated; a role
// or assignment change produces a new tuple and a new Ability. The same
// resolver gates the editing session and the HTTP middleware, and only the
// server's answer is authoritative.
package ability

import "slices"

type Action string

const (
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionCreate Action = "create"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
	ActionUse    Action = "use"
)

type Subject string

const (
	SubjectPage            Subject = "Page"
	SubjectElement         Subject = "Element"
	SubjectBook            Subject = "Book"
	SubjectBookFriends     Subject = "BookFriends"
	SubjectQuestions       Subject = "Questions"
	SubjectAnswers         Subject = "Answers"
	SubjectPageAssignments Subject = "PageAssignments"
	SubjectAll             Subject = "all"
)

// Actions and Subjects list the closed vocabulary.
var (
	Actions  = []Action{ActionView, ActionEdit, ActionCreate, ActionDelete, ActionManage, ActionUse}
	Subjects = []Subject{
		SubjectPage, SubjectElement, SubjectBook, SubjectBookFriends,
		SubjectQuestions, SubjectAnswers, SubjectPageAssignments, SubjectAll,
	}
)

type BookRole string

const (
	RoleOwner     BookRole = "owner"
	RolePublisher BookRole = "publisher"
	RoleAuthor    BookRole = "author"
)

type PageAccessLevel string

const (
	PageAccessFormOnly PageAccessLevel = "form_only"
	PageAccessOwnPage  PageAccessLevel = "own_page"
	PageAccessAllPages PageAccessLevel = "all_pages"
)

type InteractionLevel string

const (
	InteractionNoAccess             InteractionLevel = "no_access"
	InteractionAnswerOnly           InteractionLevel = "answer_only"
	InteractionFullEdit             InteractionLevel = "full_edit"
	InteractionFullEditWithSettings InteractionLevel = "full_edit_with_settings"
)

func (r BookRole) Valid() bool {
	return r == RoleOwner || r == RolePublisher || r == RoleAuthor
}

func (l PageAccessLevel) Valid() bool {
	return l == PageAccessFormOnly || l == PageAccessOwnPage || l == PageAccessAllPages
}

func (l InteractionLevel) Valid() bool {
	switch l {
	case InteractionNoAccess, InteractionAnswerOnly, InteractionFullEdit, InteractionFullEditWithSettings:
		return true
	}
	return false
}

// Permissions is the tuple an Ability is derived from.
type Permissions struct {
	UserID                 string           `json:"userId"`
	BookRole               BookRole         `json:"bookRole"`
	PageAccessLevel        PageAccessLevel  `json:"pageAccessLevel"`
	EditorInteractionLevel InteractionLevel `json:"editorInteractionLevel"`
	AssignedPages          []int            `json:"assignedPages"`
}

// OwnerPermissions is the tuple of a book's owner.
func OwnerPermissions(userID string) Permissions {
	return Permissions{
		UserID:                 userID,
		BookRole:               RoleOwner,
		PageAccessLevel:        PageAccessAllPages,
		EditorInteractionLevel: InteractionFullEditWithSettings,
	}
}

// Rule grants (or, when Inverted, denies) Actions on Subjects. A rule with
// OnlyAssignedPages applies only to pages listed in the tuple's AssignedPages.
type Rule struct {
	Actions           []Action  `json:"actions"`
	Subjects          []Subject `json:"subjects"`
	Inverted          bool      `json:"inverted,omitempty"`
	OnlyAssignedPages bool      `json:"onlyAssignedPages,omitempty"`
}

func (r Rule) matches(action Action, subject Subject) bool {
	actionOK := slices.Contains(r.Actions, action) || slices.Contains(r.Actions, ActionManage)
	subjectOK := slices.Contains(r.Subjects, subject) || slices.Contains(r.Subjects, SubjectAll)
	return actionOK && subjectOK
}

type Ability struct {
	perms    Permissions
	assigned map[int]struct{}
	rules    []Rule
}

// Build derives the Ability for a permissions tuple. It is total: unknown
// roles or levels simply grant nothing beyond what the known parts allow.
func Build(p Permissions) *Ability {
	p.AssignedPages = slices.Clone(p.AssignedPages)
	a := &Ability{
		perms:    p,
		assigned: make(map[int]struct{}, len(p.AssignedPages)),
	}
	for _, n := range p.AssignedPages {
		a.assigned[n] = struct{}{}
	}
	a.rules = rulesFor(p)
	return a
}

func (a *Ability) Permissions() Permissions {
	p := a.perms
	p.AssignedPages = slices.Clone(p.AssignedPages)
	return p
}

func (a *Ability) Rules() []Rule {
	return slices.Clone(a.rules)
}

// Can reports whether action is allowed on subject in general. Page-scoped
// rules count as granting; use CanOnPage to check a concrete page.
func (a *Ability) Can(action Action, subject Subject) bool {
	return a.check(action, subject, 0, false)
}

// CanOnPage reports whether action is allowed on subject located on the page
// with the given 1-based page number.
func (a *Ability) CanOnPage(action Action, subject Subject, pageNumber int) bool {
	return a.check(action, subject, pageNumber, true)
}

func (a *Ability) check(action Action, subject Subject, pageNumber int, onPage bool) bool {
	if a == nil || !slices.Contains(Actions, action) || !slices.Contains(Subjects, subject) {
		return false
	}
	for i := len(a.rules) - 1; i >= 0; i-- {
		r := a.rules[i]
		if !r.matches(action, subject) {
			continue
		}
		if r.OnlyAssignedPages {
			if !onPage {
				if r.Inverted {
					continue
				}
				return true
			}
			if _, ok := a.assigned[pageNumber]; !ok {
				continue
			}
		}
		return !r.Inverted
	}
	return false
}

func rulesFor(p Permissions) []Rule {
	var rules []Rule
	can := func(actions []Action, subjects ...Subject) {
		rules = append(rules, Rule{Actions: actions, Subjects: subjects})
	}
	canOnAssigned := func(actions []Action, subjects ...Subject) {
		rules = append(rules, Rule{Actions: actions, Subjects: subjects, OnlyAssignedPages: true})
	}
	cannot := func(actions []Action, subjects ...Subject) {
		rules = append(rules, Rule{Actions: actions, Subjects: subjects, Inverted: true})
	}

	view := []Action{ActionView}
	manage := []Action{ActionManage}
	answer := []Action{ActionView, ActionUse}

	switch p.BookRole {
	case RoleOwner, RolePublisher:
		can(view, SubjectBook, SubjectBookFriends, SubjectPageAssignments)
		switch p.EditorInteractionLevel {
		case InteractionFullEditWithSettings:
			can(manage, SubjectAll)
		case InteractionFullEdit:
			can(manage, SubjectPage, SubjectElement, SubjectQuestions, SubjectAnswers)
		case InteractionAnswerOnly:
			can(view, SubjectPage, SubjectElement)
			can(answer, SubjectQuestions, SubjectAnswers)
		}
	case RoleAuthor:
		can(view, SubjectBook, SubjectBookFriends, SubjectPageAssignments)
		switch p.PageAccessLevel {
		case PageAccessFormOnly:
			if p.EditorInteractionLevel != InteractionNoAccess {
				can(answer, SubjectQuestions, SubjectAnswers)
			}
			cannot([]Action{ActionEdit, ActionCreate, ActionDelete}, SubjectPage, SubjectElement)
		case PageAccessOwnPage, PageAccessAllPages:
			can(view, SubjectPage, SubjectElement)
			pages := can
			if p.PageAccessLevel == PageAccessOwnPage {
				pages = canOnAssigned
			}
			switch p.EditorInteractionLevel {
			case InteractionFullEdit, InteractionFullEditWithSettings:
				pages(manage, SubjectPage, SubjectElement)
				can(answer, SubjectQuestions, SubjectAnswers)
				can([]Action{ActionCreate}, SubjectQuestions)
				can([]Action{ActionEdit}, SubjectAnswers)
			case InteractionAnswerOnly:
				pages(view, SubjectPage, SubjectElement)
				can(answer, SubjectQuestions, SubjectAnswers)
			}
		}
	}

	if p.EditorInteractionLevel == InteractionNoAccess {
		cannot([]Action{ActionEdit, ActionCreate, ActionDelete, ActionUse}, SubjectAll)
	}
	return rules
}
