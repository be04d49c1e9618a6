// Package questions checks where a question may be placed and keeps the
// editor's unsaved questions in front of the stored ones.
package questions

import (
	"fmt"

	"photobook/internal/editor"
)

const ReasonOnThisPage = "Already on this page"

// Result is the outcome of ValidateQuestionSelection. Reason is set when
// Valid is false.
type Result struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// IsQuestionAvailable reports whether questionID may be placed on the page
// numbered pageNumber. On an unassigned page only that page is checked; on an
// assigned page every page assigned to the same user is.
func IsQuestionAvailable(book *editor.Book, assignments []editor.PageAssignment, questionID string, pageNumber int) bool {
	return ValidateQuestionSelection(book, assignments, questionID, pageNumber).Valid
}

// ValidateQuestionSelection is IsQuestionAvailable with a reason suitable for
// showing to the user.
func ValidateQuestionSelection(book *editor.Book, assignments []editor.PageAssignment, questionID string, pageNumber int) Result {
	if book == nil || questionID == "" {
		return Result{Valid: true}
	}
	if page, ok := book.PageByNumber(pageNumber); ok && pageUses(page, questionID) {
		return Result{Valid: false, Reason: ReasonOnThisPage}
	}

	owner, assigned := assigneeOf(assignments, pageNumber)
	if !assigned {
		return Result{Valid: true}
	}
	for _, a := range assignments {
		if a.User.ID != owner.ID || a.PageNumber == pageNumber {
			continue
		}
		if page, ok := book.PageByNumber(a.PageNumber); ok && pageUses(page, questionID) {
			return Result{Valid: false, Reason: fmt.Sprintf("Already used by %s", displayName(owner))}
		}
	}
	return Result{Valid: true}
}

// UsedQuestionIDs returns the question ids referenced anywhere in the book.
func UsedQuestionIDs(book *editor.Book) map[string][]int {
	used := map[string][]int{}
	if book == nil {
		return used
	}
	for _, p := range book.Pages {
		for _, el := range p.Elements {
			if el.Type.Textual() && el.QuestionID != "" {
				used[el.QuestionID] = append(used[el.QuestionID], p.PageNumber)
			}
		}
	}
	return used
}

func pageUses(p *editor.Page, questionID string) bool {
	for _, el := range p.Elements {
		if el.Type.Textual() && el.QuestionID == questionID {
			return true
		}
	}
	return false
}

func assigneeOf(assignments []editor.PageAssignment, pageNumber int) (editor.AssignedUser, bool) {
	for _, a := range assignments {
		if a.PageNumber == pageNumber && a.User.ID != "" {
			return a.User, true
		}
	}
	return editor.AssignedUser{}, false
}

func displayName(u editor.AssignedUser) string {
	if u.Name != "" {
		return u.Name
	}
	return "another collaborator"
}
