package ability_test

import (
	"slices"
	"testing"

	"photobook/internal/ability"

	"github.com/stretchr/testify/assert"
)

func author(access ability.PageAccessLevel, level ability.InteractionLevel, pages ...int) *ability.Ability {
	return ability.Build(ability.Permissions{
		UserID:                 "u1",
		BookRole:               ability.RoleAuthor,
		PageAccessLevel:        access,
		EditorInteractionLevel: level,
		AssignedPages:          pages,
	})
}

func TestBuild_IsTotal(t *testing.T) {
	roles := []ability.BookRole{ability.RoleOwner, ability.RolePublisher, ability.RoleAuthor, "", "stranger"}
	access := []ability.PageAccessLevel{ability.PageAccessFormOnly, ability.PageAccessOwnPage, ability.PageAccessAllPages, "", "weird"}
	levels := []ability.InteractionLevel{
		ability.InteractionNoAccess, ability.InteractionAnswerOnly,
		ability.InteractionFullEdit, ability.InteractionFullEditWithSettings, "", "bogus",
	}

	actions := append(slices.Clone(ability.Actions), "fly")
	subjects := append(slices.Clone(ability.Subjects), "Moon")

	for _, r := range roles {
		for _, pa := range access {
			for _, l := range levels {
				ab := ability.Build(ability.Permissions{BookRole: r, PageAccessLevel: pa, EditorInteractionLevel: l, AssignedPages: []int{1}})
				assert.NotPanics(t, func() {
					for _, a := range actions {
						for _, s := range subjects {
							first := ab.Can(a, s)
							assert.Equal(t, first, ab.Can(a, s), "deterministic %s %s", a, s)
							ab.CanOnPage(a, s, 1)
							ab.CanOnPage(a, s, 99)
						}
					}
				})
			}
		}
	}
}

func TestUnknownVocabularyIsDenied(t *testing.T) {
	owner := ability.Build(ability.OwnerPermissions("o"))

	assert.False(t, owner.Can("fly", ability.SubjectBook))
	assert.False(t, owner.Can(ability.ActionView, "Moon"))
	assert.True(t, owner.Can(ability.ActionManage, ability.SubjectAll))
}

func TestNilAbilityDeniesEverything(t *testing.T) {
	var ab *ability.Ability
	assert.False(t, ab.Can(ability.ActionView, ability.SubjectBook))
	assert.False(t, ab.CanOnPage(ability.ActionView, ability.SubjectPage, 1))
}

func TestNoAccessDeniesEveryWrite(t *testing.T) {
	writes := []ability.Action{ability.ActionEdit, ability.ActionCreate, ability.ActionDelete, ability.ActionManage, ability.ActionUse}
	for _, role := range []ability.BookRole{ability.RoleOwner, ability.RolePublisher, ability.RoleAuthor} {
		for _, access := range []ability.PageAccessLevel{ability.PageAccessFormOnly, ability.PageAccessOwnPage, ability.PageAccessAllPages} {
			ab := ability.Build(ability.Permissions{
				BookRole:               role,
				PageAccessLevel:        access,
				EditorInteractionLevel: ability.InteractionNoAccess,
				AssignedPages:          []int{1, 2},
			})
			for _, a := range writes {
				for _, s := range ability.Subjects {
					assert.False(t, ab.Can(a, s), "%s/%s can %s %s", role, access, a, s)
					assert.False(t, ab.CanOnPage(a, s, 1), "%s/%s can %s %s on page 1", role, access, a, s)
				}
			}
		}
	}
}

func TestOwnerWithSettingsManagesEverything(t *testing.T) {
	ab := ability.Build(ability.OwnerPermissions("o"))
	for _, a := range ability.Actions {
		for _, s := range ability.Subjects {
			assert.True(t, ab.Can(a, s), "%s %s", a, s)
		}
	}
	assert.True(t, ab.CanOnPage(ability.ActionEdit, ability.SubjectPage, 42))
}

func TestPublisherFullEdit(t *testing.T) {
	ab := ability.Build(ability.Permissions{
		BookRole:               ability.RolePublisher,
		PageAccessLevel:        ability.PageAccessAllPages,
		EditorInteractionLevel: ability.InteractionFullEdit,
	})

	assert.True(t, ab.Can(ability.ActionEdit, ability.SubjectPage))
	assert.True(t, ab.Can(ability.ActionDelete, ability.SubjectElement))
	assert.True(t, ab.Can(ability.ActionCreate, ability.SubjectQuestions))
	assert.True(t, ab.Can(ability.ActionView, ability.SubjectBookFriends))
	assert.False(t, ab.Can(ability.ActionEdit, ability.SubjectBook))
	assert.False(t, ab.Can(ability.ActionManage, ability.SubjectBookFriends))
	assert.False(t, ab.Can(ability.ActionManage, ability.SubjectPageAssignments))
}

func TestAuthorOwnPage(t *testing.T) {
	ab := author(ability.PageAccessOwnPage, ability.InteractionFullEdit, 3, 4)

	assert.True(t, ab.CanOnPage(ability.ActionEdit, ability.SubjectPage, 3))
	assert.True(t, ab.CanOnPage(ability.ActionCreate, ability.SubjectElement, 4))
	assert.False(t, ab.CanOnPage(ability.ActionEdit, ability.SubjectPage, 5))
	assert.False(t, ab.CanOnPage(ability.ActionDelete, ability.SubjectElement, 1))
	// other pages stay visible
	assert.True(t, ab.CanOnPage(ability.ActionView, ability.SubjectPage, 5))

	// without a page, a conditional grant still counts
	assert.True(t, ab.Can(ability.ActionEdit, ability.SubjectPage))

	assert.True(t, ab.Can(ability.ActionCreate, ability.SubjectQuestions))
	assert.True(t, ab.Can(ability.ActionUse, ability.SubjectAnswers))
	assert.False(t, ab.Can(ability.ActionManage, ability.SubjectBookFriends))
	assert.False(t, ab.Can(ability.ActionEdit, ability.SubjectBook))
}

func TestAuthorAllPages(t *testing.T) {
	ab := author(ability.PageAccessAllPages, ability.InteractionFullEdit)

	assert.True(t, ab.CanOnPage(ability.ActionEdit, ability.SubjectPage, 1))
	assert.True(t, ab.CanOnPage(ability.ActionEdit, ability.SubjectPage, 100))
}

func TestAuthorFormOnly(t *testing.T) {
	ab := author(ability.PageAccessFormOnly, ability.InteractionFullEdit, 1)

	assert.True(t, ab.Can(ability.ActionUse, ability.SubjectQuestions))
	assert.True(t, ab.Can(ability.ActionView, ability.SubjectAnswers))
	assert.True(t, ab.Can(ability.ActionView, ability.SubjectBook))
	for _, a := range []ability.Action{ability.ActionEdit, ability.ActionCreate, ability.ActionDelete} {
		assert.False(t, ab.Can(a, ability.SubjectPage))
		assert.False(t, ab.Can(a, ability.SubjectElement))
		assert.False(t, ab.CanOnPage(a, ability.SubjectElement, 1))
	}
}

func TestAnswerOnly(t *testing.T) {
	for _, ab := range []*ability.Ability{
		author(ability.PageAccessAllPages, ability.InteractionAnswerOnly),
		ability.Build(ability.Permissions{BookRole: ability.RolePublisher, EditorInteractionLevel: ability.InteractionAnswerOnly}),
	} {
		assert.True(t, ab.Can(ability.ActionView, ability.SubjectPage))
		assert.True(t, ab.Can(ability.ActionView, ability.SubjectQuestions))
		assert.True(t, ab.Can(ability.ActionUse, ability.SubjectAnswers))
		assert.False(t, ab.Can(ability.ActionEdit, ability.SubjectElement))
		assert.False(t, ab.Can(ability.ActionCreate, ability.SubjectQuestions))
	}
}

func TestPermissionsAreCopied(t *testing.T) {
	pages := []int{1, 2}
	ab := author(ability.PageAccessOwnPage, ability.InteractionFullEdit, pages...)
	pages[0] = 9

	assert.Equal(t, []int{1, 2}, ab.Permissions().AssignedPages)
	assert.False(t, ab.CanOnPage(ability.ActionEdit, ability.SubjectPage, 9))

	got := ab.Permissions()
	got.AssignedPages[0] = 7
	assert.Equal(t, []int{1, 2}, ab.Permissions().AssignedPages)
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, ability.RoleAuthor.Valid())
	assert.False(t, ability.BookRole("admin").Valid())
	assert.True(t, ability.PageAccessOwnPage.Valid())
	assert.False(t, ability.PageAccessLevel("").Valid())
	assert.True(t, ability.InteractionNoAccess.Valid())
	assert.False(t, ability.InteractionLevel("read").Valid())
}
