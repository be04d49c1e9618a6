package editor

import (
	"encoding/json"
	"fmt"

	"photobook/internal/ability"
)

type ActionType string

const (
	ActionSetBook                        ActionType = "SET_BOOK"
	ActionAddElement                     ActionType = "ADD_ELEMENT"
	ActionUpdateElement                  ActionType = "UPDATE_ELEMENT"
	ActionUpdateElementPreserveSelection ActionType = "UPDATE_ELEMENT_PRESERVE_SELECTION"
	ActionDeleteElement                  ActionType = "DELETE_ELEMENT"
	ActionSelectElements                 ActionType = "SELECT_ELEMENTS"
	ActionReorderPages                   ActionType = "REORDER_PAGES"
	ActionReorderPagesToOrder            ActionType = "REORDER_PAGES_TO_ORDER"
	ActionAddPagePairAtIndex             ActionType = "ADD_PAGE_PAIR_AT_INDEX"
	ActionDeletePages                    ActionType = "DELETE_PAGES"
	ActionSetActivePage                  ActionType = "SET_ACTIVE_PAGE"
	ActionUpdatePageBackground           ActionType = "UPDATE_PAGE_BACKGROUND"
	ActionUpdateBookSettings             ActionType = "UPDATE_BOOK_SETTINGS"
	ActionUpdateTempQuestion             ActionType = "UPDATE_TEMP_QUESTION"
	ActionResetColorOverrides            ActionType = "RESET_COLOR_OVERRIDES"
	ActionSetUserRole                    ActionType = "SET_USER_ROLE"
	ActionSetUserPermissions             ActionType = "SET_USER_PERMISSIONS"
	ActionSetPageAssignments             ActionType = "SET_PAGE_ASSIGNMENTS"
)

// Action is a request to change editor state. The set of concrete actions is
// closed; Reduce ignores anything else.
type Action interface {
	Type() ActionType
}

type SetBook struct {
	Book *Book `json:"book"`
}

// AddElement appends Element to the page at PageIndex, or to the active page
// when PageIndex is nil.
type AddElement struct {
	PageIndex *int    `json:"pageIndex,omitempty"`
	Element   Element `json:"element"`
}

// ElementPatch lists the element fields to change. Nil fields are left as
// they are; ColorOverrides and Props are merged key by key.
type ElementPatch struct {
	X              *float64          `json:"x,omitempty"`
	Y              *float64          `json:"y,omitempty"`
	Width          *float64          `json:"width,omitempty"`
	Height         *float64          `json:"height,omitempty"`
	Rotation       *float64          `json:"rotation,omitempty"`
	Text           *string           `json:"text,omitempty"`
	QuestionID     *string           `json:"questionId,omitempty"`
	Src            *string           `json:"src,omitempty"`
	Points         []float64         `json:"points,omitempty"`
	ColorOverrides map[string]string `json:"colorOverrides,omitempty"`
	Props          map[string]any    `json:"props,omitempty"`
}

type UpdateElement struct {
	ID    string       `json:"id"`
	Patch ElementPatch `json:"updates"`
}

// UpdateElementPreserveSelection patches an element without touching the
// selection.
type UpdateElementPreserveSelection struct {
	ID    string       `json:"id"`
	Patch ElementPatch `json:"updates"`
}

type DeleteElement struct {
	ID string `json:"id"`
}

type SelectElements struct {
	IDs []string `json:"ids"`
}

// ReorderPages moves Count pages starting at FromIndex so the block begins at
// ToIndex of the resulting order.
type ReorderPages struct {
	FromIndex int `json:"fromIndex"`
	ToIndex   int `json:"toIndex"`
	Count     int `json:"count"`
}

// ReorderPagesToOrder arranges pages by their ids. Pages missing from PageIDs
// keep their relative order after the listed ones.
type ReorderPagesToOrder struct {
	PageIDs []string `json:"pageIds"`
}

// AddPagePairAtIndex inserts two blank pages. PageIDs may carry the ids to use;
// missing ids are generated.
type AddPagePairAtIndex struct {
	Index   int      `json:"index"`
	PageIDs []string `json:"pageIds,omitempty"`
}

type DeletePages struct {
	Index int `json:"index"`
	Count int `json:"count"`
}

type SetActivePage struct {
	Index int `json:"index"`
}

type UpdatePageBackground struct {
	PageIndex  int        `json:"pageIndex"`
	Background Background `json:"background"`
}

type UpdateBookSettings struct {
	Name           *string `json:"name,omitempty"`
	PageSize       *string `json:"pageSize,omitempty"`
	Orientation    *string `json:"orientation,omitempty"`
	ThemeID        *string `json:"themeId,omitempty"`
	ColorPaletteID *string `json:"colorPaletteId,omitempty"`
}

type UpdateTempQuestion struct {
	Question Question `json:"question"`
}

// ResetColorOverrides clears element color overrides on the listed pages, or
// on the active page when PageIndexes is empty.
type ResetColorOverrides struct {
	PageIndexes []int `json:"pageIndexes,omitempty"`
}

type SetUserRole struct {
	Role ability.BookRole `json:"role"`
}

type SetUserPermissions struct {
	PageAccessLevel        ability.PageAccessLevel  `json:"pageAccessLevel"`
	EditorInteractionLevel ability.InteractionLevel `json:"editorInteractionLevel"`
	AssignedPages          []int                    `json:"assignedPages"`
}

type SetPageAssignments struct {
	Assignments []PageAssignment `json:"assignments"`
}

// Unknown is what DecodeAction yields for an unrecognized type.
type Unknown struct {
	Kind string
}

func (SetBook) Type() ActionType                        { return ActionSetBook }
func (AddElement) Type() ActionType                     { return ActionAddElement }
func (UpdateElement) Type() ActionType                  { return ActionUpdateElement }
func (UpdateElementPreserveSelection) Type() ActionType { return ActionUpdateElementPreserveSelection }
func (DeleteElement) Type() ActionType                  { return ActionDeleteElement }
func (SelectElements) Type() ActionType                 { return ActionSelectElements }
func (ReorderPages) Type() ActionType                   { return ActionReorderPages }
func (ReorderPagesToOrder) Type() ActionType            { return ActionReorderPagesToOrder }
func (AddPagePairAtIndex) Type() ActionType             { return ActionAddPagePairAtIndex }
func (DeletePages) Type() ActionType                    { return ActionDeletePages }
func (SetActivePage) Type() ActionType                  { return ActionSetActivePage }
func (UpdatePageBackground) Type() ActionType           { return ActionUpdatePageBackground }
func (UpdateBookSettings) Type() ActionType             { return ActionUpdateBookSettings }
func (UpdateTempQuestion) Type() ActionType             { return ActionUpdateTempQuestion }
func (ResetColorOverrides) Type() ActionType            { return ActionResetColorOverrides }
func (SetUserRole) Type() ActionType                    { return ActionSetUserRole }
func (SetUserPermissions) Type() ActionType             { return ActionSetUserPermissions }
func (SetPageAssignments) Type() ActionType             { return ActionSetPageAssignments }
func (u Unknown) Type() ActionType                      { return ActionType(u.Kind) }

// Envelope is the wire form of an action.
type Envelope struct {
	Type    ActionType      `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DecodeAction turns an envelope into a concrete action. Unrecognized types
// decode to Unknown; a malformed payload is an error.
func DecodeAction(env Envelope) (Action, error) {
	var a Action
	switch env.Type {
	case ActionSetBook:
		a = &SetBook{}
	case ActionAddElement:
		a = &AddElement{}
	case ActionUpdateElement:
		a = &UpdateElement{}
	case ActionUpdateElementPreserveSelection:
		a = &UpdateElementPreserveSelection{}
	case ActionDeleteElement:
		a = &DeleteElement{}
	case ActionSelectElements:
		a = &SelectElements{}
	case ActionReorderPages:
		a = &ReorderPages{Count: 1}
	case ActionReorderPagesToOrder:
		a = &ReorderPagesToOrder{}
	case ActionAddPagePairAtIndex:
		a = &AddPagePairAtIndex{}
	case ActionDeletePages:
		a = &DeletePages{Count: 1}
	case ActionSetActivePage:
		a = &SetActivePage{}
	case ActionUpdatePageBackground:
		a = &UpdatePageBackground{}
	case ActionUpdateBookSettings:
		a = &UpdateBookSettings{}
	case ActionUpdateTempQuestion:
		a = &UpdateTempQuestion{}
	case ActionResetColorOverrides:
		a = &ResetColorOverrides{}
	case ActionSetUserRole:
		a = &SetUserRole{}
	case ActionSetUserPermissions:
		a = &SetUserPermissions{}
	case ActionSetPageAssignments:
		a = &SetPageAssignments{}
	default:
		return Unknown{Kind: string(env.Type)}, nil
	}
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, a); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
	}
	return deref(a), nil
}

func deref(a Action) Action {
	switch t := a.(type) {
	case *SetBook:
		return *t
	case *AddElement:
		return *t
	case *UpdateElement:
		return *t
	case *UpdateElementPreserveSelection:
		return *t
	case *DeleteElement:
		return *t
	case *SelectElements:
		return *t
	case *ReorderPages:
		return *t
	case *ReorderPagesToOrder:
		return *t
	case *AddPagePairAtIndex:
		return *t
	case *DeletePages:
		return *t
	case *SetActivePage:
		return *t
	case *UpdatePageBackground:
		return *t
	case *UpdateBookSettings:
		return *t
	case *UpdateTempQuestion:
		return *t
	case *ResetColorOverrides:
		return *t
	case *SetUserRole:
		return *t
	case *SetUserPermissions:
		return *t
	case *SetPageAssignments:
		return *t
	}
	return a
}
