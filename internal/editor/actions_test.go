package editor_test

import (
	"encoding/json"
	"testing"

	"photobook/internal/editor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) editor.Action {
	t.Helper()
	var env editor.Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	a, err := editor.DecodeAction(env)
	require.NoError(t, err)
	return a
}

func TestDecodeAction(t *testing.T) {
	a := decode(t, `{"type":"UPDATE_ELEMENT","payload":{"id":"e1","updates":{"x":4,"text":"hey"}}}`)
	upd, ok := a.(editor.UpdateElement)
	require.True(t, ok)
	assert.Equal(t, "e1", upd.ID)
	assert.Equal(t, 4.0, *upd.Patch.X)
	assert.Equal(t, "hey", *upd.Patch.Text)
	assert.Nil(t, upd.Patch.Y)
}

func TestDecodeAction_CountDefaults(t *testing.T) {
	reorder, ok := decode(t, `{"type":"REORDER_PAGES","payload":{"fromIndex":2,"toIndex":0}}`).(editor.ReorderPages)
	require.True(t, ok)
	assert.Equal(t, editor.ReorderPages{FromIndex: 2, ToIndex: 0, Count: 1}, reorder)

	del, ok := decode(t, `{"type":"DELETE_PAGES","payload":{"index":3}}`).(editor.DeletePages)
	require.True(t, ok)
	assert.Equal(t, 1, del.Count)
}

func TestDecodeAction_Unknown(t *testing.T) {
	a := decode(t, `{"type":"TELEPORT","payload":{"to":"mars"}}`)
	assert.Equal(t, editor.Unknown{Kind: "TELEPORT"}, a)

	s := ownerState(1)
	assert.Same(t, s.Book, editor.Reduce(s, a).Book)
}

func TestDecodeAction_BadPayload(t *testing.T) {
	_, err := editor.DecodeAction(editor.Envelope{Type: editor.ActionSetActivePage, Payload: json.RawMessage(`{"index":"two"}`)})
	assert.Error(t, err)
}

func TestDecodeAction_PointerFreeResult(t *testing.T) {
	// reducer and session type switches rely on value actions
	a := decode(t, `{"type":"SET_ACTIVE_PAGE","payload":{"index":1}}`)
	_, isValue := a.(editor.SetActivePage)
	assert.True(t, isValue)
}
