package questions

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"photobook/internal/editor"
)

// Source is where committed questions live.
type Source interface {
	ListQuestions(ctx context.Context, bookID string) ([]editor.Question, error)
}

// Sink persists questions that were staged in the editor.
type Sink interface {
	SaveQuestions(ctx context.Context, bookID string, qs []editor.Question) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, bookID string, qs []editor.Question) error

func (f SinkFunc) SaveQuestions(ctx context.Context, bookID string, qs []editor.Question) error {
	return f(ctx, bookID, qs)
}

// Overlay presents committed questions with the editor's unsaved ones laid
// over them. Entries are keyed by question id, so a staged edit of a stored
// question replaces it instead of showing up twice.
type Overlay struct {
	src    Source
	bookID string

	mu      sync.RWMutex
	pending map[string]editor.Question
}

func NewOverlay(src Source, bookID string) *Overlay {
	return &Overlay{src: src, bookID: bookID, pending: map[string]editor.Question{}}
}

// Stage records q as uncommitted.
func (o *Overlay) Stage(q editor.Question) {
	if q.ID == "" {
		return
	}
	o.mu.Lock()
	o.pending[q.ID] = q
	o.mu.Unlock()
}

// Discard forgets an uncommitted question.
func (o *Overlay) Discard(id string) {
	o.mu.Lock()
	delete(o.pending, id)
	o.mu.Unlock()
}

// Pending returns the uncommitted questions ordered by id.
func (o *Overlay) Pending() []editor.Question {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return sortedValues(o.pending)
}

// List returns committed questions in source order, replaced by their staged
// version where one exists, followed by staged questions the source does not
// know yet.
func (o *Overlay) List(ctx context.Context) ([]editor.Question, error) {
	var committed []editor.Question
	if o.src != nil {
		var err error
		committed, err = o.src.ListQuestions(ctx, o.bookID)
		if err != nil {
			return nil, fmt.Errorf("list questions: %w", err)
		}
	}

	o.mu.RLock()
	pending := maps.Clone(o.pending)
	o.mu.RUnlock()

	out := make([]editor.Question, 0, len(committed)+len(pending))
	for _, q := range committed {
		if staged, ok := pending[q.ID]; ok {
			q = staged
			delete(pending, q.ID)
		}
		out = append(out, q)
	}
	return append(out, sortedValues(pending)...), nil
}

// Get finds a question, preferring the staged version.
func (o *Overlay) Get(ctx context.Context, id string) (editor.Question, bool, error) {
	o.mu.RLock()
	q, ok := o.pending[id]
	o.mu.RUnlock()
	if ok {
		return q, true, nil
	}
	all, err := o.List(ctx)
	if err != nil {
		return editor.Question{}, false, err
	}
	for _, q := range all {
		if q.ID == id {
			return q, true, nil
		}
	}
	return editor.Question{}, false, nil
}

// Overwrites returns the ids of staged questions that would change a question
// the source already holds.
func (o *Overlay) Overwrites(ctx context.Context) ([]string, error) {
	staged := o.Pending()
	if len(staged) == 0 || o.src == nil {
		return nil, nil
	}
	committed, err := o.src.ListQuestions(ctx, o.bookID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	stored := make(map[string]editor.Question, len(committed))
	for _, q := range committed {
		stored[q.ID] = q
	}
	var ids []string
	for _, q := range staged {
		if cur, ok := stored[q.ID]; ok && cur != q {
			ids = append(ids, q.ID)
		}
	}
	return ids, nil
}

// Commit writes the staged questions to sink and clears the ones written.
// Questions staged while the write is in flight stay pending.
func (o *Overlay) Commit(ctx context.Context, sink Sink) error {
	staged := o.Pending()
	if len(staged) == 0 {
		return nil
	}
	if err := sink.SaveQuestions(ctx, o.bookID, staged); err != nil {
		return fmt.Errorf("commit questions: %w", err)
	}
	o.mu.Lock()
	for _, q := range staged {
		if cur, ok := o.pending[q.ID]; ok && cur == q {
			delete(o.pending, q.ID)
		}
	}
	o.mu.Unlock()
	return nil
}

func sortedValues(m map[string]editor.Question) []editor.Question {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]editor.Question, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}
