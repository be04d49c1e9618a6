// Package session ties the reducer, the undo history, question staging and
// the event bus together for one open book.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"photobook/internal/ability"
	"photobook/internal/editor"
	"photobook/internal/events"
	"photobook/internal/history"
	"photobook/internal/questions"
)

// ErrForbidden is returned by Dispatch when the session's ability does not
// allow the action, and by Save when staged questions would rewrite stored
// ones the user may not edit.
var ErrForbidden = errors.New("action not permitted")

// ErrStale is returned by Load when a newer fetch started before this one
// completed; its result was dropped.
var ErrStale = errors.New("stale response dropped")

// Loaded is what a Fetcher returns for a book.
type Loaded struct {
	Book        *editor.Book
	Permissions ability.Permissions
	Assignments []editor.PageAssignment
}

type Fetcher interface {
	FetchBook(ctx context.Context, bookID string) (Loaded, error)
}

type Saver interface {
	SaveBook(ctx context.Context, book *editor.Book) error
}

type Options struct {
	BookID       string
	Permissions  ability.Permissions
	Questions    questions.Source
	HistoryLimit int
	Logger       zerolog.Logger
}

type Session struct {
	bookID string
	log    zerolog.Logger
	bus    *events.Bus
	modal  *ModalGuard
	qs     *questions.Overlay

	mu         sync.Mutex
	state      editor.State
	history    *history.History
	generation uint64
}

func New(opts Options) *Session {
	return &Session{
		bookID:  opts.BookID,
		log:     opts.Logger.With().Str("book_id", opts.BookID).Logger(),
		bus:     events.NewBus(),
		modal:   &ModalGuard{},
		qs:      questions.NewOverlay(opts.Questions, opts.BookID),
		state:   editor.NewState(opts.Permissions),
		history: history.New(opts.HistoryLimit),
	}
}

func (s *Session) State() editor.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Events() *events.Bus { return s.bus }

func (s *Session) Modal() *ModalGuard { return s.modal }

func (s *Session) Questions() *questions.Overlay { return s.qs }

// Dispatch checks a against the session's ability, records an undo entry for
// mutating actions and applies it.
func (s *Session) Dispatch(a editor.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	if !editor.Authorize(prev.Ability, prev, a) {
		return fmt.Errorf("%w: %s", ErrForbidden, typeOf(a))
	}

	effect := editor.Affected(prev, a)
	next := editor.Reduce(prev, a)

	if effect.Mutating && next.Book != prev.Book {
		if effect.Structural {
			s.history.Push(history.StructuralSnapshot(prev.Book))
		} else {
			s.history.Push(history.Snapshot(prev.Book, effect.Pages))
		}
	}
	switch typeOf(a) {
	case editor.ActionSetBook:
		s.history.Reset()
	case editor.ActionUpdateTempQuestion:
		if q := stagedQuestion(a); q.ID != "" {
			s.qs.Stage(q)
		}
	}
	s.state = next
	return nil
}

func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	book, ok := s.history.Undo(s.state.Book)
	if ok {
		s.replaceBook(book)
	}
	return ok
}

func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	book, ok := s.history.Redo(s.state.Book)
	if ok {
		s.replaceBook(book)
	}
	return ok
}

func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

func (s *Session) replaceBook(b *editor.Book) {
	s.state.Book = b
	if n := len(b.Pages); s.state.ActivePageIndex >= n {
		s.state.ActivePageIndex = max(0, n-1)
	}
	s.state.SelectedElementIDs = nil
}

// BeginFetch starts a new fetch generation. Results of older generations are
// dropped by Apply.
func (s *Session) BeginFetch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// Apply installs a fetched book if gen is still the latest generation.
func (s *Session) Apply(gen uint64, l Loaded) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	st := editor.Reduce(s.state, editor.SetBook{Book: l.Book})
	st = editor.Reduce(st, editor.SetUserRole{Role: l.Permissions.BookRole})
	st = editor.Reduce(st, editor.SetUserPermissions{
		PageAccessLevel:        l.Permissions.PageAccessLevel,
		EditorInteractionLevel: l.Permissions.EditorInteractionLevel,
		AssignedPages:          l.Permissions.AssignedPages,
	})
	st = editor.Reduce(st, editor.SetPageAssignments{Assignments: l.Assignments})
	st.Permissions.UserID = l.Permissions.UserID
	st.Ability = ability.Build(st.Permissions)
	s.state = st
	s.history.Reset()
	return true
}

// Load fetches a book and installs it unless a newer Load started meanwhile.
// A failed fetch leaves the current book in place and is reported on the
// event bus.
func (s *Session) Load(ctx context.Context, f Fetcher) error {
	gen := s.BeginFetch()
	l, err := f.FetchBook(ctx, s.bookID)
	if err != nil {
		s.log.Error().Err(err).Msg("fetch book")
		s.notify(events.LevelError, "Could not load the book")
		return fmt.Errorf("fetch book: %w", err)
	}
	if !s.Apply(gen, l) {
		s.log.Debug().Uint64("generation", gen).Msg("dropping stale book response")
		return ErrStale
	}
	s.bus.Publish(events.Event{Kind: events.BookLoaded, BookID: s.bookID})
	return nil
}

// Save persists the current book and then the staged questions. Failures are
// reported and leave the in-memory state untouched. Without edit rights on
// questions, staged questions may only add new ones.
func (s *Session) Save(ctx context.Context, saver Saver, sink questions.Sink) error {
	st := s.State()
	if sink != nil && !st.Ability.Can(ability.ActionEdit, ability.SubjectQuestions) {
		ids, err := s.qs.Overwrites(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("check staged questions")
			s.notify(events.LevelError, "Could not save the book")
			return err
		}
		if len(ids) > 0 {
			s.log.Warn().Strs("question_ids", ids).Msg("staged questions would overwrite stored ones")
			s.notify(events.LevelError, "You don't have permission to edit existing questions")
			return fmt.Errorf("%w: edit questions %v", ErrForbidden, ids)
		}
	}

	book := st.Book
	if err := saver.SaveBook(ctx, book); err != nil {
		s.log.Error().Err(err).Msg("save book")
		s.notify(events.LevelError, "Could not save the book")
		return fmt.Errorf("save book: %w", err)
	}
	if sink != nil {
		if err := s.qs.Commit(ctx, sink); err != nil {
			s.log.Error().Err(err).Msg("save questions")
			s.notify(events.LevelError, "Could not save new questions")
			return err
		}
		s.mu.Lock()
		s.state.TempQuestions = map[string]editor.Question{}
		for _, q := range s.qs.Pending() {
			s.state.TempQuestions[q.ID] = q
		}
		s.mu.Unlock()
	}
	s.bus.Publish(events.Event{Kind: events.BookSaved, BookID: s.bookID})
	s.notify(events.LevelInfo, "Book saved")
	return nil
}

// ValidateQuestion checks whether questionID may be placed on pageNumber in
// the current book.
func (s *Session) ValidateQuestion(questionID string, pageNumber int) questions.Result {
	st := s.State()
	return questions.ValidateQuestionSelection(st.Book, st.PageAssignments, questionID, pageNumber)
}

// CloseAllEditors asks every open element editor to close and releases the
// modal slot.
func (s *Session) CloseAllEditors() {
	s.modal.Close()
	s.bus.Publish(events.Event{Kind: events.CloseAllEditors, BookID: s.bookID})
}

func (s *Session) OpenBookManager(tab string) {
	s.bus.Publish(events.Event{Kind: events.OpenBookManagerTab, BookID: s.bookID, Tab: tab})
}

func (s *Session) notify(level events.Level, msg string) {
	s.bus.Publish(events.Event{Kind: events.Notification, BookID: s.bookID, Level: level, Message: msg})
}

func stagedQuestion(a editor.Action) editor.Question {
	switch q := a.(type) {
	case editor.UpdateTempQuestion:
		return q.Question
	case *editor.UpdateTempQuestion:
		return q.Question
	}
	return editor.Question{}
}

func typeOf(a editor.Action) editor.ActionType {
	if a == nil {
		return ""
	}
	return a.Type()
}
