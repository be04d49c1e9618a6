package handler

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"photobook/internal/ability"
	"photobook/internal/editor"
	"photobook/internal/model"
	"photobook/internal/questions"
	"photobook/internal/repository"
	"photobook/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	errPagesLocked     = errors.New("page structure or unassigned pages changed")
	errSettingsLocked  = errors.New("book settings changed without permission")
	errQuestionsLocked = errors.New("stored questions changed without permission")
	errInvalidBook     = errors.New("invalid book")
)

// load reads a book in editor form together with the permissions it is
// shown with. Pages with unreadable content are still returned.
func (h *BookHandler) load(ctx context.Context, bookID uuid.UUID, ab *ability.Ability) (session.Loaded, *model.Book, error) {
	stored, err := h.books.GetWithPages(ctx, bookID)
	if err != nil {
		return session.Loaded{}, nil, err
	}
	if stored == nil {
		return session.Loaded{}, nil, repository.ErrBookNotFound
	}

	eb, err := stored.ToEditor()
	if err != nil {
		h.log.Warn().Err(err).Str("book_id", bookID.String()).Msg("book has unreadable pages")
	}

	assignments, err := h.assignments.ListByBook(ctx, bookID)
	if err != nil {
		return session.Loaded{}, nil, err
	}

	return session.Loaded{
		Book:        eb,
		Permissions: ab.Permissions(),
		Assignments: model.AssignmentsToEditor(assignments),
	}, stored, nil
}

// persist writes eb over the stored book. Callers limited to some pages get
// only those pages written and may not change the page order or the
// settings; everyone else saves the whole book.
func (h *BookHandler) persist(ctx context.Context, stored *model.Book, ab *ability.Ability, eb *editor.Book, temp []editor.Question) error {
	meta := *stored
	meta.Pages = nil
	if err := meta.ApplyEditorMeta(eb); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBook, err)
	}
	if settingsChanged(stored, &meta) && !ab.Can(ability.ActionEdit, ability.SubjectBook) {
		return errSettingsLocked
	}

	if slices.Contains(eb.Pages, nil) {
		return fmt.Errorf("%w: empty page", errInvalidBook)
	}
	pages := editor.Renumber(eb.Pages)

	overwrite := ab.Can(ability.ActionEdit, ability.SubjectQuestions)
	if !overwrite && len(temp) > 0 {
		staged := questions.NewOverlay(h.questions, stored.ID.String())
		for _, q := range temp {
			staged.Stage(q)
		}
		ids, err := staged.Overwrites(ctx)
		if err != nil {
			return err
		}
		if len(ids) > 0 {
			return fmt.Errorf("%w: %v", errQuestionsLocked, ids)
		}
	}

	qs := make([]model.Question, 0, len(temp))
	for _, q := range temp {
		row, err := model.QuestionFromEditor(stored.ID, q)
		if err != nil {
			return fmt.Errorf("%w: %v", errInvalidBook, err)
		}
		qs = append(qs, row)
	}

	if pageScoped(stored, ab) {
		if !sameStructure(stored.Pages, pages) {
			return errPagesLocked
		}
		var rows []model.Page
		for _, p := range pages {
			if !ab.CanOnPage(ability.ActionEdit, ability.SubjectPage, p.PageNumber) {
				continue
			}
			row, _, err := model.PageFromEditor(stored.ID, p)
			if err != nil {
				return fmt.Errorf("%w: %v", errInvalidBook, err)
			}
			rows = append(rows, row)
		}
		if err := h.books.UpdatePages(ctx, stored.ID, rows); err != nil {
			return err
		}
		if len(qs) == 0 {
			return nil
		}
		return h.questionSink(ab).SaveQuestions(ctx, stored.ID.String(), temp)
	}

	writes := make([]repository.PageWrite, 0, len(pages))
	for _, p := range pages {
		row, insert, err := model.PageFromEditor(stored.ID, p)
		if err != nil {
			return fmt.Errorf("%w: %v", errInvalidBook, err)
		}
		writes = append(writes, repository.PageWrite{Page: row, Insert: insert})
	}
	return h.books.SaveBook(ctx, &meta, writes, qs, overwrite)
}

// questionSink is where staged questions of ab's user are written. Users who
// may not edit questions only add new ones.
func (h *BookHandler) questionSink(ab *ability.Ability) questions.Sink {
	if ab.Can(ability.ActionEdit, ability.SubjectQuestions) {
		return h.questions
	}
	return questions.SinkFunc(h.questions.AddQuestions)
}

// pageScoped reports whether ab lacks edit rights on some stored page.
func pageScoped(stored *model.Book, ab *ability.Ability) bool {
	if len(stored.Pages) == 0 {
		return !ab.Can(ability.ActionEdit, ability.SubjectPage)
	}
	for _, p := range stored.Pages {
		if !ab.CanOnPage(ability.ActionEdit, ability.SubjectPage, p.PageNumber) {
			return true
		}
	}
	return false
}

func sameStructure(stored []model.Page, pages []*editor.Page) bool {
	if len(stored) != len(pages) {
		return false
	}
	for i, p := range pages {
		if p.DatabaseID != stored[i].ID.String() {
			return false
		}
	}
	return true
}

func settingsChanged(before, after *model.Book) bool {
	return before.Name != after.Name ||
		before.PageSize != after.PageSize ||
		before.Orientation != after.Orientation ||
		!sameUUID(before.ThemeID, after.ThemeID) ||
		!sameUUID(before.ColorPaletteID, after.ColorPaletteID)
}

func sameUUID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func newSession(bookID uuid.UUID, ab *ability.Ability, qs QuestionOverlayStore, log zerolog.Logger) *session.Session {
	return session.New(session.Options{
		BookID:      bookID.String(),
		Permissions: ab.Permissions(),
		Questions:   qs,
		Logger:      log,
	})
}

// bookSource lets an editing session run against storage on behalf of one
// request.
type bookSource struct {
	h      *BookHandler
	ab     *ability.Ability
	stored *model.Book
}

func (s *bookSource) FetchBook(ctx context.Context, bookID string) (session.Loaded, error) {
	id, err := uuid.Parse(bookID)
	if err != nil {
		return session.Loaded{}, err
	}
	loaded, stored, err := s.h.load(ctx, id, s.ab)
	if err != nil {
		return session.Loaded{}, err
	}
	s.stored = stored
	return loaded, nil
}

func (s *bookSource) SaveBook(ctx context.Context, book *editor.Book) error {
	if s.stored == nil {
		return errors.New("book was not loaded")
	}
	return s.h.persist(ctx, s.stored, s.ab, book, nil)
}
