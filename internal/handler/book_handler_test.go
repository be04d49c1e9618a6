package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"photobook/internal/ability"
	"photobook/internal/editor"
	"photobook/internal/handler"
	"photobook/internal/middleware"
	"photobook/internal/model"
	"photobook/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBookStore struct {
	mock.Mock
}

func (m *mockBookStore) Create(ctx context.Context, book *model.Book) error {
	return m.Called(ctx, book).Error(0)
}

func (m *mockBookStore) GetOwned(ctx context.Context, ownerID uuid.UUID) ([]model.Book, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]model.Book), args.Error(1)
}

func (m *mockBookStore) GetWithPages(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	args := m.Called(ctx, id)
	b := args.Get(0)
	if b == nil {
		return nil, args.Error(1)
	}
	return b.(*model.Book), args.Error(1)
}

func (m *mockBookStore) SaveBook(ctx context.Context, book *model.Book, pages []repository.PageWrite, qs []model.Question, overwrite bool) error {
	return m.Called(ctx, book, pages, qs, overwrite).Error(0)
}

func (m *mockBookStore) UpdatePages(ctx context.Context, bookID uuid.UUID, pages []model.Page) error {
	return m.Called(ctx, bookID, pages).Error(0)
}

type mockSharedBooks struct {
	mock.Mock
}

func (m *mockSharedBooks) GetSharedBooks(ctx context.Context, userID uuid.UUID) ([]model.Book, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Book), args.Error(1)
}

type mockAssignments struct {
	mock.Mock
}

func (m *mockAssignments) ListByBook(ctx context.Context, bookID uuid.UUID) ([]model.PageAssignment, error) {
	args := m.Called(ctx, bookID)
	return args.Get(0).([]model.PageAssignment), args.Error(1)
}

type mockQuestionStore struct {
	mock.Mock
}

func (m *mockQuestionStore) ListQuestions(ctx context.Context, bookID string) ([]editor.Question, error) {
	args := m.Called(ctx, bookID)
	return args.Get(0).([]editor.Question), args.Error(1)
}

func (m *mockQuestionStore) SaveQuestions(ctx context.Context, bookID string, qs []editor.Question) error {
	return m.Called(ctx, bookID, qs).Error(0)
}

func (m *mockQuestionStore) AddQuestions(ctx context.Context, bookID string, qs []editor.Question) error {
	return m.Called(ctx, bookID, qs).Error(0)
}

type bookFixture struct {
	router      *gin.Engine
	books       *mockBookStore
	shared      *mockSharedBooks
	assignments *mockAssignments
	questions   *mockQuestionStore
	stored      *model.Book
	userID      uuid.UUID
}

func storedBook(pages int) *model.Book {
	b := &model.Book{
		ID:          uuid.New(),
		Name:        "Class of 2026",
		PageSize:    "A4",
		Orientation: "portrait",
		OwnerID:     uuid.New(),
	}
	for n := 1; n <= pages; n++ {
		elements, _ := json.Marshal([]editor.Element{{ID: "e" + string(rune('0'+n)), Type: editor.KindText, Text: "hello"}})
		b.Pages = append(b.Pages, model.Page{
			ID:         uuid.New(),
			BookID:     b.ID,
			PageNumber: n,
			Elements:   elements,
			Background: model.JSONB(`{"type":"color","value":"#ffffff"}`),
		})
	}
	return b
}

func authorPermissions(userID uuid.UUID, pages ...int) ability.Permissions {
	return ability.Permissions{
		UserID:                 userID.String(),
		BookRole:               ability.RoleAuthor,
		PageAccessLevel:        ability.PageAccessOwnPage,
		EditorInteractionLevel: ability.InteractionFullEdit,
		AssignedPages:          pages,
	}
}

// setupBookTest wires the book routes behind a stand-in for the auth and
// ability middleware.
func setupBookTest(perms func(userID uuid.UUID) ability.Permissions) *bookFixture {
	gin.SetMode(gin.TestMode)
	f := &bookFixture{
		router:      gin.New(),
		books:       new(mockBookStore),
		shared:      new(mockSharedBooks),
		assignments: new(mockAssignments),
		questions:   new(mockQuestionStore),
		stored:      storedBook(2),
		userID:      uuid.New(),
	}
	h := handler.NewBookHandler(f.books, f.shared, f.assignments, f.questions, zerolog.Nop())

	ab := ability.Build(perms(f.userID))
	withBook := func(c *gin.Context) {
		c.Set(middleware.UserIDKey, f.userID)
		c.Set(middleware.BookIDKey, f.stored.ID)
		c.Set(middleware.BookAbilityKey, ab)
		c.Next()
	}
	g := f.router.Group("/books/:id", withBook)
	g.GET("", h.Get)
	g.PUT("", h.Save)
	g.POST("/actions", h.ApplyActions)
	g.GET("/user-role", h.UserRole)

	f.books.On("GetWithPages", mock.Anything, f.stored.ID).Return(f.stored, nil)
	f.assignments.On("ListByBook", mock.Anything, f.stored.ID).Return([]model.PageAssignment{}, nil)
	return f
}

func ownerOf(userID uuid.UUID) ability.Permissions { return ability.OwnerPermissions(userID.String()) }

func (f *bookFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func (f *bookFixture) path(suffix string) string {
	return "/books/" + f.stored.ID.String() + suffix
}

// editorCopy returns the stored book the way the editor would send it back.
func (f *bookFixture) editorCopy(t *testing.T) *editor.Book {
	t.Helper()
	eb, err := f.stored.ToEditor()
	require.NoError(t, err)
	return eb
}

func TestBookGet(t *testing.T) {
	f := setupBookTest(ownerOf)

	resp := f.do(http.MethodGet, f.path(""), nil)

	require.Equal(t, http.StatusOK, resp.Code)
	var body handler.BookResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Book.Pages, 2)
	assert.Equal(t, f.stored.Pages[0].ID.String(), body.Book.Pages[0].DatabaseID)
	assert.Equal(t, "e1", body.Book.Pages[0].Elements[0].ID)
	assert.Equal(t, ability.RoleOwner, body.Permissions.BookRole)
	assert.NotNil(t, body.PageAssignments)
}

func TestBookGet_NotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	books := new(mockBookStore)
	h := handler.NewBookHandler(books, new(mockSharedBooks), new(mockAssignments), new(mockQuestionStore), zerolog.Nop())
	bookID := uuid.New()
	books.On("GetWithPages", mock.Anything, bookID).Return(nil, nil)

	r := gin.New()
	r.GET("/books/:id", func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uuid.New())
		c.Set(middleware.BookIDKey, bookID)
		c.Set(middleware.BookAbilityKey, ability.Build(ability.OwnerPermissions("u")))
	}, h.Get)

	req, _ := http.NewRequest(http.MethodGet, "/books/"+bookID.String(), nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestBookSave_OwnerWritesWholeBook(t *testing.T) {
	f := setupBookTest(ownerOf)
	eb := f.editorCopy(t)
	eb.Pages = append(eb.Pages, &editor.Page{ID: "client-page", Elements: []editor.Element{}})

	f.books.On("SaveBook", mock.Anything,
		mock.MatchedBy(func(b *model.Book) bool { return b.ID == f.stored.ID && b.Name == "Class of 2026" }),
		mock.MatchedBy(func(w []repository.PageWrite) bool {
			return len(w) == 3 && !w[0].Insert && !w[1].Insert && w[2].Insert && w[2].Page.PageNumber == 3
		}),
		mock.Anything, true,
	).Return(nil).Once()

	resp := f.do(http.MethodPut, f.path(""), handler.SaveBookRequest{Book: *eb})

	assert.Equal(t, http.StatusOK, resp.Code)
	f.books.AssertExpectations(t)
}

func TestBookSave_PageScopedAuthorWritesOnlyAssignedPages(t *testing.T) {
	f := setupBookTest(func(id uuid.UUID) ability.Permissions { return authorPermissions(id, 2) })
	eb := f.editorCopy(t)
	eb.Pages[1].Elements[0].Text = "my page"

	f.books.On("UpdatePages", mock.Anything, f.stored.ID,
		mock.MatchedBy(func(rows []model.Page) bool {
			return len(rows) == 1 && rows[0].ID == f.stored.Pages[1].ID
		}),
	).Return(nil).Once()

	resp := f.do(http.MethodPut, f.path(""), handler.SaveBookRequest{Book: *eb})

	assert.Equal(t, http.StatusOK, resp.Code)
	f.books.AssertExpectations(t)
	f.books.AssertNotCalled(t, "SaveBook", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookSave_PageScopedAuthorCannotReorder(t *testing.T) {
	f := setupBookTest(func(id uuid.UUID) ability.Permissions { return authorPermissions(id, 2) })
	eb := f.editorCopy(t)
	eb.Pages[0], eb.Pages[1] = eb.Pages[1], eb.Pages[0]

	resp := f.do(http.MethodPut, f.path(""), handler.SaveBookRequest{Book: *eb})

	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Contains(t, resp.Body.String(), "You can only edit your assigned pages")
	f.books.AssertNotCalled(t, "UpdatePages", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookSave_AuthorCannotRename(t *testing.T) {
	f := setupBookTest(func(id uuid.UUID) ability.Permissions { return authorPermissions(id, 1, 2) })
	eb := f.editorCopy(t)
	eb.Name = "Renamed"

	resp := f.do(http.MethodPut, f.path(""), handler.SaveBookRequest{Book: *eb})

	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Contains(t, resp.Body.String(), "book settings")
}

func TestBookSave_TempQuestionsNeedPermission(t *testing.T) {
	f := setupBookTest(func(id uuid.UUID) ability.Permissions {
		return ability.Permissions{
			UserID:                 id.String(),
			BookRole:               ability.RoleAuthor,
			PageAccessLevel:        ability.PageAccessFormOnly,
			EditorInteractionLevel: ability.InteractionAnswerOnly,
		}
	})

	resp := f.do(http.MethodPut, f.path(""), handler.SaveBookRequest{
		Book:          *f.editorCopy(t),
		TempQuestions: []editor.Question{{ID: uuid.NewString(), Text: "Motto?"}},
	})

	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func allPagesAuthor(id uuid.UUID) ability.Permissions {
	return ability.Permissions{
		UserID:                 id.String(),
		BookRole:               ability.RoleAuthor,
		PageAccessLevel:        ability.PageAccessAllPages,
		EditorInteractionLevel: ability.InteractionFullEdit,
	}
}

func TestBookSave_AuthorCannotRewriteStoredQuestion(t *testing.T) {
	f := setupBookTest(allPagesAuthor)
	stored := editor.Question{ID: uuid.NewString(), Text: "Motto?"}
	f.questions.On("ListQuestions", mock.Anything, f.stored.ID.String()).Return([]editor.Question{stored}, nil)

	resp := f.do(http.MethodPut, f.path(""), handler.SaveBookRequest{
		Book:          *f.editorCopy(t),
		TempQuestions: []editor.Question{{ID: stored.ID, Text: "rewritten"}},
	})

	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Contains(t, resp.Body.String(), "edit existing questions")
	f.books.AssertNotCalled(t, "SaveBook", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookSave_AuthorAddsQuestionsWithoutOverwrite(t *testing.T) {
	f := setupBookTest(allPagesAuthor)
	added := editor.Question{ID: uuid.NewString(), Text: "Dream job?"}
	f.questions.On("ListQuestions", mock.Anything, f.stored.ID.String()).
		Return([]editor.Question{{ID: uuid.NewString(), Text: "Motto?"}}, nil)
	f.books.On("SaveBook", mock.Anything, mock.Anything, mock.Anything,
		mock.MatchedBy(func(qs []model.Question) bool { return len(qs) == 1 && qs[0].ID.String() == added.ID }),
		false,
	).Return(nil).Once()

	resp := f.do(http.MethodPut, f.path(""), handler.SaveBookRequest{
		Book:          *f.editorCopy(t),
		TempQuestions: []editor.Question{added},
	})

	assert.Equal(t, http.StatusOK, resp.Code)
	f.books.AssertExpectations(t)
}

func TestBookSave_PageScopedAuthorQuestionsAreInsertOnly(t *testing.T) {
	f := setupBookTest(func(id uuid.UUID) ability.Permissions { return authorPermissions(id, 2) })
	added := []editor.Question{{ID: uuid.NewString(), Text: "Dream job?"}}
	f.questions.On("ListQuestions", mock.Anything, f.stored.ID.String()).Return([]editor.Question{}, nil)
	f.books.On("UpdatePages", mock.Anything, f.stored.ID, mock.Anything).Return(nil).Once()
	f.questions.On("AddQuestions", mock.Anything, f.stored.ID.String(), added).Return(nil).Once()

	resp := f.do(http.MethodPut, f.path(""), handler.SaveBookRequest{Book: *f.editorCopy(t), TempQuestions: added})

	assert.Equal(t, http.StatusOK, resp.Code)
	f.questions.AssertExpectations(t)
	f.questions.AssertNotCalled(t, "SaveQuestions", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookSave_NullPage(t *testing.T) {
	f := setupBookTest(ownerOf)
	eb := f.editorCopy(t)
	eb.Pages = []*editor.Page{nil}

	resp := f.do(http.MethodPut, f.path(""), handler.SaveBookRequest{Book: *eb})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	f.books.AssertNotCalled(t, "SaveBook", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func envelope(t *testing.T, typ editor.ActionType, payload any) editor.Envelope {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return editor.Envelope{Type: typ, Payload: raw}
}

func TestApplyActions_Owner(t *testing.T) {
	f := setupBookTest(ownerOf)
	f.books.On("SaveBook", mock.Anything,
		mock.MatchedBy(func(b *model.Book) bool { return b.Name == "Graduation 2026" }),
		mock.MatchedBy(func(w []repository.PageWrite) bool { return len(w) == 2 }),
		mock.Anything, true,
	).Return(nil).Once()

	resp := f.do(http.MethodPost, f.path("/actions"), handler.ApplyActionsRequest{Actions: []editor.Envelope{
		envelope(t, editor.ActionUpdateBookSettings, map[string]any{"name": "Graduation 2026"}),
	}})

	assert.Equal(t, http.StatusOK, resp.Code)
	f.books.AssertExpectations(t)
}

func TestApplyActions_RejectsSetBook(t *testing.T) {
	f := setupBookTest(ownerOf)

	resp := f.do(http.MethodPost, f.path("/actions"), handler.ApplyActionsRequest{Actions: []editor.Envelope{
		envelope(t, editor.ActionSetBook, map[string]any{"book": map[string]any{"id": "x"}}),
	}})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	f.books.AssertNotCalled(t, "SaveBook", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApplyActions_ForbiddenOnUnassignedPage(t *testing.T) {
	f := setupBookTest(func(id uuid.UUID) ability.Permissions { return authorPermissions(id, 2) })

	resp := f.do(http.MethodPost, f.path("/actions"), handler.ApplyActionsRequest{Actions: []editor.Envelope{
		envelope(t, editor.ActionUpdateElement, map[string]any{"id": "e2", "updates": map[string]any{"text": "ok"}}),
		envelope(t, editor.ActionUpdateElement, map[string]any{"id": "e1", "updates": map[string]any{"text": "not mine"}}),
	}})

	assert.Equal(t, http.StatusForbidden, resp.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["index"])
	f.books.AssertNotCalled(t, "UpdatePages", mock.Anything, mock.Anything, mock.Anything)
}

func TestApplyActions_EmptyList(t *testing.T) {
	f := setupBookTest(ownerOf)

	resp := f.do(http.MethodPost, f.path("/actions"), handler.ApplyActionsRequest{})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUserRole(t *testing.T) {
	f := setupBookTest(func(id uuid.UUID) ability.Permissions { return authorPermissions(id, 3, 4) })

	resp := f.do(http.MethodGet, f.path("/user-role"), nil)

	require.Equal(t, http.StatusOK, resp.Code)
	var body handler.UserRoleResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, ability.RoleAuthor, body.Role)
	assert.Equal(t, []int{3, 4}, body.AssignedPages)
	assert.NotEmpty(t, body.Rules)
}

func TestApplyActions_AuthorCannotRewriteStoredQuestion(t *testing.T) {
	f := setupBookTest(allPagesAuthor)
	stored := editor.Question{ID: uuid.NewString(), Text: "Motto?"}
	f.questions.On("ListQuestions", mock.Anything, f.stored.ID.String()).Return([]editor.Question{stored}, nil)

	resp := f.do(http.MethodPost, f.path("/actions"), handler.ApplyActionsRequest{Actions: []editor.Envelope{
		envelope(t, editor.ActionUpdateTempQuestion, map[string]any{"question": map[string]any{"id": stored.ID, "text": "rewritten"}}),
	}})

	assert.Equal(t, http.StatusForbidden, resp.Code)
	f.books.AssertNotCalled(t, "SaveBook", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.questions.AssertNotCalled(t, "AddQuestions", mock.Anything, mock.Anything, mock.Anything)
	f.questions.AssertNotCalled(t, "SaveQuestions", mock.Anything, mock.Anything, mock.Anything)
}
