package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"photobook/internal/ability"
	"photobook/internal/editor"
	"photobook/internal/middleware"
	"photobook/internal/model"
	"photobook/internal/questions"
	"photobook/internal/repository"
	"photobook/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookStore is the book persistence the handlers need
type BookStore interface {
	Create(ctx context.Context, book *model.Book) error
	GetOwned(ctx context.Context, ownerID uuid.UUID) ([]model.Book, error)
	GetWithPages(ctx context.Context, id uuid.UUID) (*model.Book, error)
	SaveBook(ctx context.Context, book *model.Book, pages []repository.PageWrite, questions []model.Question, overwrite bool) error
	UpdatePages(ctx context.Context, bookID uuid.UUID, pages []model.Page) error
}

type SharedBookLister interface {
	GetSharedBooks(ctx context.Context, userID uuid.UUID) ([]model.Book, error)
}

type AssignmentLister interface {
	ListByBook(ctx context.Context, bookID uuid.UUID) ([]model.PageAssignment, error)
}

// QuestionOverlayStore is the committed side of the editor's question overlay.
// AddQuestions never changes a stored question.
type QuestionOverlayStore interface {
	questions.Source
	questions.Sink
	AddQuestions(ctx context.Context, bookID string, qs []editor.Question) error
}

type BookHandler struct {
	books       BookStore
	shared      SharedBookLister
	assignments AssignmentLister
	questions   QuestionOverlayStore
	log         zerolog.Logger
}

func NewBookHandler(
	books BookStore,
	shared SharedBookLister,
	assignments AssignmentLister,
	questions QuestionOverlayStore,
	log zerolog.Logger,
) *BookHandler {
	return &BookHandler{
		books:       books,
		shared:      shared,
		assignments: assignments,
		questions:   questions,
		log:         log,
	}
}

type CreateBookRequest struct {
	Name        string `json:"name" binding:"required"`
	PageSize    string `json:"page_size" binding:"omitempty,oneof=A4 A5 square"`
	Orientation string `json:"orientation" binding:"omitempty,oneof=portrait landscape"`
}

type BookSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PageSize    string `json:"page_size"`
	Orientation string `json:"orientation"`
	OwnerID     string `json:"owner_id"`
	IsOwner     bool   `json:"is_owner"`
	CreatedAt   string `json:"created_at"`
}

// BookResponse is the editor's view of a book
type BookResponse struct {
	Book            *editor.Book            `json:"book"`
	Permissions     ability.Permissions     `json:"permissions"`
	PageAssignments []editor.PageAssignment `json:"pageAssignments"`
}

type SaveBookRequest struct {
	Book          editor.Book       `json:"book" binding:"required"`
	TempQuestions []editor.Question `json:"tempQuestions"`
}

type ApplyActionsRequest struct {
	Actions []editor.Envelope `json:"actions" binding:"required,min=1"`
}

type UserRoleResponse struct {
	Role                   ability.BookRole         `json:"role"`
	PageAccessLevel        ability.PageAccessLevel  `json:"pageAccessLevel"`
	EditorInteractionLevel ability.InteractionLevel `json:"editorInteractionLevel"`
	AssignedPages          []int                    `json:"assignedPages"`
	Rules                  []ability.Rule           `json:"rules"`
}

// List godoc
// @Summary      List the books the user owns or collaborates on
// @Tags         Books
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} BookSummary
// @Router       /books [get]
func (h *BookHandler) List(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	owned, err := h.books.GetOwned(c.Request.Context(), userID)
	if err != nil {
		internalError(c, err, "Failed to retrieve books")
		return
	}
	shared, err := h.shared.GetSharedBooks(c.Request.Context(), userID)
	if err != nil {
		internalError(c, err, "Failed to retrieve shared books")
		return
	}

	response := make([]BookSummary, 0, len(owned)+len(shared))
	for _, b := range owned {
		response = append(response, toBookSummary(b, userID))
	}
	for _, b := range shared {
		response = append(response, toBookSummary(b, userID))
	}
	c.JSON(http.StatusOK, response)
}

// Create godoc
// @Summary      Create a book with its first page pair
// @Tags         Books
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateBookRequest true "Book"
// @Success      201 {object} BookSummary
// @Router       /books [post]
func (h *BookHandler) Create(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	book := &model.Book{
		ID:          uuid.New(),
		Name:        req.Name,
		PageSize:    req.PageSize,
		Orientation: req.Orientation,
		OwnerID:     userID,
	}
	if book.PageSize == "" {
		book.PageSize = "A4"
	}
	if book.Orientation == "" {
		book.Orientation = "portrait"
	}

	blank, _, err := model.PageFromEditor(book.ID, &editor.Page{Elements: []editor.Element{}, Background: model.DefaultBackground})
	if err != nil {
		internalError(c, err, "Failed to create book")
		return
	}
	for n := 1; n <= 2; n++ {
		page := blank
		page.ID = uuid.New()
		page.PageNumber = n
		book.Pages = append(book.Pages, page)
	}

	if err := h.books.Create(c.Request.Context(), book); err != nil {
		internalError(c, err, "Failed to create book")
		return
	}
	c.JSON(http.StatusCreated, toBookSummary(*book, userID))
}

// Get godoc
// @Summary      Load a book for editing
// @Tags         Books
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Book ID"
// @Success      200 {object} BookResponse
// @Failure      403 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Router       /books/{id} [get]
func (h *BookHandler) Get(c *gin.Context) {
	_, bookID, ab, ok := requestContext(c)
	if !ok {
		return
	}

	loaded, _, err := h.load(c.Request.Context(), bookID, ab)
	if errors.Is(err, repository.ErrBookNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}
	if err != nil {
		internalError(c, err, "Failed to retrieve book")
		return
	}
	c.JSON(http.StatusOK, BookResponse{
		Book:            loaded.Book,
		Permissions:     loaded.Permissions,
		PageAssignments: loaded.Assignments,
	})
}

// Save godoc
// @Summary      Save the whole book
// @Description  Pages with a database_id are updated, the others created; stored pages missing from the request are deleted. Collaborators limited to their own pages may only change those pages and not the page order. Concurrent saves are not merged.
// @Tags         Books
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Book ID"
// @Param        request body SaveBookRequest true "Book"
// @Success      200 {object} BookResponse
// @Failure      400 {object} map[string]string
// @Failure      403 {object} map[string]string
// @Router       /books/{id} [put]
func (h *BookHandler) Save(c *gin.Context) {
	_, bookID, ab, ok := requestContext(c)
	if !ok {
		return
	}

	var req SaveBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if len(req.TempQuestions) > 0 && !ab.Can(ability.ActionCreate, ability.SubjectQuestions) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to create questions"})
		return
	}

	stored, err := h.books.GetWithPages(c.Request.Context(), bookID)
	if err != nil {
		internalError(c, err, "Failed to retrieve book")
		return
	}
	if stored == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}

	if err := h.persist(c.Request.Context(), stored, ab, &req.Book, req.TempQuestions); err != nil {
		h.respondSaveError(c, err)
		return
	}
	h.respondWithBook(c, bookID, ab)
}

// ApplyActions godoc
// @Summary      Apply editor actions to a book and save it
// @Description  Each action is checked against the caller's permissions on the pages it touches before it is applied.
// @Tags         Books
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Book ID"
// @Param        request body ApplyActionsRequest true "Actions"
// @Success      200 {object} BookResponse
// @Failure      400 {object} map[string]string
// @Failure      403 {object} map[string]string
// @Router       /books/{id}/actions [post]
func (h *BookHandler) ApplyActions(c *gin.Context) {
	_, bookID, ab, ok := requestContext(c)
	if !ok {
		return
	}

	var req ApplyActionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	actions := make([]editor.Action, 0, len(req.Actions))
	for i, env := range req.Actions {
		a, err := editor.DecodeAction(env)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action", "index": i})
			return
		}
		if !serverSideAction(a) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Action cannot be applied on the server: " + string(env.Type), "index": i})
			return
		}
		actions = append(actions, a)
	}

	src := &bookSource{h: h, ab: ab}
	sess := newSession(bookID, ab, h.questions, h.log)
	if err := sess.Load(c.Request.Context(), src); err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
			return
		}
		internalError(c, err, "Failed to retrieve book")
		return
	}

	for i, a := range actions {
		if err := sess.Dispatch(a); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to apply " + string(a.Type()), "index": i})
			return
		}
	}

	if err := sess.Save(c.Request.Context(), src, h.questionSink(ab)); err != nil {
		h.respondSaveError(c, err)
		return
	}
	h.respondWithBook(c, bookID, ab)
}

// UserRole godoc
// @Summary      Permissions of the current user on a book
// @Tags         Books
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Book ID"
// @Success      200 {object} UserRoleResponse
// @Router       /books/{id}/user-role [get]
func (h *BookHandler) UserRole(c *gin.Context) {
	_, _, ab, ok := requestContext(c)
	if !ok {
		return
	}
	p := ab.Permissions()
	assigned := p.AssignedPages
	if assigned == nil {
		assigned = []int{}
	}
	c.JSON(http.StatusOK, UserRoleResponse{
		Role:                   p.BookRole,
		PageAccessLevel:        p.PageAccessLevel,
		EditorInteractionLevel: p.EditorInteractionLevel,
		AssignedPages:          assigned,
		Rules:                  ab.Rules(),
	})
}

func (h *BookHandler) respondWithBook(c *gin.Context, bookID uuid.UUID, ab *ability.Ability) {
	loaded, _, err := h.load(c.Request.Context(), bookID, ab)
	if err != nil {
		internalError(c, err, "Book saved but could not be reloaded")
		return
	}
	c.JSON(http.StatusOK, BookResponse{
		Book:            loaded.Book,
		Permissions:     loaded.Permissions,
		PageAssignments: loaded.Assignments,
	})
}

func (h *BookHandler) respondSaveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errPagesLocked):
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your assigned pages"})
	case errors.Is(err, errQuestionsLocked), errors.Is(err, session.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to edit existing questions"})
	case errors.Is(err, errSettingsLocked):
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to change book settings"})
	case errors.Is(err, errInvalidBook):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrPageNotInBook):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Page does not belong to this book"})
	default:
		internalError(c, err, "Failed to save book")
	}
}

// serverSideAction reports whether a changes stored data. Role, permission
// and assignment actions only mirror server state in the editor and SET_BOOK
// would bypass the per-page checks.
func serverSideAction(a editor.Action) bool {
	switch a.(type) {
	case editor.SetBook, editor.SetUserRole, editor.SetUserPermissions, editor.SetPageAssignments, editor.Unknown:
		return false
	}
	return true
}

func toBookSummary(b model.Book, userID uuid.UUID) BookSummary {
	return BookSummary{
		ID:          b.ID.String(),
		Name:        b.Name,
		PageSize:    b.PageSize,
		Orientation: b.Orientation,
		OwnerID:     b.OwnerID.String(),
		IsOwner:     b.OwnerID == userID,
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
	}
}
