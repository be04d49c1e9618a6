package handler

import (
	"context"
	"errors"
	"net/http"

	"photobook/internal/ability"
	"photobook/internal/middleware"
	"photobook/internal/model"
	"photobook/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type QuestionStore interface {
	ListByBook(ctx context.Context, bookID uuid.UUID) ([]model.Question, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	Create(ctx context.Context, q *model.Question) error
	Update(ctx context.Context, q *model.Question) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type QuestionHandler struct {
	repo QuestionStore
}

func NewQuestionHandler(repo QuestionStore) *QuestionHandler {
	return &QuestionHandler{repo: repo}
}

type QuestionRequest struct {
	// ID lets the editor keep the id it generated for a temporary question
	ID     string `json:"id" binding:"omitempty,uuid"`
	Text   string `json:"text" binding:"required"`
	PoolID string `json:"pool_id" binding:"omitempty,uuid"`
}

type QuestionResponse struct {
	ID     string `json:"id"`
	BookID string `json:"book_id"`
	Text   string `json:"text"`
	PoolID string `json:"pool_id,omitempty"`
}

// BookOfQuestion resolves the book of the question named by the :id route
// parameter, for LoadBookAbilityFrom.
func (h *QuestionHandler) BookOfQuestion() middleware.BookIDResolver {
	return func(c *gin.Context) (uuid.UUID, error) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return uuid.Nil, err
		}
		q, err := h.repo.GetByID(c.Request.Context(), id)
		if err != nil {
			return uuid.Nil, err
		}
		return q.BookID, nil
	}
}

// List godoc
// @Summary      Questions of a book
// @Tags         Questions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Book ID"
// @Success      200 {array} QuestionResponse
// @Router       /books/{id}/questions [get]
func (h *QuestionHandler) List(c *gin.Context) {
	bookID, ok := middleware.BookID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Book not loaded"})
		return
	}
	qs, err := h.repo.ListByBook(c.Request.Context(), bookID)
	if err != nil {
		internalError(c, err, "Failed to retrieve questions")
		return
	}
	response := make([]QuestionResponse, len(qs))
	for i, q := range qs {
		response[i] = toQuestionResponse(q)
	}
	c.JSON(http.StatusOK, response)
}

// Create godoc
// @Summary      Add a question to a book
// @Tags         Questions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Book ID"
// @Param        request body QuestionRequest true "Question"
// @Success      201 {object} QuestionResponse
// @Router       /books/{id}/questions [post]
func (h *QuestionHandler) Create(c *gin.Context) {
	bookID, ok := middleware.BookID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Book not loaded"})
		return
	}
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	q := &model.Question{BookID: bookID, Text: req.Text}
	if req.ID != "" {
		q.ID = uuid.MustParse(req.ID)
	}
	if req.PoolID != "" {
		pool := uuid.MustParse(req.PoolID)
		q.PoolID = &pool
	}
	if err := h.repo.Create(c.Request.Context(), q); err != nil {
		internalError(c, err, "Failed to create question")
		return
	}
	c.JSON(http.StatusCreated, toQuestionResponse(*q))
}

// Get godoc
// @Summary      Get a question
// @Tags         Questions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Question ID"
// @Success      200 {object} QuestionResponse
// @Failure      404 {object} map[string]string
// @Router       /questions/{id} [get]
func (h *QuestionHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "question")
	if !ok {
		return
	}
	q, err := h.repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrQuestionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}
	if err != nil {
		internalError(c, err, "Failed to retrieve question")
		return
	}
	c.JSON(http.StatusOK, toQuestionResponse(*q))
}

// Update godoc
// @Summary      Change a question's text or pool
// @Tags         Questions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Question ID"
// @Param        request body QuestionRequest true "Question"
// @Success      200 {object} QuestionResponse
// @Router       /questions/{id} [put]
func (h *QuestionHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "question")
	if !ok {
		return
	}
	bookID, _ := middleware.BookID(c)

	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	q := &model.Question{ID: id, BookID: bookID, Text: req.Text}
	if req.PoolID != "" {
		pool := uuid.MustParse(req.PoolID)
		q.PoolID = &pool
	}
	err := h.repo.Update(c.Request.Context(), q)
	if errors.Is(err, repository.ErrQuestionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}
	if err != nil {
		internalError(c, err, "Failed to update question")
		return
	}
	c.JSON(http.StatusOK, toQuestionResponse(*q))
}

// Delete godoc
// @Summary      Delete a question and its answers
// @Tags         Questions
// @Security     BearerAuth
// @Param        id path string true "Question ID"
// @Success      204
// @Router       /questions/{id} [delete]
func (h *QuestionHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "question")
	if !ok {
		return
	}
	err := h.repo.Delete(c.Request.Context(), id)
	if errors.Is(err, repository.ErrQuestionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}
	if err != nil {
		internalError(c, err, "Failed to delete question")
		return
	}
	c.Status(http.StatusNoContent)
}

func toQuestionResponse(q model.Question) QuestionResponse {
	r := QuestionResponse{ID: q.ID.String(), BookID: q.BookID.String(), Text: q.Text}
	if q.PoolID != nil {
		r.PoolID = q.PoolID.String()
	}
	return r
}

type AnswerStore interface {
	ListByBook(ctx context.Context, bookID uuid.UUID) ([]model.Answer, error)
	Upsert(ctx context.Context, a *model.Answer) error
}

type AnswerHandler struct {
	answers   AnswerStore
	questions QuestionStore
	perms     middleware.PermissionLoader
}

func NewAnswerHandler(answers AnswerStore, questions QuestionStore, perms middleware.PermissionLoader) *AnswerHandler {
	return &AnswerHandler{answers: answers, questions: questions, perms: perms}
}

type AnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required,uuid"`
	Text       string `json:"text"`
}

type AnswerResponse struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	UserID     string `json:"user_id"`
	Text       string `json:"text"`
}

// ListByBook godoc
// @Summary      Answers given to the questions of a book
// @Tags         Answers
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Book ID"
// @Success      200 {array} AnswerResponse
// @Router       /answers/book/{id} [get]
func (h *AnswerHandler) ListByBook(c *gin.Context) {
	bookID, ok := middleware.BookID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Book not loaded"})
		return
	}
	answers, err := h.answers.ListByBook(c.Request.Context(), bookID)
	if err != nil {
		internalError(c, err, "Failed to retrieve answers")
		return
	}
	response := make([]AnswerResponse, len(answers))
	for i, a := range answers {
		response[i] = toAnswerResponse(a)
	}
	c.JSON(http.StatusOK, response)
}

// Upsert godoc
// @Summary      Answer a question
// @Description  A user has one answer per question; answering again replaces it.
// @Tags         Answers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body AnswerRequest true "Answer"
// @Success      200 {object} AnswerResponse
// @Failure      403 {object} map[string]string
// @Router       /answers [post]
func (h *AnswerHandler) Upsert(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	questionID := uuid.MustParse(req.QuestionID)

	q, err := h.questions.GetByID(c.Request.Context(), questionID)
	if errors.Is(err, repository.ErrQuestionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}
	if err != nil {
		internalError(c, err, "Failed to retrieve question")
		return
	}

	perms, err := h.perms.GetPermissions(c.Request.Context(), q.BookID, userID)
	if err != nil {
		internalError(c, err, "Failed to load permissions")
		return
	}
	if perms == nil || !ability.Build(*perms).Can(ability.ActionUse, ability.SubjectAnswers) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to answer this question"})
		return
	}

	answer := &model.Answer{QuestionID: questionID, UserID: userID, Text: req.Text}
	if err := h.answers.Upsert(c.Request.Context(), answer); err != nil {
		internalError(c, err, "Failed to save answer")
		return
	}
	c.JSON(http.StatusOK, toAnswerResponse(*answer))
}

func toAnswerResponse(a model.Answer) AnswerResponse {
	return AnswerResponse{
		ID:         a.ID.String(),
		QuestionID: a.QuestionID.String(),
		UserID:     a.UserID.String(),
		Text:       a.Text,
	}
}
