package handler

import (
	"context"
	"net/http"

	"photobook/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AssignmentStore interface {
	ListByBook(ctx context.Context, bookID uuid.UUID) ([]model.PageAssignment, error)
	Replace(ctx context.Context, bookID uuid.UUID, assignments []model.PageAssignment) error
}

type FriendLister interface {
	GetFriends(ctx context.Context, bookID uuid.UUID) ([]model.BookFriend, error)
}

type AssignmentHandler struct {
	assignments AssignmentStore
	friends     FriendLister
}

func NewAssignmentHandler(assignments AssignmentStore, friends FriendLister) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, friends: friends}
}

type AssignmentItem struct {
	PageNumber int    `json:"page_number" binding:"required,min=1"`
	UserID     string `json:"user_id" binding:"required,uuid"`
}

type ReplaceAssignmentsRequest struct {
	Assignments []AssignmentItem `json:"assignments" binding:"dive"`
}

// List godoc
// @Summary      Page assignments of a book
// @Tags         Page Assignments
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Book ID"
// @Success      200 {array} editor.PageAssignment
// @Router       /books/{id}/page-assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	_, bookID, _, ok := requestContext(c)
	if !ok {
		return
	}
	assignments, err := h.assignments.ListByBook(c.Request.Context(), bookID)
	if err != nil {
		internalError(c, err, "Failed to retrieve page assignments")
		return
	}
	c.JSON(http.StatusOK, model.AssignmentsToEditor(assignments))
}

// Replace godoc
// @Summary      Replace the page assignments of a book
// @Description  Every page has at most one assignee and assignees must be collaborators of the book.
// @Tags         Page Assignments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Book ID"
// @Param        request body ReplaceAssignmentsRequest true "Assignments"
// @Success      200 {array} editor.PageAssignment
// @Failure      400 {object} map[string]string
// @Router       /books/{id}/page-assignments [put]
func (h *AssignmentHandler) Replace(c *gin.Context) {
	_, bookID, _, ok := requestContext(c)
	if !ok {
		return
	}

	var req ReplaceAssignmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	friends, err := h.friends.GetFriends(c.Request.Context(), bookID)
	if err != nil {
		internalError(c, err, "Failed to retrieve book friends")
		return
	}
	members := make(map[uuid.UUID]model.User, len(friends))
	for _, f := range friends {
		members[f.UserID] = f.User
	}

	seen := make(map[int]bool, len(req.Assignments))
	rows := make([]model.PageAssignment, 0, len(req.Assignments))
	for _, a := range req.Assignments {
		if seen[a.PageNumber] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "A page can only be assigned once"})
			return
		}
		seen[a.PageNumber] = true

		userID := uuid.MustParse(a.UserID)
		user, isMember := members[userID]
		if !isMember {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Pages can only be assigned to collaborators of the book"})
			return
		}
		rows = append(rows, model.PageAssignment{BookID: bookID, PageNumber: a.PageNumber, UserID: userID, User: user})
	}

	if err := h.assignments.Replace(c.Request.Context(), bookID, rows); err != nil {
		internalError(c, err, "Failed to save page assignments")
		return
	}

	c.JSON(http.StatusOK, model.AssignmentsToEditor(rows))
}
