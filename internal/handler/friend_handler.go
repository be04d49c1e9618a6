package handler

import (
	"context"
	"net/http"
	"strings"

	"photobook/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FriendStore interface {
	AddFriend(ctx context.Context, friend *model.BookFriend) error
	RemoveFriend(ctx context.Context, bookID, userID uuid.UUID) error
	GetFriends(ctx context.Context, bookID uuid.UUID) ([]model.BookFriend, error)
}

type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type BookGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
}

type FriendHandler struct {
	books   BookGetter
	users   UserFinder
	friends FriendStore
}

func NewFriendHandler(books BookGetter, users UserFinder, friends FriendStore) *FriendHandler {
	return &FriendHandler{books: books, users: users, friends: friends}
}

// AddFriendRequest invites a user to a book by email
type AddFriendRequest struct {
	Email                  string `json:"email" binding:"required,email"`
	BookRole               string `json:"book_role" binding:"required,book_role"`
	PageAccessLevel        string `json:"page_access_level" binding:"required,page_access"`
	EditorInteractionLevel string `json:"editor_interaction_level" binding:"required,interaction_level"`
}

// FriendResponse is one collaborator of a book
type FriendResponse struct {
	UserID                 string `json:"user_id"`
	Email                  string `json:"email"`
	Name                   string `json:"name"`
	BookRole               string `json:"book_role"`
	PageAccessLevel        string `json:"page_access_level"`
	EditorInteractionLevel string `json:"editor_interaction_level"`
	IsOwner                bool   `json:"is_owner"`
}

// List godoc
// @Summary      Collaborators of a book, owner first
// @Tags         Book Friends
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Book ID"
// @Success      200 {array} FriendResponse
// @Router       /books/{id}/friends [get]
func (h *FriendHandler) List(c *gin.Context) {
	_, bookID, _, ok := requestContext(c)
	if !ok {
		return
	}

	book, err := h.books.GetByID(c.Request.Context(), bookID)
	if err != nil {
		internalError(c, err, "Failed to retrieve book")
		return
	}
	if book == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}

	friends, err := h.friends.GetFriends(c.Request.Context(), bookID)
	if err != nil {
		internalError(c, err, "Failed to retrieve book friends")
		return
	}

	response := make([]FriendResponse, 0, len(friends)+1)
	owner, err := h.users.GetByID(c.Request.Context(), book.OwnerID)
	if err != nil {
		internalError(c, err, "Failed to retrieve book owner")
		return
	}
	if owner != nil {
		response = append(response, FriendResponse{
			UserID:                 owner.ID.String(),
			Email:                  owner.Email,
			Name:                   owner.Name,
			BookRole:               "owner",
			PageAccessLevel:        "all_pages",
			EditorInteractionLevel: "full_edit_with_settings",
			IsOwner:                true,
		})
	}
	for _, f := range friends {
		response = append(response, FriendResponse{
			UserID:                 f.UserID.String(),
			Email:                  f.User.Email,
			Name:                   f.User.Name,
			BookRole:               f.BookRole,
			PageAccessLevel:        f.PageAccessLevel,
			EditorInteractionLevel: f.EditorInteractionLevel,
		})
	}
	c.JSON(http.StatusOK, response)
}

// Add godoc
// @Summary      Add a collaborator or change their permissions
// @Tags         Book Friends
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Book ID"
// @Param        request body AddFriendRequest true "Collaborator"
// @Success      200 {object} FriendResponse
// @Failure      404 {object} map[string]string
// @Router       /books/{id}/friends [post]
func (h *FriendHandler) Add(c *gin.Context) {
	userID, bookID, _, ok := requestContext(c)
	if !ok {
		return
	}

	var req AddFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	target, err := h.users.FindByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		internalError(c, err, "Failed to find user")
		return
	}
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if target.ID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot add yourself to the book"})
		return
	}

	book, err := h.books.GetByID(c.Request.Context(), bookID)
	if err != nil {
		internalError(c, err, "Failed to retrieve book")
		return
	}
	if book == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}
	if target.ID == book.OwnerID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The owner already has full access"})
		return
	}

	friend := &model.BookFriend{
		BookID:                 bookID,
		UserID:                 target.ID,
		BookRole:               req.BookRole,
		PageAccessLevel:        req.PageAccessLevel,
		EditorInteractionLevel: req.EditorInteractionLevel,
	}
	if err := h.friends.AddFriend(c.Request.Context(), friend); err != nil {
		internalError(c, err, "Failed to add book friend")
		return
	}

	c.JSON(http.StatusOK, FriendResponse{
		UserID:                 target.ID.String(),
		Email:                  target.Email,
		Name:                   target.Name,
		BookRole:               friend.BookRole,
		PageAccessLevel:        friend.PageAccessLevel,
		EditorInteractionLevel: friend.EditorInteractionLevel,
	})
}

// Remove godoc
// @Summary      Remove a collaborator and their page assignments
// @Tags         Book Friends
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Book ID"
// @Param        user_id path string true "User ID"
// @Success      200 {object} map[string]string
// @Router       /books/{id}/friends/{user_id} [delete]
func (h *FriendHandler) Remove(c *gin.Context) {
	_, bookID, _, ok := requestContext(c)
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "user_id", "user")
	if !ok {
		return
	}

	if err := h.friends.RemoveFriend(c.Request.Context(), bookID, targetID); err != nil {
		internalError(c, err, "Failed to remove book friend")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book access removed successfully"})
}
