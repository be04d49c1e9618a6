package handler

import (
	"net/http"

	"photobook/internal/ability"
	"photobook/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requestContext pulls the authenticated user, the book and its ability set
// by the middleware. It writes the error response itself and reports false
// when something is missing.
func requestContext(c *gin.Context) (userID, bookID uuid.UUID, ab *ability.Ability, ok bool) {
	userID, ok = middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	bookID, ok = middleware.BookID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Book not loaded"})
		return
	}
	ab, ok = middleware.BookAbility(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Book permissions not loaded"})
		return
	}
	return userID, bookID, ab, true
}

func parseIDParam(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " ID format"})
		return uuid.Nil, false
	}
	return id, true
}

func internalError(c *gin.Context, err error, msg string) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
