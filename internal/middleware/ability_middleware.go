package middleware

import (
	"context"
	"errors"
	"net/http"

	"photobook/internal/ability"
	"photobook/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// BookAbilityKey holds the *ability.Ability of the current user for the
	// requested book
	BookAbilityKey = "book_ability"
	// BookIDKey holds the uuid.UUID of the requested book
	BookIDKey = "book_id"
)

// PermissionLoader loads a user's permission tuple for a book. It returns
// repository.ErrBookNotFound for unknown books and nil for users without
// access.
type PermissionLoader interface {
	GetPermissions(ctx context.Context, bookID, userID uuid.UUID) (*ability.Permissions, error)
}

// BookIDResolver extracts the book a request is about.
type BookIDResolver func(c *gin.Context) (uuid.UUID, error)

// BookIDParam resolves the book id from a route parameter.
func BookIDParam(name string) BookIDResolver {
	return func(c *gin.Context) (uuid.UUID, error) {
		return uuid.Parse(c.Param(name))
	}
}

// LoadBookAbility builds the current user's ability for the book named by
// the :id route parameter.
func LoadBookAbility(loader PermissionLoader) gin.HandlerFunc {
	return LoadBookAbilityFrom(loader, BookIDParam("id"))
}

// LoadBookAbilityFrom builds the current user's ability for the book found
// by resolve. Users without any access get 403, unknown books 404.
func LoadBookAbilityFrom(loader PermissionLoader, resolve BookIDResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		bookID, err := resolve(c)
		if err != nil {
			if errors.Is(err, repository.ErrQuestionNotFound) || errors.Is(err, repository.ErrBookNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid book ID format"})
			return
		}

		perms, err := loader.GetPermissions(c.Request.Context(), bookID, userID)
		if errors.Is(err, repository.ErrBookNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Book not found"})
			return
		}
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load permissions"})
			return
		}
		if perms == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You don't have access to this book"})
			return
		}

		c.Set(BookIDKey, bookID)
		c.Set(BookAbilityKey, ability.Build(*perms))
		c.Next()
	}
}

// RequireBookPermission lets the request through only if the loaded ability
// allows action on subject
func RequireBookPermission(action ability.Action, subject ability.Subject) gin.HandlerFunc {
	return func(c *gin.Context) {
		ab, ok := BookAbility(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Book permissions not loaded"})
			return
		}
		if !ab.Can(action, subject) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You don't have permission to " + string(action) + " " + string(subject)})
			return
		}
		c.Next()
	}
}

// BookAbility returns the ability loaded by LoadBookAbility
func BookAbility(c *gin.Context) (*ability.Ability, bool) {
	v, exists := c.Get(BookAbilityKey)
	if !exists {
		return nil, false
	}
	ab, ok := v.(*ability.Ability)
	return ab, ok
}

// BookID returns the book id stored by LoadBookAbility
func BookID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(BookIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
