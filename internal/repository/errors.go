package repository

import "errors"

// Common repository errors
var (
	// ErrBookNotFound is returned when a book is not found
	ErrBookNotFound = errors.New("book not found")

	// ErrQuestionNotFound is returned when a question is not found
	ErrQuestionNotFound = errors.New("question not found")

	// ErrThemeNotFound is returned when a theme or palette is not found
	ErrThemeNotFound = errors.New("theme not found")

	// ErrPageNotInBook is returned when a saved page id belongs to another book
	ErrPageNotInBook = errors.New("page does not belong to book")
)
