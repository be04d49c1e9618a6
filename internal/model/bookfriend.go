package model

import (
	"time"

	"github.com/google/uuid"
)

// BookFriend is a collaborator on a book and the permissions they hold.
type BookFriend struct {
	ID                     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BookID                 uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID                 uuid.UUID `gorm:"type:uuid;not null;index"`
	BookRole               string    `gorm:"not null;check:book_role IN ('publisher', 'author')"`
	PageAccessLevel        string    `gorm:"not null;default:'own_page'"`
	EditorInteractionLevel string    `gorm:"not null;default:'full_edit'"`
	CreatedAt              time.Time `gorm:"autoCreateTime"`

	Book Book `gorm:"foreignKey:BookID"`
	User User `gorm:"foreignKey:UserID"`
}

// PageAssignment gives one page of a book to a collaborator.
type PageAssignment struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BookID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_page_assignment"`
	PageNumber int       `gorm:"not null;uniqueIndex:idx_page_assignment"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`

	User User `gorm:"foreignKey:UserID"`
}
