package model

import (
	"time"

	"github.com/google/uuid"
)

type Book struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name           string     `gorm:"not null"`
	PageSize       string     `gorm:"not null;default:'A4'"`
	Orientation    string     `gorm:"not null;default:'portrait'"`
	ThemeID        *uuid.UUID `gorm:"type:uuid"`
	ColorPaletteID *uuid.UUID `gorm:"type:uuid"`
	OwnerID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Owner User   `gorm:"foreignKey:OwnerID"`
	Pages []Page `gorm:"foreignKey:BookID"`
}

// Page keeps the editor's element list and background as JSON; only the page
// number is queried.
type Page struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BookID     uuid.UUID `gorm:"type:uuid;not null;index"`
	PageNumber int       `gorm:"not null"`
	Elements   JSONB     `gorm:"type:jsonb;not null"`
	Background JSONB     `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
