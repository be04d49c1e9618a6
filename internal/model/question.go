package model

import (
	"time"

	"github.com/google/uuid"
)

type Question struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Text      string     `gorm:"not null"`
	PoolID    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Answer is one collaborator's answer to a question; a user has at most one
// answer per question.
type Answer struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_answer_user"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_answer_user"`
	Text       string    `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Question Question `gorm:"foreignKey:QuestionID"`
}
