package repository

import (
	"context"

	"photobook/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PageAssignmentRepository struct {
	db *gorm.DB
}

func NewPageAssignmentRepository(db *gorm.DB) *PageAssignmentRepository {
	return &PageAssignmentRepository{db: db}
}

// ListByBook returns the page assignments of a book with their users
func (r *PageAssignmentRepository) ListByBook(ctx context.Context, bookID uuid.UUID) ([]model.PageAssignment, error) {
	var assignments []model.PageAssignment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("book_id = ?", bookID).
		Order("page_number").
		Find(&assignments).Error
	return assignments, err
}

// Replace swaps all assignments of a book for the given ones
func (r *PageAssignmentRepository) Replace(ctx context.Context, bookID uuid.UUID, assignments []model.PageAssignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", bookID).Delete(&model.PageAssignment{}).Error; err != nil {
			return err
		}
		if len(assignments) == 0 {
			return nil
		}
		for i := range assignments {
			assignments[i].BookID = bookID
		}
		return tx.Omit("User").Create(&assignments).Error
	})
}
