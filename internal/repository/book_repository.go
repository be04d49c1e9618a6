package repository

import (
	"context"
	"errors"

	"photobook/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) *BookRepository {
	return &BookRepository{db: db}
}

// PageWrite is one page of a full-book save.
type PageWrite struct {
	Page   model.Page
	Insert bool
}

// Create stores a new book together with its initial pages
func (r *BookRepository) Create(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *BookRepository) GetOwned(ctx context.Context, ownerID uuid.UUID) ([]model.Book, error) {
	var books []model.Book
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at").Find(&books).Error
	return books, err
}

func (r *BookRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil, nil to indicate that the book was not found
		}
		return nil, err
	}
	return &book, nil
}

// GetWithPages loads a book and its pages ordered by page number
func (r *BookRepository) GetWithPages(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	var book model.Book
	err := r.db.WithContext(ctx).
		Preload("Pages", func(db *gorm.DB) *gorm.DB { return db.Order("page_number") }).
		Where("id = ?", id).
		First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns every book, for the admin screens
func (r *BookRepository) List(ctx context.Context) ([]model.Book, error) {
	var books []model.Book
	err := r.db.WithContext(ctx).Preload("Owner").Order("created_at").Find(&books).Error
	return books, err
}

func (r *BookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&model.Page{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&model.PageAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&model.BookFriend{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Book{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrBookNotFound
		}
		return nil
	})
}

// SaveBook writes a whole book in one transaction. Pages flagged Insert are
// created, the others updated; stored pages missing from pages are deleted.
// Staged questions are written alongside and replace stored ones only when
// overwrite is set. Concurrent saves are not merged: the last one to commit
// wins.
func (r *BookRepository) SaveBook(ctx context.Context, book *model.Book, pages []PageWrite, questions []model.Question, overwrite bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Book{}).Where("id = ?", book.ID).Updates(map[string]any{
			"name":             book.Name,
			"page_size":        book.PageSize,
			"orientation":      book.Orientation,
			"theme_id":         book.ThemeID,
			"color_palette_id": book.ColorPaletteID,
		}).Error; err != nil {
			return err
		}

		keep := make([]uuid.UUID, 0, len(pages))
		for _, w := range pages {
			p := w.Page
			p.BookID = book.ID
			keep = append(keep, p.ID)
			if w.Insert {
				if err := tx.Create(&p).Error; err != nil {
					return err
				}
				continue
			}
			result := tx.Model(&model.Page{}).
				Where("id = ? AND book_id = ?", p.ID, book.ID).
				Updates(map[string]any{
					"page_number": p.PageNumber,
					"elements":    p.Elements,
					"background":  p.Background,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrPageNotInBook
			}
		}

		stale := tx.Where("book_id = ?", book.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := stale.Delete(&model.Page{}).Error; err != nil {
			return err
		}

		if len(questions) > 0 {
			return writeQuestions(tx, questions, overwrite)
		}
		return nil
	})
}

// writeQuestions inserts questions. Rows whose id is taken keep their stored
// text unless overwrite is set.
func writeQuestions(tx *gorm.DB, questions []model.Question, overwrite bool) error {
	conflict := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}
	if overwrite {
		conflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"text", "pool_id", "updated_at"}),
			// A question id from another book must not be taken over.
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "questions.book_id = excluded.book_id"},
			}},
		}
	}
	return tx.Clauses(conflict).Create(&questions).Error
}

// UpdatePages rewrites the content of existing pages of a book without
// touching the page order, the other pages or the book settings
func (r *BookRepository) UpdatePages(ctx context.Context, bookID uuid.UUID, pages []model.Page) error {
	if len(pages) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range pages {
			result := tx.Model(&model.Page{}).
				Where("id = ? AND book_id = ?", p.ID, bookID).
				Updates(map[string]any{
					"elements":   p.Elements,
					"background": p.Background,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrPageNotInBook
			}
		}
		return nil
	})
}
