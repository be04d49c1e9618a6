package repository

import (
	"context"
	"errors"
	"fmt"

	"photobook/internal/editor"
	"photobook/internal/model"
	"photobook/internal/questions"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionRepository struct {
	db *gorm.DB
}

var (
	_ questions.Source = (*QuestionRepository)(nil)
	_ questions.Sink   = (*QuestionRepository)(nil)
)

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) ListByBook(ctx context.Context, bookID uuid.UUID) ([]model.Question, error) {
	var qs []model.Question
	err := r.db.WithContext(ctx).Where("book_id = ?", bookID).Order("created_at").Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	var q model.Question
	if err := r.db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	result := r.db.WithContext(ctx).Model(&model.Question{}).
		Where("id = ?", q.ID).
		Updates(map[string]any{"text": q.Text, "pool_id": q.PoolID})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

// Delete removes a question and its answers
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Question{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrQuestionNotFound
		}
		return nil
	})
}

// ListQuestions lets the repository act as the committed side of a
// questions.Overlay
func (r *QuestionRepository) ListQuestions(ctx context.Context, bookID string) ([]editor.Question, error) {
	id, err := uuid.Parse(bookID)
	if err != nil {
		return nil, fmt.Errorf("book id: %w", err)
	}
	stored, err := r.ListByBook(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]editor.Question, len(stored))
	for i, q := range stored {
		out[i] = q.ToEditor()
	}
	return out, nil
}

// SaveQuestions upserts questions staged in the editor
func (r *QuestionRepository) SaveQuestions(ctx context.Context, bookID string, qs []editor.Question) error {
	return r.saveQuestions(ctx, bookID, qs, true)
}

// AddQuestions stores staged questions that are new to the book and leaves
// the stored ones untouched
func (r *QuestionRepository) AddQuestions(ctx context.Context, bookID string, qs []editor.Question) error {
	return r.saveQuestions(ctx, bookID, qs, false)
}

func (r *QuestionRepository) saveQuestions(ctx context.Context, bookID string, qs []editor.Question, overwrite bool) error {
	id, err := uuid.Parse(bookID)
	if err != nil {
		return fmt.Errorf("book id: %w", err)
	}
	rows := make([]model.Question, 0, len(qs))
	for _, q := range qs {
		row, err := model.QuestionFromEditor(id, q)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}
	return writeQuestions(r.db.WithContext(ctx), rows, overwrite)
}

type AnswerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

// ListByBook returns every answer given to the questions of a book
func (r *AnswerRepository) ListByBook(ctx context.Context, bookID uuid.UUID) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.db.WithContext(ctx).
		Joins("JOIN questions ON questions.id = answers.question_id").
		Where("questions.book_id = ?", bookID).
		Order("answers.created_at").
		Find(&answers).Error
	return answers, err
}

// Upsert stores the answer of a user to a question, replacing an earlier one.
// a is refreshed from the stored row, so it carries the id of the answer it
// replaced.
func (r *AnswerRepository) Upsert(ctx context.Context, a *model.Answer) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "question_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
		},
		clause.Returning{},
	).Omit("Question").Create(a).Error
}
