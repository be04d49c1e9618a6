package repository

import (
	"context"
	"errors"

	"photobook/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ThemeRepository struct {
	db *gorm.DB
}

func NewThemeRepository(db *gorm.DB) *ThemeRepository {
	return &ThemeRepository{db: db}
}

func (r *ThemeRepository) ListThemes(ctx context.Context) ([]model.Theme, error) {
	var themes []model.Theme
	err := r.db.WithContext(ctx).Order("name").Find(&themes).Error
	return themes, err
}

func (r *ThemeRepository) CreateTheme(ctx context.Context, t *model.Theme) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *ThemeRepository) UpdateTheme(ctx context.Context, t *model.Theme) error {
	result := r.db.WithContext(ctx).Model(&model.Theme{}).
		Where("id = ?", t.ID).
		Updates(map[string]any{"name": t.Name, "config": t.Config})
	return rowsOrNotFound(result)
}

func (r *ThemeRepository) DeleteTheme(ctx context.Context, id uuid.UUID) error {
	return rowsOrNotFound(r.db.WithContext(ctx).Delete(&model.Theme{}, "id = ?", id))
}

func (r *ThemeRepository) ListPalettes(ctx context.Context) ([]model.ColorPalette, error) {
	var palettes []model.ColorPalette
	err := r.db.WithContext(ctx).Order("name").Find(&palettes).Error
	return palettes, err
}

func (r *ThemeRepository) CreatePalette(ctx context.Context, p *model.ColorPalette) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ThemeRepository) UpdatePalette(ctx context.Context, p *model.ColorPalette) error {
	result := r.db.WithContext(ctx).Model(&model.ColorPalette{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{"name": p.Name, "colors": p.Colors})
	return rowsOrNotFound(result)
}

func (r *ThemeRepository) DeletePalette(ctx context.Context, id uuid.UUID) error {
	return rowsOrNotFound(r.db.WithContext(ctx).Delete(&model.ColorPalette{}, "id = ?", id))
}

func rowsOrNotFound(result *gorm.DB) error {
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrThemeNotFound
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrThemeNotFound
	}
	return nil
}
