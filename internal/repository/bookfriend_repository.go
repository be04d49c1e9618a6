package repository

import (
	"context"
	"errors"

	"photobook/internal/ability"
	"photobook/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookFriendRepository struct {
	db *gorm.DB
}

func NewBookFriendRepository(db *gorm.DB) *BookFriendRepository {
	return &BookFriendRepository{db: db}
}

// AddFriend adds a collaborator to a book or updates their permissions
func (r *BookFriendRepository) AddFriend(ctx context.Context, friend *model.BookFriend) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.BookFriend
		err := tx.Where("book_id = ? AND user_id = ?", friend.BookID, friend.UserID).First(&existing).Error

		if err == nil {
			existing.BookRole = friend.BookRole
			existing.PageAccessLevel = friend.PageAccessLevel
			existing.EditorInteractionLevel = friend.EditorInteractionLevel
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			*friend = existing
			return nil
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(friend).Error
	})
}

// RemoveFriend removes a collaborator and the pages assigned to them
func (r *BookFriendRepository) RemoveFriend(ctx context.Context, bookID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ? AND user_id = ?", bookID, userID).Delete(&model.PageAssignment{}).Error; err != nil {
			return err
		}
		return tx.Where("book_id = ? AND user_id = ?", bookID, userID).Delete(&model.BookFriend{}).Error
	})
}

// GetFriends returns the collaborators of a book
func (r *BookFriendRepository) GetFriends(ctx context.Context, bookID uuid.UUID) ([]model.BookFriend, error) {
	var friends []model.BookFriend
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("book_id = ?", bookID).
		Find(&friends).Error
	return friends, err
}

// GetSharedBooks returns books the user collaborates on
func (r *BookFriendRepository) GetSharedBooks(ctx context.Context, userID uuid.UUID) ([]model.Book, error) {
	var books []model.Book
	err := r.db.WithContext(ctx).
		Joins("JOIN book_friends ON book_friends.book_id = books.id").
		Where("book_friends.user_id = ?", userID).
		Find(&books).Error
	return books, err
}

// GetPermissions loads the permission tuple of a user for a book. It returns
// ErrBookNotFound for an unknown book and nil when the user has no access.
func (r *BookFriendRepository) GetPermissions(ctx context.Context, bookID, userID uuid.UUID) (*ability.Permissions, error) {
	var book model.Book
	err := r.db.WithContext(ctx).Select("id", "owner_id").Where("id = ?", bookID).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}

	// The owner always holds every permission
	if book.OwnerID == userID {
		p := ability.OwnerPermissions(userID.String())
		return &p, nil
	}

	var friend model.BookFriend
	err = r.db.WithContext(ctx).
		Where("book_id = ? AND user_id = ?", bookID, userID).
		First(&friend).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var pages []int
	err = r.db.WithContext(ctx).Model(&model.PageAssignment{}).
		Where("book_id = ? AND user_id = ?", bookID, userID).
		Order("page_number").
		Pluck("page_number", &pages).Error
	if err != nil {
		return nil, err
	}

	return &ability.Permissions{
		UserID:                 userID.String(),
		BookRole:               ability.BookRole(friend.BookRole),
		PageAccessLevel:        ability.PageAccessLevel(friend.PageAccessLevel),
		EditorInteractionLevel: ability.InteractionLevel(friend.EditorInteractionLevel),
		AssignedPages:          pages,
	}, nil
}
