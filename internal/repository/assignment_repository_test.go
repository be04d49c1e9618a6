package repository_test

import (
	"context"
	"errors"
	"testing"

	"photobook/internal/model"
	"photobook/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPageAssignmentRepository_Replace(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewPageAssignmentRepository(gormDB)
	bookID, userID := uuid.New(), uuid.New()
	assignments := []model.PageAssignment{
		{ID: uuid.New(), PageNumber: 2, UserID: userID},
		{ID: uuid.New(), PageNumber: 3, UserID: userID},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "page_assignments" WHERE book_id = `).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "page_assignments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow(assignments[0].ID.String()).
			AddRow(assignments[1].ID.String()))
	mock.ExpectCommit()

	err := repo.Replace(context.Background(), bookID, assignments)

	assert.NoError(t, err)
	assert.Equal(t, bookID, assignments[0].BookID)
	assert.Equal(t, bookID, assignments[1].BookID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPageAssignmentRepository_Replace_Clear(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewPageAssignmentRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "page_assignments"`).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	assert.NoError(t, repo.Replace(context.Background(), uuid.New(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPageAssignmentRepository_Replace_InsertFails(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewPageAssignmentRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "page_assignments"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "page_assignments"`).WillReturnError(errors.New("duplicate page"))
	mock.ExpectRollback()

	err := repo.Replace(context.Background(), uuid.New(), []model.PageAssignment{{ID: uuid.New(), PageNumber: 1, UserID: uuid.New()}})

	assert.ErrorContains(t, err, "duplicate page")
	assert.NoError(t, mock.ExpectationsWereMet())
}
