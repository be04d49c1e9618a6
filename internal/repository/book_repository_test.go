package repository_test

import (
	"context"
	"testing"

	"photobook/internal/model"
	"photobook/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBookRepository_UpdatePages(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewBookRepository(gormDB)
	bookID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "pages" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "pages" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdatePages(context.Background(), bookID, []model.Page{
		{ID: uuid.New(), Elements: model.JSONB("[]"), Background: model.JSONB(`{"type":"color","value":"#fff"}`)},
		{ID: uuid.New(), Elements: model.JSONB("[]"), Background: model.JSONB(`{"type":"color","value":"#fff"}`)},
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_UpdatePages_ForeignPage(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewBookRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "pages" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.UpdatePages(context.Background(), uuid.New(), []model.Page{
		{ID: uuid.New(), Elements: model.JSONB("[]"), Background: model.JSONB("{}")},
	})

	assert.ErrorIs(t, err, repository.ErrPageNotInBook)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_UpdatePages_Empty(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewBookRepository(gormDB)

	assert.NoError(t, repo.UpdatePages(context.Background(), uuid.New(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func pageRow(number int) model.Page {
	return model.Page{
		ID:         uuid.New(),
		PageNumber: number,
		Elements:   model.JSONB("[]"),
		Background: model.JSONB(`{"type":"color","value":"#fff"}`),
	}
}

func TestBookRepository_SaveBook(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewBookRepository(gormDB)
	book := &model.Book{ID: uuid.New(), Name: "Class of 2026", PageSize: "A4", Orientation: "portrait"}
	kept, added := pageRow(1), pageRow(2)
	question := model.Question{ID: uuid.New(), BookID: book.ID, Text: "Motto?"}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "books" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "pages" SET .* WHERE id = .* AND book_id = `).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "pages"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(added.ID.String()))
	mock.ExpectExec(`DELETE FROM "pages" WHERE book_id = .* AND id NOT IN`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "questions" .* ON CONFLICT \("id"\) DO UPDATE SET .* WHERE questions.book_id = excluded.book_id`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SaveBook(context.Background(), book, []repository.PageWrite{
		{Page: kept},
		{Page: added, Insert: true},
	}, []model.Question{question}, true)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_SaveBook_QuestionsInsertOnly(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewBookRepository(gormDB)
	book := &model.Book{ID: uuid.New(), Name: "Class of 2026"}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "books" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "pages" WHERE book_id = `).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO "questions" .* ON CONFLICT \("id"\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.SaveBook(context.Background(), book, nil, []model.Question{
		{ID: uuid.New(), BookID: book.ID, Text: "rewritten"},
	}, false)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_SaveBook_ForeignPage(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewBookRepository(gormDB)
	book := &model.Book{ID: uuid.New(), Name: "Class of 2026"}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "books" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "pages" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.SaveBook(context.Background(), book, []repository.PageWrite{{Page: pageRow(1)}}, nil, true)

	assert.ErrorIs(t, err, repository.ErrPageNotInBook)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_GetWithPages_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewBookRepository(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "books" WHERE id = .*`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	book, err := repo.GetWithPages(context.Background(), uuid.New())

	assert.NoError(t, err)
	assert.Nil(t, book)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_Delete_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewBookRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "pages"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "page_assignments"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "book_friends"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "books"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), uuid.New())

	assert.ErrorIs(t, err, repository.ErrBookNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThemeRepository_DeleteTheme_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewThemeRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "themes"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.DeleteTheme(context.Background(), uuid.New())

	assert.ErrorIs(t, err, repository.ErrThemeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
