package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"photobook/internal/auth"
	"photobook/internal/config"
	"photobook/internal/server"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const secret = "route-test-secret"

func setupServer(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db, PreferSimpleProtocol: true}), &gorm.Config{})
	require.NoError(t, err)

	r := gin.New()
	server.Routes(r, server.NewRepositories(gormDB), &config.Config{JWTSecret: secret, JWTExpiry: time.Hour}, zerolog.Nop())
	return r, mock
}

func request(t *testing.T, r *gin.Engine, method, path string, userID uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	req, _ := http.NewRequest(method, path, nil)
	if userID != uuid.Nil {
		token, err := auth.GenerateToken(secret, userID.String(), time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestRoutes_RequireToken(t *testing.T) {
	r, _ := setupServer(t)

	for _, path := range []string{"/books", "/books/" + uuid.NewString(), "/admin/users", "/themes"} {
		assert.Equal(t, http.StatusUnauthorized, request(t, r, http.MethodGet, path, uuid.Nil).Code, path)
	}
}

func TestRoutes_BookWithoutAccess(t *testing.T) {
	r, mock := setupServer(t)
	bookID := uuid.New()

	mock.ExpectQuery(`SELECT "id","owner_id" FROM "books"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id"}).AddRow(bookID.String(), uuid.NewString()))
	mock.ExpectQuery(`SELECT \* FROM "book_friends"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	resp := request(t, r, http.MethodGet, "/books/"+bookID.String(), uuid.New())

	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoutes_MalformedBookID(t *testing.T) {
	r, _ := setupServer(t)

	resp := request(t, r, http.MethodGet, "/books/not-a-uuid", uuid.New())

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRoutes_AdminOnly(t *testing.T) {
	r, mock := setupServer(t)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = .*`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "is_admin"}).
			AddRow(userID.String(), "ana@example.com", "Ana", false))

	resp := request(t, r, http.MethodGet, "/admin/users", userID)

	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
