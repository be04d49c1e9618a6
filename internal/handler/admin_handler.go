package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"photobook/internal/middleware"
	"photobook/internal/model"
	"photobook/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdminBookStore interface {
	List(ctx context.Context) ([]model.Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type AdminUserStore interface {
	List(ctx context.Context) ([]model.User, error)
	SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ThemeStore interface {
	ListThemes(ctx context.Context) ([]model.Theme, error)
	CreateTheme(ctx context.Context, t *model.Theme) error
	UpdateTheme(ctx context.Context, t *model.Theme) error
	DeleteTheme(ctx context.Context, id uuid.UUID) error
	ListPalettes(ctx context.Context) ([]model.ColorPalette, error)
	CreatePalette(ctx context.Context, p *model.ColorPalette) error
	UpdatePalette(ctx context.Context, p *model.ColorPalette) error
	DeletePalette(ctx context.Context, id uuid.UUID) error
}

type AdminHandler struct {
	books  AdminBookStore
	users  AdminUserStore
	themes ThemeStore
}

func NewAdminHandler(books AdminBookStore, users AdminUserStore, themes ThemeStore) *AdminHandler {
	return &AdminHandler{books: books, users: users, themes: themes}
}

type AdminBookResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	OwnerID    string `json:"owner_id"`
	OwnerEmail string `json:"owner_email"`
	CreatedAt  string `json:"created_at"`
}

type SetAdminRequest struct {
	IsAdmin *bool `json:"is_admin" binding:"required"`
}

type ThemeRequest struct {
	Name   string          `json:"name" binding:"required"`
	Config json.RawMessage `json:"config" binding:"required"`
}

type PaletteRequest struct {
	Name   string          `json:"name" binding:"required"`
	Colors json.RawMessage `json:"colors" binding:"required"`
}

type ThemeResponse struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Config model.JSONB `json:"config"`
}

type PaletteResponse struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Colors model.JSONB `json:"colors"`
}

// ListBooks godoc
// @Summary      All books
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} AdminBookResponse
// @Router       /admin/books [get]
func (h *AdminHandler) ListBooks(c *gin.Context) {
	books, err := h.books.List(c.Request.Context())
	if err != nil {
		internalError(c, err, "Failed to retrieve books")
		return
	}
	response := make([]AdminBookResponse, len(books))
	for i, b := range books {
		response[i] = AdminBookResponse{
			ID:         b.ID.String(),
			Name:       b.Name,
			OwnerID:    b.OwnerID.String(),
			OwnerEmail: b.Owner.Email,
			CreatedAt:  b.CreatedAt.Format(http.TimeFormat),
		}
	}
	c.JSON(http.StatusOK, response)
}

// DeleteBook godoc
// @Summary      Delete a book with its pages and collaborators
// @Tags         Admin
// @Security     BearerAuth
// @Param        id path string true "Book ID"
// @Success      204
// @Router       /admin/books/{id} [delete]
func (h *AdminHandler) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "book")
	if !ok {
		return
	}
	err := h.books.Delete(c.Request.Context(), id)
	if errors.Is(err, repository.ErrBookNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}
	if err != nil {
		internalError(c, err, "Failed to delete book")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListUsers godoc
// @Summary      All users
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} UserResponse
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		internalError(c, err, "Failed to retrieve users")
		return
	}
	response := make([]UserResponse, len(users))
	for i := range users {
		response[i] = toUserResponse(&users[i])
	}
	c.JSON(http.StatusOK, response)
}

// SetAdmin godoc
// @Summary      Grant or revoke administrator rights
// @Tags         Admin
// @Accept       json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Param        request body SetAdminRequest true "Flag"
// @Success      204
// @Router       /admin/users/{id} [put]
func (h *AdminHandler) SetAdmin(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "user")
	if !ok {
		return
	}
	var req SetAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if current, _ := middleware.CurrentUserID(c); current == id && !*req.IsAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot revoke your own administrator rights"})
		return
	}
	if err := h.users.SetAdmin(c.Request.Context(), id, *req.IsAdmin); err != nil {
		internalError(c, err, "Failed to update user")
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteUser godoc
// @Summary      Delete a user
// @Tags         Admin
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      204
// @Router       /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "user")
	if !ok {
		return
	}
	if current, _ := middleware.CurrentUserID(c); current == id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete yourself"})
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		internalError(c, err, "Failed to delete user")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListThemes godoc
// @Summary      Themes available to books
// @Tags         Themes
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} ThemeResponse
// @Router       /themes [get]
func (h *AdminHandler) ListThemes(c *gin.Context) {
	themes, err := h.themes.ListThemes(c.Request.Context())
	if err != nil {
		internalError(c, err, "Failed to retrieve themes")
		return
	}
	response := make([]ThemeResponse, len(themes))
	for i, t := range themes {
		response[i] = ThemeResponse{ID: t.ID.String(), Name: t.Name, Config: t.Config}
	}
	c.JSON(http.StatusOK, response)
}

// CreateTheme godoc
// @Summary      Create a theme
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ThemeRequest true "Theme"
// @Success      201 {object} ThemeResponse
// @Router       /admin/themes [post]
func (h *AdminHandler) CreateTheme(c *gin.Context) {
	var req ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	t := &model.Theme{ID: uuid.New(), Name: req.Name, Config: model.JSONB(req.Config)}
	if err := h.themes.CreateTheme(c.Request.Context(), t); err != nil {
		internalError(c, err, "Failed to create theme")
		return
	}
	c.JSON(http.StatusCreated, ThemeResponse{ID: t.ID.String(), Name: t.Name, Config: t.Config})
}

// UpdateTheme godoc
// @Summary      Update a theme
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Theme ID"
// @Param        request body ThemeRequest true "Theme"
// @Success      200 {object} ThemeResponse
// @Router       /admin/themes/{id} [put]
func (h *AdminHandler) UpdateTheme(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "theme")
	if !ok {
		return
	}
	var req ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	t := &model.Theme{ID: id, Name: req.Name, Config: model.JSONB(req.Config)}
	if !h.themeResult(c, h.themes.UpdateTheme(c.Request.Context(), t), "Failed to update theme") {
		return
	}
	c.JSON(http.StatusOK, ThemeResponse{ID: t.ID.String(), Name: t.Name, Config: t.Config})
}

// DeleteTheme godoc
// @Summary      Delete a theme
// @Tags         Admin
// @Security     BearerAuth
// @Param        id path string true "Theme ID"
// @Success      204
// @Router       /admin/themes/{id} [delete]
func (h *AdminHandler) DeleteTheme(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "theme")
	if !ok {
		return
	}
	if !h.themeResult(c, h.themes.DeleteTheme(c.Request.Context(), id), "Failed to delete theme") {
		return
	}
	c.Status(http.StatusNoContent)
}

// ListPalettes godoc
// @Summary      Color palettes available to books
// @Tags         Themes
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} PaletteResponse
// @Router       /palettes [get]
func (h *AdminHandler) ListPalettes(c *gin.Context) {
	palettes, err := h.themes.ListPalettes(c.Request.Context())
	if err != nil {
		internalError(c, err, "Failed to retrieve palettes")
		return
	}
	response := make([]PaletteResponse, len(palettes))
	for i, p := range palettes {
		response[i] = PaletteResponse{ID: p.ID.String(), Name: p.Name, Colors: p.Colors}
	}
	c.JSON(http.StatusOK, response)
}

// CreatePalette godoc
// @Summary      Create a color palette
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body PaletteRequest true "Palette"
// @Success      201 {object} PaletteResponse
// @Router       /admin/palettes [post]
func (h *AdminHandler) CreatePalette(c *gin.Context) {
	var req PaletteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	p := &model.ColorPalette{ID: uuid.New(), Name: req.Name, Colors: model.JSONB(req.Colors)}
	if err := h.themes.CreatePalette(c.Request.Context(), p); err != nil {
		internalError(c, err, "Failed to create palette")
		return
	}
	c.JSON(http.StatusCreated, PaletteResponse{ID: p.ID.String(), Name: p.Name, Colors: p.Colors})
}

// UpdatePalette godoc
// @Summary      Update a color palette
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Palette ID"
// @Param        request body PaletteRequest true "Palette"
// @Success      200 {object} PaletteResponse
// @Router       /admin/palettes/{id} [put]
func (h *AdminHandler) UpdatePalette(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "palette")
	if !ok {
		return
	}
	var req PaletteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	p := &model.ColorPalette{ID: id, Name: req.Name, Colors: model.JSONB(req.Colors)}
	if !h.themeResult(c, h.themes.UpdatePalette(c.Request.Context(), p), "Failed to update palette") {
		return
	}
	c.JSON(http.StatusOK, PaletteResponse{ID: p.ID.String(), Name: p.Name, Colors: p.Colors})
}

// DeletePalette godoc
// @Summary      Delete a color palette
// @Tags         Admin
// @Security     BearerAuth
// @Param        id path string true "Palette ID"
// @Success      204
// @Router       /admin/palettes/{id} [delete]
func (h *AdminHandler) DeletePalette(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "palette")
	if !ok {
		return
	}
	if !h.themeResult(c, h.themes.DeletePalette(c.Request.Context(), id), "Failed to delete palette") {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) themeResult(c *gin.Context, err error, msg string) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, repository.ErrThemeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		internalError(c, err, msg)
	}
	return false
}
