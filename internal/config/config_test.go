package config_test

import (
	"testing"
	"time"

	"photobook/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_EXPIRY_HOURS", "")
	t.Setenv("ADMIN_EMAILS", "")

	cfg := config.Load()

	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Empty(t, cfg.AdminEmails)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("RUN_MIGRATIONS", "false")
	t.Setenv("ADMIN_EMAILS", " admin@example.com , ,Head@School.org")

	cfg := config.Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.False(t, cfg.RunMigrations)
	assert.Equal(t, []string{"admin@example.com", "Head@School.org"}, cfg.AdminEmails)
	assert.True(t, cfg.IsAdminEmail("head@school.org"))
	assert.False(t, cfg.IsAdminEmail("student@school.org"))
}

func TestLoad_InvalidExpiryFallsBack(t *testing.T) {
	t.Setenv("JWT_EXPIRY_HOURS", "-3")

	assert.Equal(t, 24*time.Hour, config.Load().JWTExpiry)
}
