package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/config"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/database"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/dto"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopMessenger struct{}

func (nopMessenger) SendText(context.Context, int64, string) error          { return nil }
func (nopMessenger) SendPhoto(context.Context, int64, string, string) error { return nil }

type testServer struct {
	app    *fiber.App
	tokens *services.TokenService
	roles  *services.RoleService
}

func newTestServer(t *testing.T, secret string) *testServer {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		OwnerID:       1,
		DBDriver:      config.DriverSQLite,
		DBPath:        filepath.Join(dir, "linkbot.db"),
		BackupDir:     filepath.Join(dir, "backups"),
		BackupKeep:    3,
		MaxFileSize:   1024,
		MaxTextLength: 200,
		OpsJWTSecret:  secret,
		OpsTokenTTL:   time.Hour,
	}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db))

	users := services.NewUserService(db, cfg, nopMessenger{})
	roles := services.NewRoleService(db, cfg, users)

	app := fiber.New()
	Setup(app, cfg, roles,
		handlers.NewHealthHandler(db, cfg),
		handlers.NewAdminHandler(services.NewStatsService(db), services.NewBackupService(db, cfg)),
	)
	return &testServer{app: app, tokens: services.NewTokenService(cfg), roles: roles}
}

func (s *testServer) do(t *testing.T, method, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")
	resp := s.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.DB)
	assert.Equal(t, config.DriverSQLite, body.Driver)
}

func TestMetricsExposed(t *testing.T) {
	s := newTestServer(t, "")
	resp := s.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminDisabledWithoutSecret(t *testing.T) {
	s := newTestServer(t, "")
	resp := s.do(t, http.MethodGet, "/api/admin/stats", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminAuth(t *testing.T) {
	s := newTestServer(t, "secret")

	resp := s.do(t, http.MethodGet, "/api/admin/stats", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/admin/stats", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	stranger, err := s.tokens.Issue(999, time.Hour)
	require.NoError(t, err)
	resp = s.do(t, http.MethodGet, "/api/admin/stats", stranger)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	owner, err := s.tokens.Issue(1, time.Hour)
	require.NoError(t, err)
	resp = s.do(t, http.MethodGet, "/api/admin/stats", owner)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body, "overview")
	assert.Contains(t, body, "detailed")
}

func TestAdminBackups(t *testing.T) {
	s := newTestServer(t, "secret")
	_, err := s.roles.AddAdmin(context.Background(), "42", 1)
	require.NoError(t, err)
	token, err := s.tokens.Issue(42, time.Hour)
	require.NoError(t, err)

	resp := s.do(t, http.MethodPost, "/api/admin/backups", token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created dto.BackupResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.Name)

	resp = s.do(t, http.MethodGet, "/api/admin/backups", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.BackupListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, created.Name, list.Backups[0].Name)
}
