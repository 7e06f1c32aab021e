package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apiMiddleware "github.com/phrazzld/taskman/internal/api/middleware"
	"github.com/phrazzld/taskman/internal/config"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/platform/migrations"
	"github.com/phrazzld/taskman/internal/seed"
	"github.com/phrazzld/taskman/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:                   8080,
			LogLevel:               "error",
			CORSAllowedOrigins:     []string{"http://localhost:3000"},
			ReadTimeoutSeconds:     5,
			WriteTimeoutSeconds:    5,
			IdleTimeoutSeconds:     5,
			ShutdownTimeoutSeconds: 5,
			MaxBodyBytes:           1 << 16,
		},
		Database: config.DatabaseConfig{
			Driver:                 migrations.DriverSQLite,
			URL:                    "file::memory:",
			MaxOpenConns:           1,
			ConnMaxLifetimeMinutes: 1,
		},
		Auth: config.AuthConfig{
			JWTSecret:                   "test-secret-that-is-at-least-32-characters",
			BCryptCost:                  4,
			TokenLifetimeMinutes:        60,
			RefreshTokenLifetimeMinutes: 1440,
			IdleTimeoutMinutes:          30,
		},
		Jobs: config.JobsConfig{
			WorkerCount:          1,
			QueueSize:            10,
			SweepIntervalMinutes: 15,
		},
	}
}

// testServer builds the full application on a fresh SQLite database with the
// demo fixtures loaded.
func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, _ := testServerWithApp(t)
	return srv
}

func testServerWithApp(t *testing.T) (*httptest.Server, *application) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := testdb.NewSQLite(t)

	app, err := newApplication(testConfig(), log, db)
	require.NoError(t, err)

	fx, err := seed.DefaultFixtures()
	require.NoError(t, err)
	_, err = seed.New(db, app.userStore, app.taskStore, app.passwords, log).Run(context.Background(), fx)
	require.NoError(t, err)

	srv := httptest.NewServer(app.setupRouter())
	t.Cleanup(srv.Close)
	return srv, app
}

type apiClient struct {
	t     *testing.T
	base  string
	token string
}

func (c *apiClient) do(method, path string, body any) (*http.Response, map[string]any) {
	c.t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.base+path, r)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	var out map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func (c *apiClient) login(email, password string) {
	c.t.Helper()
	resp, body := c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(c.t, http.StatusOK, resp.StatusCode, body)
	c.token = body["token"].(string)
}

func TestRouter_PublicEndpoints(t *testing.T) {
	t.Parallel()
	srv := testServer(t)
	c := &apiClient{t: t, base: srv.URL}

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(raw))

	resp, body := c.do(http.MethodGet, "/api", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Welcome to the Task Management API", body["message"])
	assert.Equal(t, version, body["version"])

	resp, body = c.do(http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found", body["error"])

	resp, body = c.do(http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Not authorized, no token", body["error"])

	resp, _ = c.do(http.MethodPatch, "/api/auth/login", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRouter_TaskLifecycle(t *testing.T) {
	t.Parallel()
	srv := testServer(t)

	alice := &apiClient{t: t, base: srv.URL}
	resp, body := alice.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	alice.token = body["token"].(string)
	assert.Equal(t, "user", body["user"].(map[string]any)["role"])

	resp, body = alice.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "Alice Again",
		"email":    "ALICE@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User with this email already exists", body["error"])

	due := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	resp, body = alice.do(http.MethodPost, "/api/tasks", map[string]string{
		"title":    "Write report",
		"due_date": due,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.NotEmpty(t, resp.Header.Get(apiMiddleware.IdleExpiresHeader))
	task := body["task"].(map[string]any)
	assert.Equal(t, "pending", task["status"])
	taskID := task["id"].(string)

	resp, body = alice.do(http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["tasks"], 1)

	resp, body = alice.do(http.MethodGet, "/api/tasks/due-soon", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["tasks"], 1)

	resp, body = alice.do(http.MethodPut, "/api/tasks/"+taskID, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "completed", body["task"].(map[string]any)["status"])
	assert.Equal(t, "Write report", body["task"].(map[string]any)["title"])

	bob := &apiClient{t: t, base: srv.URL}
	bob.login("user@example.com", "user123")

	resp, body = bob.do(http.MethodGet, "/api/tasks/"+taskID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Task not found", body["error"])

	resp, _ = bob.do(http.MethodDelete, "/api/tasks/"+taskID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = bob.do(http.MethodGet, "/api/admin/users", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Not authorized, admin access required", body["error"])

	resp, body = alice.do(http.MethodDelete, "/api/tasks/"+taskID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Task deleted successfully", body["message"])

	resp, _ = alice.do(http.MethodGet, "/api/tasks/"+taskID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_AdminAndSession(t *testing.T) {
	t.Parallel()
	srv := testServer(t)

	admin := &apiClient{t: t, base: srv.URL}
	admin.login("admin@example.com", "admin123")

	resp, body := admin.do(http.MethodGet, "/api/admin/users", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["users"], 2)

	resp, body = admin.do(http.MethodGet, "/api/admin/tasks", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tasks := body["tasks"].([]any)
	require.Len(t, tasks, 5)

	id := tasks[0].(map[string]any)["id"].(string)
	resp, _ = admin.do(http.MethodGet, "/api/admin/tasks/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = admin.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "admin", body["user"].(map[string]any)["role"])

	resp, _ = admin.do(http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = admin.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_DemotedAdminLosesAccess(t *testing.T) {
	t.Parallel()
	srv, app := testServerWithApp(t)
	ctx := context.Background()

	admin := &apiClient{t: t, base: srv.URL}
	admin.login("admin@example.com", "admin123")

	resp, _ := admin.do(http.MethodGet, "/api/admin/users", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	user, err := app.userStore.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	user.Role = domain.RoleUser
	require.NoError(t, app.userStore.Update(ctx, user))

	resp, body := admin.do(http.MethodGet, "/api/admin/users", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Not authorized, admin access required", body["error"])

	resp, _ = admin.do(http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "still a valid user session")
}

func TestLimitBody(t *testing.T) {
	t.Parallel()

	h := limitBody(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok")))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestLoadFixtures_Default(t *testing.T) {
	t.Parallel()

	fx, err := loadFixtures("")
	require.NoError(t, err)
	assert.Len(t, fx.Users, 2)

	_, err = loadFixtures("does-not-exist.yaml")
	assert.Error(t, err)
}
