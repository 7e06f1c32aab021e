package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/client"
	"github.com/phrazzld/taskman/internal/client/tokenstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassphrase = "test-passphrase"

// fakeAPI keeps tasks in memory for one bearer token.
type fakeAPI struct {
	mu     sync.Mutex
	tasks  map[uuid.UUID]client.Task
	idle   bool
	logout bool
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	user := map[string]any{"id": uuid.New(), "name": "Alice", "email": "alice@example.com", "role": "user"}

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user": user, "token": "access", "refresh_token": "refresh",
			"expires_at": "2030-01-01T00:00:00Z",
		})
	})

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			idle := f.idle
			f.mu.Unlock()
			if idle {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Session expired due to inactivity"})
				return
			}
			if r.Header.Get("Authorization") != "Bearer access" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not authorized, token invalid"})
				return
			}
			w.Header().Set(client.IdleExpiresHeader, "2099-01-01T00:00:00Z")
			next(w, r)
		}
	}

	mux.HandleFunc("GET /api/auth/me", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"user": user})
	}))
	mux.HandleFunc("POST /api/auth/logout", authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.logout = true
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("GET /api/tasks", authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		list := []client.Task{}
		for _, t := range f.tasks {
			list = append(list, t)
		}
		writeJSON(w, http.StatusOK, map[string]any{"tasks": list})
	}))
	mux.HandleFunc("POST /api/tasks", authed(func(w http.ResponseWriter, r *http.Request) {
		var in client.CreateTaskInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		t := client.Task{ID: uuid.New(), Title: in.Title, Description: in.Description, Status: "pending", DueDate: in.DueDate}
		f.mu.Lock()
		f.tasks[t.ID] = t
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{"task": t})
	}))
	mux.HandleFunc("DELETE /api/tasks/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		id, _ := uuid.Parse(r.PathValue("id"))
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.tasks[id]; !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Task not found"})
			return
		}
		delete(f.tasks, id)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
	}))
	return mux
}

type harness struct {
	t         *testing.T
	api       *fakeAPI
	server    string
	storePath string
	now       time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := &fakeAPI{tasks: map[uuid.UUID]client.Task{}}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	return &harness{
		t:         t,
		api:       api,
		server:    srv.URL,
		storePath: filepath.Join(t.TempDir(), tokenstore.FileName),
		now:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// run executes taskctl with args and stdin, returning stdout.
func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()

	a := newApp()
	a.now = func() time.Time { return h.now }
	a.storeOpts = []tokenstore.Option{tokenstore.WithWorkFactor(10)}
	a.v.Set("passphrase", testPassphrase)

	cmd := buildRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--server", h.server, "--store", h.storePath}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) credentials() (*tokenstore.Credentials, error) {
	store, err := tokenstore.New(h.storePath, testPassphrase)
	require.NoError(h.t, err)
	return store.Load()
}

func TestTaskctl_LoginSavesEncryptedCredentials(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	out, err := h.run("secret123\n", "login", "--email", "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Alice <alice@example.com> (user)")

	creds, err := h.credentials()
	require.NoError(t, err)
	assert.Equal(t, "access", creds.AccessToken)
	assert.Equal(t, "refresh", creds.RefreshToken)
	assert.Equal(t, h.server, creds.Server)
}

func TestTaskctl_LoginRejected(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, err := h.run("wrong\n", "login", "--email", "alice@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email or password")

	_, err = h.credentials()
	assert.ErrorIs(t, err, tokenstore.ErrNoCredentials)
}

func TestTaskctl_RequiresLogin(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, err := h.run("", "whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestTaskctl_TaskCommands(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, err := h.run("secret123\n", "login", "--email", "alice@example.com")
	require.NoError(t, err)

	out, err := h.run("", "tasks", "list")
	require.NoError(t, err)
	assert.Equal(t, "No tasks\n", out)

	out, err = h.run("", "tasks", "create", "Write report", "--due", "2030-01-05", "-d", "quarterly")
	require.NoError(t, err)
	assert.Contains(t, out, "Write report")
	assert.Contains(t, out, "2030-01-05")

	out, err = h.run("", "--json", "tasks", "list")
	require.NoError(t, err)
	var tasks []client.Task
	require.NoError(t, json.Unmarshal([]byte(out), &tasks))
	require.Len(t, tasks, 1)

	out, err = h.run("", "tasks", "delete", tasks[0].ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Task deleted successfully\n", out)

	_, err = h.run("", "tasks", "delete", tasks[0].ID.String())
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())

	creds, err := h.credentials()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC), creds.IdleExpiresAt.UTC())
}

func TestTaskctl_UpdateNeedsAField(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, err := h.run("", "tasks", "update", uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
}

func TestTaskctl_ServerIdleTimeoutClearsCredentials(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, err := h.run("secret123\n", "login", "--email", "alice@example.com")
	require.NoError(t, err)

	h.api.mu.Lock()
	h.api.idle = true
	h.api.mu.Unlock()

	_, err = h.run("", "whoami")
	assert.ErrorIs(t, err, errIdleExpired)

	_, err = h.credentials()
	assert.ErrorIs(t, err, tokenstore.ErrNoCredentials)
}

func TestTaskctl_LocalIdleDeadlineClearsCredentials(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, err := h.run("secret123\n", "login", "--email", "alice@example.com")
	require.NoError(t, err)
	_, err = h.run("", "whoami")
	require.NoError(t, err)

	h.now = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = h.run("", "tasks", "list")
	assert.ErrorIs(t, err, errIdleExpired)
}

func TestTaskctl_Logout(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	out, err := h.run("", "logout")
	require.NoError(t, err)
	assert.Equal(t, "Not logged in\n", out)

	_, err = h.run("secret123\n", "login", "--email", "alice@example.com")
	require.NoError(t, err)

	out, err = h.run("", "logout")
	require.NoError(t, err)
	assert.Equal(t, "Logged out\n", out)
	h.api.mu.Lock()
	assert.True(t, h.api.logout)
	h.api.mu.Unlock()

	_, err = h.credentials()
	assert.ErrorIs(t, err, tokenstore.ErrNoCredentials)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := parseDate("2030-02-03")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 2, 3, 0, 0, 0, 0, time.UTC), d)

	_, err = parseDate("2030-02-03T10:00:00+02:00")
	require.NoError(t, err)

	_, err = parseDate("tomorrow")
	assert.Error(t, err)
}

func TestDueLabel(t *testing.T) {
	t.Parallel()

	now := time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC)
	past := client.Task{Status: "pending", DueDate: time.Date(2030, 1, 5, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "2030-01-05 (overdue)", dueLabel(past, now))

	past.Status = "completed"
	assert.Equal(t, "2030-01-05", dueLabel(past, now))
}
