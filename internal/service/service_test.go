package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/taskman/internal/platform/sqlite"
	"github.com/phrazzld/taskman/internal/service"
	"github.com/phrazzld/taskman/internal/service/auth"
	"github.com/phrazzld/taskman/internal/testdb"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source shared with the service under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now().UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	db       *sql.DB
	users    *sqlite.UserStore
	tasks    *sqlite.TaskStore
	sessions *sqlite.SessionStore
	clock    *fakeClock
	auth     service.AuthService
	taskSvc  service.TaskService
	userSvc  service.UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testdb.NewSQLite(t)
	f := &fixture{
		db:       db,
		users:    sqlite.NewUserStore(db, nil),
		tasks:    sqlite.NewTaskStore(db, nil),
		sessions: sqlite.NewSessionStore(db, nil),
		clock:    newFakeClock(),
	}

	cfg := auth.DefaultJWTConfig()
	jwtService, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	f.auth, err = service.NewAuthService(db, f.users, f.sessions, jwtService,
		auth.NewBcryptVerifier(cfg.BCryptCost), cfg, nil, service.WithClock(f.clock.Now))
	require.NoError(t, err)

	f.taskSvc, err = service.NewTaskService(db, f.tasks, nil)
	require.NoError(t, err)

	f.userSvc = service.NewUserService(f.users, nil)
	return f
}

func (f *fixture) register(t *testing.T, name, email string) *service.AuthResult {
	t.Helper()
	res, err := f.auth.Register(context.Background(), name, email, "password123")
	require.NoError(t, err)
	return res
}
