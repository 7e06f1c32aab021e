// Package seed loads demo users and tasks into an empty or partially seeded
// database. Fixtures are YAML, embedded in the binary by default.
package seed

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/platform/logger"
	"github.com/phrazzld/taskman/internal/service/auth"
	"github.com/phrazzld/taskman/internal/store"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Fixtures is the document shape of a seed file.
type Fixtures struct {
	Users []UserFixture `yaml:"users"`
	Tasks []TaskFixture `yaml:"tasks"`
}

// UserFixture describes one user. Role defaults to user.
type UserFixture struct {
	Name     string      `yaml:"name"`
	Email    string      `yaml:"email"`
	Password string      `yaml:"password"`
	Role     domain.Role `yaml:"role"`
}

// TaskFixture describes one task owned by the user with the Owner email.
type TaskFixture struct {
	Owner       string            `yaml:"owner"`
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Status      domain.TaskStatus `yaml:"status"`
	DueInDays   int               `yaml:"due_in_days"`
}

// Result counts what a Run changed.
type Result struct {
	UsersCreated int
	UsersSkipped int
	TasksCreated int
}

// ParseFixtures decodes a YAML seed document, rejecting unknown keys.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("failed to parse seed fixtures: %w", err)
	}
	return &fx, nil
}

// DefaultFixtures returns the embedded demo data.
func DefaultFixtures() (*Fixtures, error) {
	return ParseFixtures(defaultFixtures)
}

// Seeder writes fixtures through the regular stores.
type Seeder struct {
	db     *sql.DB
	users  store.UserStore
	tasks  store.TaskStore
	hasher auth.PasswordHasher
	now    func() time.Time
	logger *slog.Logger
}

// New creates a Seeder.
func New(
	db *sql.DB,
	users store.UserStore,
	tasks store.TaskStore,
	hasher auth.PasswordHasher,
	logger *slog.Logger,
) *Seeder {
	if db == nil {
		panic("db cannot be nil") // ALLOW-PANIC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		db:     db,
		users:  users,
		tasks:  tasks,
		hasher: hasher,
		now:    time.Now,
		logger: logger.With(slog.String("component", "seeder")),
	}
}

// Run inserts the fixtures in a single transaction. Users whose email already
// exists are skipped together with their tasks, so running twice is harmless.
func (s *Seeder) Run(ctx context.Context, fx *Fixtures) (Result, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	var res Result

	today := s.now().UTC().Truncate(24 * time.Hour)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		users := s.users.WithTx(tx)
		tasks := s.tasks.WithTx(tx)

		created := make(map[string]*domain.User, len(fx.Users))
		for _, uf := range fx.Users {
			email := domain.NormalizeEmail(uf.Email)
			if _, err := users.GetByEmail(ctx, email); err == nil {
				res.UsersSkipped++
				log.Debug("seed user already exists", slog.String("email", email))
				continue
			} else if !errors.Is(err, store.ErrUserNotFound) {
				return fmt.Errorf("failed to look up %s: %w", email, err)
			}

			user, err := s.buildUser(uf)
			if err != nil {
				return fmt.Errorf("invalid seed user %s: %w", email, err)
			}
			if err := users.Create(ctx, user); err != nil {
				return fmt.Errorf("failed to create seed user %s: %w", email, err)
			}
			created[user.Email] = user
			res.UsersCreated++
		}

		for _, tf := range fx.Tasks {
			owner, ok := created[domain.NormalizeEmail(tf.Owner)]
			if !ok {
				continue
			}
			due := today.AddDate(0, 0, tf.DueInDays)
			task, err := domain.NewTask(owner.ID, tf.Title, tf.Description, tf.Status, due)
			if err != nil {
				return fmt.Errorf("invalid seed task %q: %w", tf.Title, err)
			}
			if err := tasks.Create(ctx, task); err != nil {
				return fmt.Errorf("failed to create seed task %q: %w", tf.Title, err)
			}
			res.TasksCreated++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	log.Info("seed completed",
		slog.Int("users_created", res.UsersCreated),
		slog.Int("users_skipped", res.UsersSkipped),
		slog.Int("tasks_created", res.TasksCreated))
	return res, nil
}

func (s *Seeder) buildUser(uf UserFixture) (*domain.User, error) {
	user, err := domain.NewUser(uf.Name, uf.Email, uf.Password)
	if err != nil {
		return nil, err
	}
	if uf.Role != "" {
		user.Role = uf.Role
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(uf.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = hash
	user.Password = ""
	return user, nil
}
