package client

import (
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Tokens are the credentials issued by login, register and refresh.
type Tokens struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// User mirrors the server's user representation.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool { return u.Role == "admin" }

// Task mirrors the server's task representation.
type Task struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	DueDate     time.Time `json:"due_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Session is the result of a login or registration.
type Session struct {
	User   User
	Tokens Tokens
}

// ListOptions filters task listings. Zero fields are omitted.
type ListOptions struct {
	Status    string
	DueBefore time.Time
	DueAfter  time.Time
	Limit     int
	Offset    int
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	if !o.DueBefore.IsZero() {
		q.Set("due_before", o.DueBefore.UTC().Format(time.RFC3339))
	}
	if !o.DueAfter.IsZero() {
		q.Set("due_after", o.DueAfter.UTC().Format(time.RFC3339))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// CreateTaskInput is the body of a task creation. Status defaults to pending.
type CreateTaskInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status,omitempty"`
	DueDate     time.Time `json:"due_date"`
}

// UpdateTaskInput is a partial update; nil fields are left unchanged.
type UpdateTaskInput struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type authResponse struct {
	User User `json:"user"`
	Tokens
}

type userEnvelope struct {
	User User `json:"user"`
}

type usersEnvelope struct {
	Users []User `json:"users"`
}

type taskEnvelope struct {
	Task Task `json:"task"`
}

type tasksEnvelope struct {
	Tasks []Task `json:"tasks"`
}

type messageResponse struct {
	Message string `json:"message"`
}
