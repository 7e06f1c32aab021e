package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,min=2,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	// RefreshToken is the JWT refresh token to be used to obtain a new token pair
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UserResponse is the public view of a user. Password hashes never leave the server.
type UserResponse struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// AuthResponse defines the successful response for register and login.
type AuthResponse struct {
	User UserResponse `json:"user"`

	// Token is the JWT access token used for API authorization
	Token string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token"`

	// ExpiresAt is the RFC 3339 timestamp when the access token expires
	ExpiresAt string `json:"expires_at"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// UserEnvelope wraps a single user.
type UserEnvelope struct {
	User UserResponse `json:"user"`
}

// UserListResponse wraps a list of users.
type UserListResponse struct {
	Users []UserResponse `json:"users"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title       string     `json:"title"       validate:"required,max=255"`
	Description string     `json:"description"`
	Status      string     `json:"status"      validate:"omitempty,oneof=pending in-progress completed"`
	DueDate     *time.Time `json:"due_date"    validate:"required"`
}

// NullableString tells an absent JSON field apart from an explicit null.
type NullableString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON is only invoked when the field is present, null included.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// UpdateTaskRequest defines a partial task update. Omitted fields are
// unchanged; a null description clears it.
type UpdateTaskRequest struct {
	Title       *string        `json:"title"       validate:"omitempty,min=1,max=255"`
	Description NullableString `json:"description"`
	Status      *string    `json:"status"      validate:"omitempty,oneof=pending in-progress completed"`
	DueDate     *time.Time `json:"due_date"`
}

// toDomain converts the request into a domain.TaskUpdate.
func (r UpdateTaskRequest) toDomain() domain.TaskUpdate {
	u := domain.TaskUpdate{
		Title:   r.Title,
		DueDate: r.DueDate,
	}
	if r.Description.Set {
		var desc string
		if r.Description.Value != nil {
			desc = *r.Description.Value
		}
		u.Description = &desc
	}
	if r.Status != nil {
		status := domain.TaskStatus(*r.Status)
		u.Status = &status
	}
	return u
}

// TaskResponse is the public view of a task.
type TaskResponse struct {
	ID          uuid.UUID         `json:"id"`
	UserID      uuid.UUID         `json:"user_id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      domain.TaskStatus `json:"status"`
	DueDate     time.Time         `json:"due_date"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TaskEnvelope wraps a single task.
type TaskEnvelope struct {
	Task TaskResponse `json:"task"`
}

// TaskListResponse wraps a list of tasks.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

// WelcomeResponse is served at the API root.
type WelcomeResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func usersToResponse(users []*domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userToResponse(u))
	}
	return out
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskToResponse(t))
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
