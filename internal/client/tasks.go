package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ListTasks returns the caller's tasks, newest first.
func (c *Client) ListTasks(ctx context.Context, opts ListOptions) ([]Task, error) {
	var resp tasksEnvelope
	if err := c.get(ctx, "/api/tasks"+opts.query(), &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// DueSoon returns open tasks due within the window. A zero window uses the
// server default of 72 hours.
func (c *Client) DueSoon(ctx context.Context, within time.Duration) ([]Task, error) {
	path := "/api/tasks/due-soon"
	if within > 0 {
		hours := int(within.Hours())
		if hours < 1 {
			hours = 1
		}
		path = fmt.Sprintf("%s?within_hours=%d", path, hours)
	}

	var resp tasksEnvelope
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// GetTask returns one of the caller's tasks.
func (c *Client) GetTask(ctx context.Context, id uuid.UUID) (*Task, error) {
	var resp taskEnvelope
	if err := c.get(ctx, "/api/tasks/"+id.String(), &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

// CreateTask creates a task owned by the caller.
func (c *Client) CreateTask(ctx context.Context, in CreateTaskInput) (*Task, error) {
	var resp taskEnvelope
	if err := c.post(ctx, "/api/tasks", in, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

// UpdateTask applies a partial update.
func (c *Client) UpdateTask(ctx context.Context, id uuid.UUID, in UpdateTaskInput) (*Task, error) {
	var resp taskEnvelope
	if err := c.put(ctx, "/api/tasks/"+id.String(), in, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

// DeleteTask deletes one of the caller's tasks.
func (c *Client) DeleteTask(ctx context.Context, id uuid.UUID) error {
	var resp messageResponse
	return c.del(ctx, "/api/tasks/"+id.String(), &resp)
}

// AdminListUsers lists every user. Requires the admin role.
func (c *Client) AdminListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	var resp usersEnvelope
	opts := ListOptions{Limit: limit, Offset: offset}
	if err := c.get(ctx, "/api/admin/users"+opts.query(), &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// AdminListTasks lists tasks across all users. Requires the admin role.
func (c *Client) AdminListTasks(ctx context.Context, opts ListOptions) ([]Task, error) {
	var resp tasksEnvelope
	if err := c.get(ctx, "/api/admin/tasks"+opts.query(), &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}
