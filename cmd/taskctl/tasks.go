package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/client"
	"github.com/spf13/cobra"
)

func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Manage your tasks",
	}
	cmd.AddCommand(
		newTasksListCmd(a),
		newTasksDueSoonCmd(a),
		newTasksGetCmd(a),
		newTasksCreateCmd(a),
		newTasksUpdateCmd(a),
		newTasksDeleteCmd(a),
	)
	return cmd
}

// listFlags registers the shared filter flags on cmd.
type listFlags struct {
	status    string
	dueBefore string
	dueAfter  string
	limit     int
	offset    int
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.status, "status", "", "pending, in-progress or completed")
	cmd.Flags().StringVar(&f.dueBefore, "due-before", "", "only tasks due before this date")
	cmd.Flags().StringVar(&f.dueAfter, "due-after", "", "only tasks due after this date")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum number of tasks")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "number of tasks to skip")
}

func (f *listFlags) options() (client.ListOptions, error) {
	opts := client.ListOptions{Status: f.status, Limit: f.limit, Offset: f.offset}
	var err error
	if f.dueBefore != "" {
		if opts.DueBefore, err = parseDate(f.dueBefore); err != nil {
			return opts, err
		}
	}
	if f.dueAfter != "" {
		if opts.DueAfter, err = parseDate(f.dueAfter); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func newTasksListCmd(a *app) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your tasks, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, c *client.Client) error {
				tasks, err := c.ListTasks(ctx, opts)
				if err != nil {
					return err
				}
				return a.printTasks(cmd, tasks)
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newTasksDueSoonCmd(a *app) *cobra.Command {
	var within time.Duration
	cmd := &cobra.Command{
		Use:   "due-soon",
		Short: "List open tasks due within a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, func(ctx context.Context, c *client.Client) error {
				tasks, err := c.DueSoon(ctx, within)
				if err != nil {
					return err
				}
				return a.printTasks(cmd, tasks)
			})
		},
	}
	cmd.Flags().DurationVar(&within, "within", 72*time.Hour, "look-ahead window, whole hours")
	return cmd
}

func newTasksGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, c *client.Client) error {
				task, err := c.GetTask(ctx, id)
				if err != nil {
					return err
				}
				return a.printTask(cmd, task)
			})
		},
	}
}

func newTasksCreateCmd(a *app) *cobra.Command {
	var in client.CreateTaskInput
	var due string
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = args[0]
			dueDate, err := parseDate(due)
			if err != nil {
				return err
			}
			in.DueDate = dueDate
			return a.withSession(cmd, func(ctx context.Context, c *client.Client) error {
				task, err := c.CreateTask(ctx, in)
				if err != nil {
					return err
				}
				return a.printTask(cmd, task)
			})
		},
	}
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "task description")
	cmd.Flags().StringVar(&in.Status, "status", "", "initial status (default pending)")
	cmd.Flags().StringVar(&due, "due", "", "due date, YYYY-MM-DD or RFC 3339")
	_ = cmd.MarkFlagRequired("due")
	return cmd
}

func newTasksUpdateCmd(a *app) *cobra.Command {
	var title, description, status, due string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var in client.UpdateTaskInput
			flags := cmd.Flags()
			if flags.Changed("title") {
				in.Title = &title
			}
			if flags.Changed("description") {
				in.Description = &description
			}
			if flags.Changed("status") {
				in.Status = &status
			}
			if flags.Changed("due") {
				d, err := parseDate(due)
				if err != nil {
					return err
				}
				in.DueDate = &d
			}
			if in == (client.UpdateTaskInput{}) {
				return errors.New("nothing to update; pass at least one of --title, --description, --status, --due")
			}

			return a.withSession(cmd, func(ctx context.Context, c *client.Client) error {
				task, err := c.UpdateTask(ctx, id, in)
				if err != nil {
					return err
				}
				return a.printTask(cmd, task)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVar(&due, "due", "", "new due date")
	return cmd
}

func newTasksDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, c *client.Client) error {
				if err := c.DeleteTask(ctx, id); err != nil {
					return err
				}
				printf(cmd, "Task deleted successfully\n")
				return nil
			})
		},
	}
}

func newAdminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Read-only views across all users (admin role)",
	}

	var limit, offset int
	users := &cobra.Command{
		Use:   "users",
		Short: "List all users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, func(ctx context.Context, c *client.Client) error {
				list, err := c.AdminListUsers(ctx, limit, offset)
				if err != nil {
					return err
				}
				return a.printUsers(cmd, list)
			})
		},
	}
	users.Flags().IntVar(&limit, "limit", 0, "maximum number of users")
	users.Flags().IntVar(&offset, "offset", 0, "number of users to skip")

	var f listFlags
	tasks := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks of all users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, c *client.Client) error {
				list, err := c.AdminListTasks(ctx, opts)
				if err != nil {
					return err
				}
				return a.printTasks(cmd, list)
			})
		},
	}
	f.register(tasks)

	cmd.AddCommand(users, tasks)
	return cmd
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

// parseDate accepts YYYY-MM-DD (UTC midnight) or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", s)
}
