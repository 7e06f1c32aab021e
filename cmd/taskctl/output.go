package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/phrazzld/taskman/internal/client"
	"github.com/spf13/cobra"
)

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printTasks(cmd *cobra.Command, tasks []client.Task) error {
	if a.jsonOutput() {
		if tasks == nil {
			tasks = []client.Task{}
		}
		return printJSON(cmd, tasks)
	}
	if len(tasks) == 0 {
		printf(cmd, "No tasks\n")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTATUS\tDUE\tTITLE")
	now := a.now()
	for _, t := range tasks {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Status, dueLabel(t, now), t.Title)
	}
	return tw.Flush()
}

func (a *app) printTask(cmd *cobra.Command, t *client.Task) error {
	if a.jsonOutput() {
		return printJSON(cmd, t)
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "ID:\t%s\n", t.ID)
	_, _ = fmt.Fprintf(tw, "Title:\t%s\n", t.Title)
	if t.Description != "" {
		_, _ = fmt.Fprintf(tw, "Description:\t%s\n", t.Description)
	}
	_, _ = fmt.Fprintf(tw, "Status:\t%s\n", t.Status)
	_, _ = fmt.Fprintf(tw, "Due:\t%s\n", dueLabel(*t, a.now()))
	return tw.Flush()
}

func (a *app) printUsers(cmd *cobra.Command, users []client.User) error {
	if a.jsonOutput() {
		if users == nil {
			users = []client.User{}
		}
		return printJSON(cmd, users)
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tROLE\tEMAIL\tNAME")
	for _, u := range users {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Role, u.Email, u.Name)
	}
	return tw.Flush()
}

// dueLabel renders the due date, flagging overdue open tasks.
func dueLabel(t client.Task, now time.Time) string {
	label := t.DueDate.UTC().Format(time.DateOnly)
	if t.Status != "completed" && t.DueDate.Before(now) {
		label += " (overdue)"
	}
	return label
}
