package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nhle/taskboard/internal/model"
)

// TodoCmd groups the todo board operations.
func TodoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "todo",
		Aliases: []string{"todos"},
		Short:   "Manage todos",
		Example: heredoc.Doc(`
			$ taskboard todo list --status blocked
			$ taskboard todo add "Write release notes" --due 2026-11-01
			$ taskboard todo move 3f2a... in_progress
		`),
	}

	cmd.AddCommand(
		listTodosCmd(),
		addTodoCmd(),
		moveTodoCmd(),
		blockTodoCmd(),
		removeTodoCmd(),
	)

	return cmd
}

func listTodosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List todos",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, _ := cmd.Flags().GetString("status")
			if status != "" && !model.IsValidTodoStatus(status) {
				return fmt.Errorf("unknown status %q, want one of %s", status, strings.Join(model.TodoColumns, ", "))
			}

			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(commandContext(cmd), requestTimeout)
			defer cancel()

			todos, err := c.ListTodos(ctx, status)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(todos) == 0 {
				fmt.Fprintln(out, "No todos")
				return nil
			}
			fmt.Fprintln(out, renderTodos(todos, time.Now()))
			return nil
		},
	}

	cmd.Flags().StringP("status", "s", "", "Only show one column (todo, in_progress, blocked, done)")

	return cmd
}

// renderTodos formats todos as a table.
func renderTodos(todos []model.Todo, now time.Time) string {
	rows := make([][]string, 0, len(todos))
	for _, t := range todos {
		due := ""
		if t.TargetDate != nil {
			due = *t.TargetDate
			if t.IsOverdue(now) {
				due += " (overdue)"
			}
		}
		rows = append(rows, []string{t.ID, t.Status, t.Title, due, t.BlockedReason})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STATUS", "TITLE", "DUE", "BLOCKED").
		Rows(rows...).
		Render()
}

func addTodoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a todo to the first column",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := model.NewTodo{Title: strings.TrimSpace(strings.Join(args, " "))}
			if in.Title == "" {
				return fmt.Errorf("title is required")
			}
			if due, _ := cmd.Flags().GetString("due"); due != "" {
				if _, err := time.Parse(model.TargetDateLayout, due); err != nil {
					return fmt.Errorf("due date %q must look like YYYY-MM-DD", due)
				}
				in.TargetDate = &due
			}

			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(commandContext(cmd), requestTimeout)
			defer cancel()

			todo, err := c.CreateTodo(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), todo.ID)
			return nil
		},
	}

	cmd.Flags().String("due", "", "Target date (YYYY-MM-DD)")

	return cmd
}

func moveTodoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Move a todo to another column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, status := args[0], args[1]
			if !model.IsValidTodoStatus(status) {
				return fmt.Errorf("unknown status %q, want one of %s", status, strings.Join(model.TodoColumns, ", "))
			}
			return updateTodo(cmd, id, model.TodoUpdate{Status: &status})
		},
	}
}

func blockTodoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "block <id> [reason]",
		Short: "Set why a todo is blocked, or clear it when no reason is given",
		Example: heredoc.Doc(`
			$ taskboard todo block 3f2a... waiting on design review
			$ taskboard todo block 3f2a...
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason := strings.TrimSpace(strings.Join(args[1:], " "))
			return updateTodo(cmd, args[0], model.TodoUpdate{BlockedReason: &reason})
		},
	}
}

func removeTodoCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(commandContext(cmd), requestTimeout)
			defer cancel()

			return c.DeleteTodo(ctx, args[0])
		},
	}
}

func updateTodo(cmd *cobra.Command, id string, upd model.TodoUpdate) error {
	c, err := apiClient(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(commandContext(cmd), requestTimeout)
	defer cancel()

	_, err = c.UpdateTodo(ctx, id, upd)
	return err
}
