package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/maestrohq/maestroctl/internal/app/taskcancel"
)

// TaskCancelCommand cancels a task.
type TaskCancelCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID string
}

// NewTaskCancelCommand returns the task cancel command.
func NewTaskCancelCommand(rootCmd *RootCommand, taskCmd *kingpin.CmdClause) *TaskCancelCommand {
	c := &TaskCancelCommand{rootCmd: rootCmd}

	c.Cmd = taskCmd.Command("cancel", "Cancel a running task.")
	c.Cmd.Arg("task-id", "Task ID.").Required().StringVar(&c.taskID)

	return c
}

func (c TaskCancelCommand) Name() string { return c.Cmd.FullCommand() }

func (c TaskCancelCommand) Run(ctx context.Context) error {
	orch, _, err := c.rootCmd.newOrchestrator(ctx)
	if err != nil {
		return err
	}

	svc, err := taskcancel.NewService(taskcancel.ServiceConfig{
		Orchestrator: orch,
		Logger:       c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	if err := svc.Run(ctx, taskcancel.Request{TaskID: c.taskID}); err != nil {
		return err
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Task %s cancelled\n", c.taskID)

	return nil
}
