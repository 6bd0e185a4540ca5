package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/maestrohq/maestroctl/internal/app/sessioncreate"
)

// SessionCreateCommand starts a new conversation session.
type SessionCreateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewSessionCreateCommand returns the session create command.
func NewSessionCreateCommand(rootCmd *RootCommand, sessionCmd *kingpin.CmdClause) *SessionCreateCommand {
	c := &SessionCreateCommand{rootCmd: rootCmd}

	c.Cmd = sessionCmd.Command("create", "Start a new conversation session, next chats will use it.")
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c SessionCreateCommand) Name() string { return c.Cmd.FullCommand() }

func (c SessionCreateCommand) Run(ctx context.Context) error {
	orch, settings, err := c.rootCmd.newOrchestrator(ctx)
	if err != nil {
		return err
	}

	repo, err := c.rootCmd.NewRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc, err := sessioncreate.NewService(sessioncreate.ServiceConfig{
		Orchestrator: orch,
		Repository:   repo,
		Logger:       c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	session, err := svc.Run(ctx, sessioncreate.Request{UserID: settings.UserID})
	if err != nil {
		return err
	}

	if err := c.rootCmd.NewPrinter(c.format).PrintSession(*session); err != nil {
		return fmt.Errorf("could not print session: %w", err)
	}

	return nil
}
