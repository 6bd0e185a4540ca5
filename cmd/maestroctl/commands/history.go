package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/maestrohq/maestroctl/internal/app/history"
	"github.com/maestrohq/maestroctl/internal/conventions"
)

// HistoryCommand shows the conversation history.
type HistoryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	sessionID string
	limit     int
	remote    bool
	format    string
}

// NewHistoryCommand returns the history command.
func NewHistoryCommand(rootCmd *RootCommand, app *kingpin.Application) *HistoryCommand {
	c := &HistoryCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("history", "Show the conversation history (latest session by default).")
	c.Cmd.Flag("session", "Session ID.").StringVar(&c.sessionID)
	c.Cmd.Flag("limit", "Number of last messages to show, 0 shows all.").Default(fmt.Sprint(conventions.DefaultHistoryLimit)).IntVar(&c.limit)
	c.Cmd.Flag("remote", "Read the messages kept by the orchestrator instead of the local history.").BoolVar(&c.remote)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c HistoryCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryCommand) Run(ctx context.Context) error {
	settings, err := c.rootCmd.Settings(ctx)
	if err != nil {
		return err
	}

	repo, err := c.rootCmd.NewRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	cfg := history.ServiceConfig{
		Repository: repo,
		Logger:     c.rootCmd.Logger,
	}
	if c.remote {
		orch, err := c.rootCmd.NewOrchestrator(settings)
		if err != nil {
			return err
		}
		cfg.Orchestrator = orch
	}

	svc, err := history.NewService(cfg)
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	resp, err := svc.Run(ctx, history.Request{
		SessionID: c.sessionID,
		UserID:    settings.UserID,
		Limit:     c.limit,
		Remote:    c.remote,
	})
	if err != nil {
		return err
	}

	if err := c.rootCmd.NewPrinter(c.format).PrintHistory(resp.SessionID, resp.Messages, resp.Tasks); err != nil {
		return fmt.Errorf("could not print history: %w", err)
	}

	return nil
}
