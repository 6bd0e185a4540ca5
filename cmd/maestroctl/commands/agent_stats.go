package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/maestrohq/maestroctl/internal/app/agentstats"
)

// AgentStatsCommand shows the agent registry counters.
type AgentStatsCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewAgentStatsCommand returns the agent stats command.
func NewAgentStatsCommand(rootCmd *RootCommand, agentCmd *kingpin.CmdClause) *AgentStatsCommand {
	c := &AgentStatsCommand{rootCmd: rootCmd}

	c.Cmd = agentCmd.Command("stats", "Show agent registry stats.")
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c AgentStatsCommand) Name() string { return c.Cmd.FullCommand() }

func (c AgentStatsCommand) Run(ctx context.Context) error {
	orch, _, err := c.rootCmd.newOrchestrator(ctx)
	if err != nil {
		return err
	}

	svc, err := agentstats.NewService(agentstats.ServiceConfig{
		Orchestrator: orch,
		Logger:       c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	stats, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	if err := c.rootCmd.NewPrinter(c.format).PrintAgentStats(*stats); err != nil {
		return fmt.Errorf("could not print agent stats: %w", err)
	}

	return nil
}
