package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/maestrohq/maestroctl/internal/app/agenthealth"
)

// AgentHealthCommand checks the agents health.
type AgentHealthCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	agentIDs []string
	format   string
}

// NewAgentHealthCommand returns the agent health command.
func NewAgentHealthCommand(rootCmd *RootCommand, agentCmd *kingpin.CmdClause) *AgentHealthCommand {
	c := &AgentHealthCommand{rootCmd: rootCmd}

	c.Cmd = agentCmd.Command("health", "Check the health of agents (all if none given).")
	c.Cmd.Arg("agent-id", "Agent IDs.").StringsVar(&c.agentIDs)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c AgentHealthCommand) Name() string { return c.Cmd.FullCommand() }

func (c AgentHealthCommand) Run(ctx context.Context) error {
	orch, _, err := c.rootCmd.newOrchestrator(ctx)
	if err != nil {
		return err
	}

	svc, err := agenthealth.NewService(agenthealth.ServiceConfig{
		Orchestrator: orch,
		Logger:       c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	results, err := svc.Run(ctx, agenthealth.Request{AgentIDs: c.agentIDs})
	if err != nil {
		return err
	}

	if err := c.rootCmd.NewPrinter(c.format).PrintAgentHealth(results); err != nil {
		return fmt.Errorf("could not print agent health: %w", err)
	}

	return nil
}
