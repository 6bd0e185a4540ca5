package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/maestrohq/maestroctl/internal/app/agentlist"
)

// AgentListCommand lists the orchestrator agents.
type AgentListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	agentType string
	status    string
	format    string
}

// NewAgentListCommand returns the agent list command.
func NewAgentListCommand(rootCmd *RootCommand, agentCmd *kingpin.CmdClause) *AgentListCommand {
	c := &AgentListCommand{rootCmd: rootCmd}

	c.Cmd = agentCmd.Command("list", "List the registered agents.")
	c.Cmd.Flag("type", "Filter by type (a2a_server, api, local).").StringVar(&c.agentType)
	c.Cmd.Flag("status", "Filter by status (active, inactive, error).").StringVar(&c.status)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c AgentListCommand) Name() string { return c.Cmd.FullCommand() }

func (c AgentListCommand) Run(ctx context.Context) error {
	orch, _, err := c.rootCmd.newOrchestrator(ctx)
	if err != nil {
		return err
	}

	svc, err := agentlist.NewService(agentlist.ServiceConfig{
		Orchestrator: orch,
		Logger:       c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	agents, err := svc.Run(ctx, agentlist.Request{Type: c.agentType, Status: c.status})
	if err != nil {
		return err
	}

	if err := c.rootCmd.NewPrinter(c.format).PrintAgents(agents); err != nil {
		return fmt.Errorf("could not print agents: %w", err)
	}

	return nil
}
