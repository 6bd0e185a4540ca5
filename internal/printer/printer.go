package printer

import "github.com/maestrohq/maestroctl/internal/model"

// Printer knows how to print orchestrator and conversation information in different formats.
type Printer interface {
	PrintMessages(msgs []model.Message) error
	PrintHistory(sessionID string, msgs []model.Message, tasks []model.Task) error
	PrintSession(session model.Session) error
	PrintTaskStatus(state model.TaskState, text string) error
	PrintAgents(agents []model.Agent) error
	PrintAgentStats(stats model.AgentStats) error
	PrintAgentHealth(results []model.AgentHealth) error
	PrintChecks(results []model.CheckResult) error
	PrintMessage(msg string) error
}
