package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/maestrohq/maestroctl/internal/model"
)

// JSONPrinter prints information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

var _ Printer = &JSONPrinter{}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

type messageItem struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	TaskID    string    `json:"task_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type taskItem struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"session_id"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	Phase       string          `json:"phase"`
	Plan        json.RawMessage `json:"plan,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	FinishedAt  *time.Time      `json:"finished_at"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty"`
}

type historyOutput struct {
	SessionID string        `json:"session_id"`
	Messages  []messageItem `json:"messages"`
	Tasks     []taskItem    `json:"tasks"`
}

type sessionOutput struct {
	ID        string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type taskStatusOutput struct {
	ID          string          `json:"task_id"`
	SessionID   string          `json:"session_id,omitempty"`
	Description string          `json:"description,omitempty"`
	Status      string          `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	Text        string          `json:"text,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at"`
}

type agentItem struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Type         string    `json:"agent_type"`
	Endpoint     string    `json:"endpoint"`
	Capabilities []string  `json:"capabilities"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type agentStatsOutput struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	Inactive int            `json:"inactive"`
	Error    int            `json:"error"`
	ByType   map[string]int `json:"by_type"`
}

type agentHealthItem struct {
	AgentID  string          `json:"agent_id"`
	Status   string          `json:"status"`
	Error    string          `json:"error,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
}

type checkItem struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type checksOutput struct {
	Checks   []checkItem `json:"checks"`
	OK       int         `json:"ok"`
	Warnings int         `json:"warnings"`
	Errors   int         `json:"errors"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

func toMessageItems(msgs []model.Message) []messageItem {
	items := make([]messageItem, len(msgs))
	for i, m := range msgs {
		items[i] = messageItem{
			ID:        m.ID,
			SessionID: m.SessionID,
			Role:      string(m.Role),
			Kind:      string(m.Kind),
			Content:   m.Content,
			TaskID:    m.TaskID,
			Timestamp: m.Timestamp.UTC(),
		}
	}
	return items
}

func toTaskItems(tasks []model.Task) []taskItem {
	items := make([]taskItem, len(tasks))
	for i, t := range tasks {
		items[i] = taskItem{
			ID:          t.ID,
			SessionID:   t.SessionID,
			Description: t.Description,
			Status:      string(t.Status),
			Phase:       string(t.Phase),
			Plan:        t.Plan,
			Result:      t.Result,
			Error:       t.Error,
			CreatedAt:   t.CreatedAt.UTC(),
			FinishedAt:  utcPtr(t.FinishedAt),
			ResolvedAt:  utcPtr(t.ResolvedAt),
		}
	}
	return items
}

// PrintMessages prints conversation messages in JSON format.
func (j *JSONPrinter) PrintMessages(msgs []model.Message) error {
	return j.encode(toMessageItems(msgs))
}

// PrintHistory prints a session history in JSON format.
func (j *JSONPrinter) PrintHistory(sessionID string, msgs []model.Message, tasks []model.Task) error {
	return j.encode(historyOutput{
		SessionID: sessionID,
		Messages:  toMessageItems(msgs),
		Tasks:     toTaskItems(tasks),
	})
}

// PrintSession prints a session in JSON format.
func (j *JSONPrinter) PrintSession(session model.Session) error {
	return j.encode(sessionOutput{
		ID:        session.ID,
		UserID:    session.UserID,
		CreatedAt: session.CreatedAt.UTC(),
	})
}

// PrintTaskStatus prints the task status in JSON format.
func (j *JSONPrinter) PrintTaskStatus(state model.TaskState, text string) error {
	return j.encode(taskStatusOutput{
		ID:          state.ID,
		SessionID:   state.SessionID,
		Description: state.Description,
		Status:      string(state.Status),
		Result:      state.Result,
		Error:       state.Error,
		Text:        text,
		CreatedAt:   state.CreatedAt.UTC(),
		CompletedAt: utcPtr(state.CompletedAt),
	})
}

// PrintAgents prints agents in JSON format.
func (j *JSONPrinter) PrintAgents(agents []model.Agent) error {
	items := make([]agentItem, len(agents))
	for i, a := range agents {
		capabilities := a.Capabilities
		if capabilities == nil {
			capabilities = []string{}
		}
		items[i] = agentItem{
			ID:           a.ID,
			Name:         a.Name,
			Description:  a.Description,
			Type:         string(a.Type),
			Endpoint:     a.Endpoint,
			Capabilities: capabilities,
			Status:       string(a.Status),
			CreatedAt:    a.CreatedAt.UTC(),
		}
	}

	return j.encode(items)
}

// PrintAgentStats prints the agent registry stats in JSON format.
func (j *JSONPrinter) PrintAgentStats(stats model.AgentStats) error {
	byType := stats.ByType
	if byType == nil {
		byType = map[string]int{}
	}

	return j.encode(agentStatsOutput{
		Total:    stats.Total,
		Active:   stats.Active,
		Inactive: stats.Inactive,
		Error:    stats.Error,
		ByType:   byType,
	})
}

// PrintAgentHealth prints agent health results in JSON format.
func (j *JSONPrinter) PrintAgentHealth(results []model.AgentHealth) error {
	items := make([]agentHealthItem, len(results))
	for i, r := range results {
		items[i] = agentHealthItem{
			AgentID:  r.AgentID,
			Status:   r.Status,
			Error:    r.Error,
			Response: r.Response,
		}
	}

	return j.encode(items)
}

// PrintChecks prints doctor check results in JSON format.
func (j *JSONPrinter) PrintChecks(results []model.CheckResult) error {
	summary := model.SummarizeChecks(results)
	out := checksOutput{
		Checks:   make([]checkItem, len(results)),
		OK:       summary.OK,
		Warnings: summary.Warnings,
		Errors:   summary.Errors,
	}
	for i, r := range results {
		out.Checks[i] = checkItem{ID: r.ID, Status: string(r.Status), Message: r.Message}
	}

	return j.encode(out)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
