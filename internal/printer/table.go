package printer

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/maestrohq/maestroctl/internal/model"
)

// TablePrinter prints information in a human readable table format.
type TablePrinter struct {
	writer io.Writer
}

var _ Printer = &TablePrinter{}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintMessages prints conversation messages one after another.
func (t *TablePrinter) PrintMessages(msgs []model.Message) error {
	for i, m := range msgs {
		if i > 0 {
			fmt.Fprintln(t.writer)
		}
		fmt.Fprintf(t.writer, "[%s] %s:\n", FormatTimestamp(m.Timestamp), author(m))
		for _, line := range strings.Split(m.Content, "\n") {
			fmt.Fprintf(t.writer, "  %s\n", line)
		}
	}

	return nil
}

func author(m model.Message) string {
	name := "you"
	if m.Role == model.RoleAssistant {
		name = "maestro"
	}

	switch m.Kind {
	case model.MessageKindError:
		return name + " (error)"
	case model.MessageKindProcessing:
		return name + " (processing)"
	default:
		return name
	}
}

// PrintHistory prints a session history followed by its tasks.
func (t *TablePrinter) PrintHistory(sessionID string, msgs []model.Message, tasks []model.Task) error {
	fmt.Fprintf(t.writer, "Session: %s\n\n", sessionID)

	if len(msgs) == 0 {
		fmt.Fprintln(t.writer, "No messages.")
	}
	if err := t.PrintMessages(msgs); err != nil {
		return err
	}

	if len(tasks) == 0 {
		return nil
	}

	fmt.Fprintln(t.writer)
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "TASK\tSTATUS\tPHASE\tCREATED\tDESCRIPTION")
	for _, task := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", task.ID, task.Status, task.Phase, TimeAgo(task.CreatedAt), truncate(task.Description, 50))
	}

	return nil
}

// PrintSession prints a session.
func (t *TablePrinter) PrintSession(session model.Session) error {
	fmt.Fprintf(t.writer, "Session:    %s\n", session.ID)
	fmt.Fprintf(t.writer, "User:       %s\n", session.UserID)
	fmt.Fprintf(t.writer, "Created:    %s\n", FormatTimestamp(session.CreatedAt))
	return nil
}

// PrintTaskStatus prints detailed task status.
func (t *TablePrinter) PrintTaskStatus(state model.TaskState, text string) error {
	fmt.Fprintf(t.writer, "Task:       %s\n", state.ID)
	if state.SessionID != "" {
		fmt.Fprintf(t.writer, "Session:    %s\n", state.SessionID)
	}
	if state.Description != "" {
		fmt.Fprintf(t.writer, "Request:    %s\n", state.Description)
	}
	fmt.Fprintf(t.writer, "Status:     %s\n", state.Status)
	if !state.CreatedAt.IsZero() {
		fmt.Fprintf(t.writer, "Created:    %s\n", FormatTimestamp(state.CreatedAt))
	}
	if state.CompletedAt != nil {
		fmt.Fprintf(t.writer, "Completed:  %s\n", FormatTimestamp(*state.CompletedAt))
	}

	if text != "" {
		fmt.Fprintf(t.writer, "\n%s\n", text)
	}

	return nil
}

// PrintAgents prints agents in a table format.
func (t *TablePrinter) PrintAgents(agents []model.Agent) error {
	if len(agents) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSTATUS\tCAPABILITIES\tENDPOINT")
	for _, a := range agents {
		capabilities := strings.Join(a.Capabilities, ",")
		if capabilities == "" {
			capabilities = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Type, a.Status, capabilities, a.Endpoint)
	}

	return nil
}

// PrintAgentStats prints the agent registry counters.
func (t *TablePrinter) PrintAgentStats(stats model.AgentStats) error {
	fmt.Fprintf(t.writer, "Total:      %d\n", stats.Total)
	fmt.Fprintf(t.writer, "Active:     %d\n", stats.Active)
	fmt.Fprintf(t.writer, "Inactive:   %d\n", stats.Inactive)
	fmt.Fprintf(t.writer, "Error:      %d\n", stats.Error)

	if len(stats.ByType) == 0 {
		return nil
	}

	types := make([]string, 0, len(stats.ByType))
	for typ := range stats.ByType {
		types = append(types, typ)
	}
	sort.Strings(types)

	fmt.Fprintln(t.writer, "By type:")
	for _, typ := range types {
		fmt.Fprintf(t.writer, "  %-12s%d\n", typ+":", stats.ByType[typ])
	}

	return nil
}

// PrintAgentHealth prints agent health results in a table format.
func (t *TablePrinter) PrintAgentHealth(results []model.AgentHealth) error {
	if len(results) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "AGENT\tSTATUS\tERROR")
	for _, r := range results {
		errMsg := r.Error
		if errMsg == "" {
			errMsg = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.AgentID, r.Status, errMsg)
	}

	return nil
}

// PrintChecks prints doctor results with a status icon per check and a summary.
func (t *TablePrinter) PrintChecks(results []model.CheckResult) error {
	for _, r := range results {
		fmt.Fprintf(t.writer, "  %s %-20s %s\n", statusIcon(r.Status), r.ID, r.Message)
	}

	fmt.Fprintln(t.writer)
	summary := model.SummarizeChecks(results)
	if summary.Errors == 0 && summary.Warnings == 0 {
		fmt.Fprintln(t.writer, "All checks passed!")
		return nil
	}

	parts := []string{}
	if summary.Errors > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", summary.Errors))
	}
	if summary.Warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", summary.Warnings))
	}
	fmt.Fprintln(t.writer, strings.Join(parts, ", "))

	return nil
}

func statusIcon(status model.CheckStatus) string {
	switch status {
	case model.CheckStatusOK:
		return "OK"
	case model.CheckStatusWarning:
		return "!!"
	case model.CheckStatusError:
		return "XX"
	default:
		return "??"
	}
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
