package controller

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/maestrohq/maestroctl/internal/model"
)

const planPendingText = "Planning in progress..."

// processingText returns the placeholder shown while the task is in flight.
func processingText(t model.Task) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "Task %s created (status: %s)\n\n", t.ID, t.Status)
	fmt.Fprintf(&b, "Coordinating agents to handle: %q\n\n", t.Description)
	b.WriteString("Agents involved:\n")
	b.WriteString(planText(t.Plan))

	return b.String()
}

func planText(plan []byte) string {
	steps := gjson.GetBytes(plan, "steps")
	if !steps.IsArray() || len(steps.Array()) == 0 {
		return planPendingText
	}

	lines := []string{}
	for i, step := range steps.Array() {
		agent := step.Get("agent_name").String()
		if agent == "" {
			agent = "Agent"
		}
		lines = append(lines, fmt.Sprintf("%d. %s: %s", i+1, agent, step.Get("description").String()))
	}

	return strings.Join(lines, "\n")
}

func submissionErrorText(err error) string {
	return fmt.Sprintf("Sorry, I could not submit the task: %s", err)
}

// FailedText is the conversation text of a failed task.
func FailedText(reason string) string {
	return "Task failed: " + reason
}
