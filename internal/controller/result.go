package controller

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/maestrohq/maestroctl/internal/model"
)

const (
	// DefaultResultText is used when a completed task result has nothing to show.
	DefaultResultText = "Task completed successfully!"
	// DefaultErrorText is used when a failed task doesn't say why.
	DefaultErrorText = "Unknown error occurred"
	cancelledText    = "Task was cancelled"
)

// ExtractResult returns the human readable text of a completed task result payload.
//
// The precedence is:
//   - The first step nested response (`steps.0.content.response`).
//   - The first step content, strings as is, anything else as indented JSON.
//   - The top level summary.
//   - DefaultResultText.
func ExtractResult(result []byte) string {
	if !gjson.ValidBytes(result) {
		return DefaultResultText
	}

	if r := gjson.GetBytes(result, "steps.0.content.response"); present(r) {
		return textOf(r)
	}

	if r := gjson.GetBytes(result, "steps.0.content"); present(r) {
		return textOf(r)
	}

	if r := gjson.GetBytes(result, "summary"); present(r) {
		return textOf(r)
	}

	return DefaultResultText
}

// ExtractError returns the failure reason of a failed task.
func ExtractError(result []byte, serverErr string, status model.TaskStatus) string {
	if gjson.ValidBytes(result) {
		if r := gjson.GetBytes(result, "error"); present(r) {
			return textOf(r)
		}
	}

	if s := strings.TrimSpace(serverErr); s != "" {
		return s
	}

	if status == model.TaskStatusCancelled {
		return cancelledText
	}

	return DefaultErrorText
}

func present(r gjson.Result) bool {
	switch {
	case !r.Exists(), r.Type == gjson.Null:
		return false
	case r.Type == gjson.String:
		return r.Str != ""
	}

	return true
}

func textOf(r gjson.Result) string {
	if r.Type == gjson.String {
		return r.Str
	}

	if r.IsObject() || r.IsArray() {
		return strings.TrimSpace(string(pretty.Pretty([]byte(r.Raw))))
	}

	return r.Raw
}
