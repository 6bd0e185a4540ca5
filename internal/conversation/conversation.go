// Package conversation holds the ordered conversation message log.
//
// Messages that belong to a task are keyed by task ID: a task has a single slot in the
// log that starts as a processing message and is replaced in place by the terminal
// result or error message. This makes "at most one processing message per task" a
// structural property instead of something callers filter for.
package conversation

import (
	"fmt"

	"github.com/maestrohq/maestroctl/internal/model"
)

// Log is the ordered conversation log.
//
// Log is not safe for concurrent use, it's owned by a single goroutine (the controller
// event loop).
type Log struct {
	entries []model.Message
	byTask  map[string]int // Task ID -> entries index.
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{byTask: map[string]int{}}
}

// Append adds a message at the end of the log. Task keyed messages must use Upsert.
func (l *Log) Append(m model.Message) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	if m.Kind == model.MessageKindProcessing {
		return fmt.Errorf("processing messages must be upserted: %w", model.ErrNotValid)
	}

	l.entries = append(l.entries, m)
	return nil
}

// Upsert sets the message of the task referenced by the message. The first message of a task
// is appended, next ones replace it in the same position. Once a task message is terminal
// it can't be replaced anymore.
func (l *Log) Upsert(m model.Message) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	if m.TaskID == "" {
		return fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}

	idx, ok := l.byTask[m.TaskID]
	if !ok {
		l.entries = append(l.entries, m)
		l.byTask[m.TaskID] = len(l.entries) - 1
		return nil
	}

	if l.entries[idx].Kind.IsTerminal() {
		return fmt.Errorf("task %s message already resolved: %w", m.TaskID, model.ErrAlreadyExists)
	}

	l.entries[idx] = m
	return nil
}

// ForTask returns the current message of a task.
func (l *Log) ForTask(taskID string) (model.Message, bool) {
	idx, ok := l.byTask[taskID]
	if !ok {
		return model.Message{}, false
	}

	return l.entries[idx], true
}

// Messages returns a copy of the log in order.
func (l *Log) Messages() []model.Message {
	msgs := make([]model.Message, len(l.entries))
	copy(msgs, l.entries)
	return msgs
}

// Processing returns the number of tasks with an unresolved message.
func (l *Log) Processing() int {
	n := 0
	for _, idx := range l.byTask {
		if l.entries[idx].Kind == model.MessageKindProcessing {
			n++
		}
	}
	return n
}

// Len returns the number of messages.
func (l *Log) Len() int { return len(l.entries) }
