package model

import (
	"fmt"
	"time"
)

// Role is the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageKind classifies a conversation message.
type MessageKind string

const (
	// MessageKindText is a plain message (user input, notices).
	MessageKindText MessageKind = "text"
	// MessageKindProcessing is the placeholder shown while a task is in flight.
	MessageKindProcessing MessageKind = "processing"
	// MessageKindResult is the terminal message of a completed task.
	MessageKindResult MessageKind = "result"
	// MessageKindError is a user visible error message.
	MessageKindError MessageKind = "error"
)

// IsTerminal returns true if the kind resolves a task.
func (k MessageKind) IsTerminal() bool {
	return k == MessageKindResult || k == MessageKindError
}

// Message is a conversation entry, never mutated once created.
type Message struct {
	ID        string
	SessionID string
	Role      Role
	Kind      MessageKind
	Content   string
	// TaskID is an association to the task, empty if the message is not about a task.
	TaskID    string
	Timestamp time.Time
}

// Validate validates the message.
func (m Message) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("id is required: %w", ErrNotValid)
	}

	switch m.Role {
	case RoleUser, RoleAssistant:
	default:
		return fmt.Errorf("invalid role %q: %w", m.Role, ErrNotValid)
	}

	switch m.Kind {
	case MessageKindText, MessageKindProcessing, MessageKindResult, MessageKindError:
	default:
		return fmt.Errorf("invalid kind %q: %w", m.Kind, ErrNotValid)
	}

	if m.Kind == MessageKindProcessing && m.TaskID == "" {
		return fmt.Errorf("processing messages require a task id: %w", ErrNotValid)
	}

	return nil
}
