package model

import (
	"encoding/json"
	"strings"
	"time"
)

// TaskStatus is the task status as reported by the orchestrator.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// ParseTaskStatus normalizes the orchestrator status names into the client task statuses.
// Unknown statuses are considered running so they keep being polled.
func ParseTaskStatus(s string) TaskStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "":
		return TaskStatusPending
	case "completed", "complete", "done", "success":
		return TaskStatusCompleted
	case "failed", "error":
		return TaskStatusFailed
	case "cancelled", "canceled":
		return TaskStatusCancelled
	default: // running, planning, in_progress...
		return TaskStatusRunning
	}
}

// IsTerminal returns true if the orchestrator will not change the status anymore.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// TaskPhase is the task lifecycle as observed by the client.
//
//	submitting -> polling      (task created)
//	submitting -> failed       (creation error)
//	polling    -> polling      (pending/running or transient poll error)
//	polling    -> completed    (status completed)
//	polling    -> failed       (status failed or cancelled)
//	polling    -> timed_out    (poll timeout elapsed)
//
// Terminal phases (completed, failed, timed_out) cannot transition further.
type TaskPhase string

const (
	TaskPhaseSubmitting TaskPhase = "submitting"
	TaskPhasePolling    TaskPhase = "polling"
	TaskPhaseCompleted  TaskPhase = "completed"
	TaskPhaseFailed     TaskPhase = "failed"
	TaskPhaseTimedOut   TaskPhase = "timed_out"
)

// IsTerminal returns true if the phase is final.
func (p TaskPhase) IsTerminal() bool {
	switch p {
	case TaskPhaseCompleted, TaskPhaseFailed, TaskPhaseTimedOut:
		return true
	default:
		return false
	}
}

// CanTransitionTo returns true if the phase can move to the target phase.
func (p TaskPhase) CanTransitionTo(target TaskPhase) bool {
	switch p {
	case TaskPhaseSubmitting:
		return target == TaskPhasePolling || target == TaskPhaseFailed
	case TaskPhasePolling:
		switch target {
		case TaskPhasePolling, TaskPhaseCompleted, TaskPhaseFailed, TaskPhaseTimedOut:
			return true
		}
	}

	return false
}

// Task is a unit of work submitted to the orchestrator.
type Task struct {
	ID          string
	SessionID   string
	Description string
	Status      TaskStatus
	Phase       TaskPhase
	// Plan and Result are opaque orchestrator payloads.
	Plan       json.RawMessage
	Result     json.RawMessage
	Error      string
	CreatedAt  time.Time
	FinishedAt *time.Time
	// ResolvedAt is set when the orchestrator outcome was recorded after local polling
	// stopped. A timed out task keeps its phase.
	ResolvedAt *time.Time
}

// TaskRequest is the data required to create a task on the orchestrator.
type TaskRequest struct {
	Description string
	UserID      string
	SessionID   string
}

// TaskHandle is what the orchestrator returns after creating a task.
type TaskHandle struct {
	TaskID    string
	SessionID string
	Status    TaskStatus
	Plan      json.RawMessage
	CreatedAt time.Time
}

// TaskState is a task status snapshot returned by the orchestrator.
type TaskState struct {
	ID          string
	SessionID   string
	Description string
	Status      TaskStatus
	Result      json.RawMessage
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}
