package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")

	// ErrSubmission is returned when the orchestrator could not create a task.
	ErrSubmission = errors.New("task submission failed")
	// ErrPollTransport is used when a single task status check could not reach the orchestrator.
	// It is never surfaced to the user, the poll is retried on the next tick.
	ErrPollTransport = errors.New("task poll transport failed")
	// ErrTaskFailed is returned when the orchestrator reports a task as failed.
	ErrTaskFailed = errors.New("task failed")
	// ErrTimeoutExceeded is returned when a task did not reach a terminal state in time.
	ErrTimeoutExceeded = errors.New("task poll timeout exceeded")
)
