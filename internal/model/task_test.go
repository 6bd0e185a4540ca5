package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maestrohq/maestroctl/internal/model"
)

func TestParseTaskStatus(t *testing.T) {
	tests := map[string]struct {
		status string
		exp    model.TaskStatus
	}{
		"pending":              {status: "pending", exp: model.TaskStatusPending},
		"empty is pending":     {status: "", exp: model.TaskStatusPending},
		"planning is running":  {status: "planning", exp: model.TaskStatusRunning},
		"in progress running":  {status: "in_progress", exp: model.TaskStatusRunning},
		"running":              {status: "running", exp: model.TaskStatusRunning},
		"completed":            {status: "completed", exp: model.TaskStatusCompleted},
		"upper case completed": {status: " COMPLETED ", exp: model.TaskStatusCompleted},
		"failed":               {status: "failed", exp: model.TaskStatusFailed},
		"cancelled":            {status: "cancelled", exp: model.TaskStatusCancelled},
		"unknown is running":   {status: "waiting_for_agent", exp: model.TaskStatusRunning},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, model.ParseTaskStatus(test.status))
		})
	}
}

func TestTaskPhaseCanTransitionTo(t *testing.T) {
	tests := map[string]struct {
		from model.TaskPhase
		to   model.TaskPhase
		exp  bool
	}{
		"submitting to polling":   {from: model.TaskPhaseSubmitting, to: model.TaskPhasePolling, exp: true},
		"submitting to failed":    {from: model.TaskPhaseSubmitting, to: model.TaskPhaseFailed, exp: true},
		"submitting to completed": {from: model.TaskPhaseSubmitting, to: model.TaskPhaseCompleted, exp: false},
		"polling to polling":      {from: model.TaskPhasePolling, to: model.TaskPhasePolling, exp: true},
		"polling to completed":    {from: model.TaskPhasePolling, to: model.TaskPhaseCompleted, exp: true},
		"polling to failed":       {from: model.TaskPhasePolling, to: model.TaskPhaseFailed, exp: true},
		"polling to timed out":    {from: model.TaskPhasePolling, to: model.TaskPhaseTimedOut, exp: true},
		"completed is final":      {from: model.TaskPhaseCompleted, to: model.TaskPhasePolling, exp: false},
		"failed is final":         {from: model.TaskPhaseFailed, to: model.TaskPhaseCompleted, exp: false},
		"timed out is final":      {from: model.TaskPhaseTimedOut, to: model.TaskPhaseCompleted, exp: false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, test.from.CanTransitionTo(test.to))
		})
	}
}

func TestMessageValidate(t *testing.T) {
	tests := map[string]struct {
		msg    model.Message
		expErr bool
	}{
		"A valid user message should be valid.": {
			msg: model.Message{ID: "m1", Role: model.RoleUser, Kind: model.MessageKindText, Content: "ping"},
		},
		"A processing message with a task should be valid.": {
			msg: model.Message{ID: "m1", Role: model.RoleAssistant, Kind: model.MessageKindProcessing, TaskID: "T1"},
		},
		"A processing message without task should fail.": {
			msg:    model.Message{ID: "m1", Role: model.RoleAssistant, Kind: model.MessageKindProcessing},
			expErr: true,
		},
		"A message without ID should fail.": {
			msg:    model.Message{Role: model.RoleUser, Kind: model.MessageKindText},
			expErr: true,
		},
		"A message with an unknown role should fail.": {
			msg:    model.Message{ID: "m1", Role: "system", Kind: model.MessageKindText},
			expErr: true,
		},
		"A message with an unknown kind should fail.": {
			msg:    model.Message{ID: "m1", Role: model.RoleUser, Kind: "weird"},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := test.msg.Validate()
			if test.expErr {
				assert.ErrorIs(t, err, model.ErrNotValid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
