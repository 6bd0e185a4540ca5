package agenthealth_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestroctl/internal/app/agenthealth"
	"github.com/maestrohq/maestroctl/internal/log"
	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/orchestrator/orchestratormock"
)

func TestService_Run(t *testing.T) {
	tests := map[string]struct {
		mock       func(m *orchestratormock.MockClient)
		req        agenthealth.Request
		expResults []model.AgentHealth
		expErr     bool
	}{
		"Without agents all the registered agents should be checked.": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("ListAgents", mock.Anything, model.AgentFilter{}).Once().Return([]model.Agent{{ID: "1"}, {ID: "2"}}, nil)
				m.On("CheckAgentHealth", mock.Anything, "1").Once().Return(&model.AgentHealth{AgentID: "1", Status: "healthy"}, nil)
				m.On("CheckAgentHealth", mock.Anything, "2").Once().Return(&model.AgentHealth{Status: "unhealthy", Error: "timeout"}, nil)
			},
			req: agenthealth.Request{},
			expResults: []model.AgentHealth{
				{AgentID: "1", Status: "healthy"},
				{AgentID: "2", Status: "unhealthy", Error: "timeout"},
			},
		},

		"Check errors should be reported per agent.": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("CheckAgentHealth", mock.Anything, "1").Once().Return(nil, fmt.Errorf("connection refused"))
				m.On("CheckAgentHealth", mock.Anything, "2").Once().Return(&model.AgentHealth{AgentID: "2", Status: "healthy"}, nil)
			},
			req: agenthealth.Request{AgentIDs: []string{"1", "2"}},
			expResults: []model.AgentHealth{
				{AgentID: "1", Status: "error", Error: "connection refused"},
				{AgentID: "2", Status: "healthy"},
			},
		},

		"An unknown agent should fail.": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("CheckAgentHealth", mock.Anything, "9").Once().Return(nil, fmt.Errorf("api: %w", model.ErrNotFound))
			},
			req:    agenthealth.Request{AgentIDs: []string{"9"}},
			expErr: true,
		},

		"A listing error should fail.": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("ListAgents", mock.Anything, model.AgentFilter{}).Once().Return(nil, fmt.Errorf("something"))
			},
			req:    agenthealth.Request{},
			expErr: true,
		},

		"Without registered agents nothing should be checked.": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("ListAgents", mock.Anything, model.AgentFilter{}).Once().Return([]model.Agent{}, nil)
			},
			req:        agenthealth.Request{},
			expResults: []model.AgentHealth{},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := &orchestratormock.MockClient{}
			test.mock(m)

			svc, err := agenthealth.NewService(agenthealth.ServiceConfig{Orchestrator: m, Logger: log.Noop})
			require.NoError(err)

			got, err := svc.Run(context.Background(), test.req)

			if test.expErr {
				assert.Error(err)
			} else if assert.NoError(err) {
				assert.Equal(test.expResults, got)
			}
			m.AssertExpectations(t)
		})
	}
}
