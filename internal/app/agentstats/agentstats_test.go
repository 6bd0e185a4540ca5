package agentstats_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestroctl/internal/app/agentstats"
	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/orchestrator/orchestratormock"
)

func TestService_Run(t *testing.T) {
	tests := map[string]struct {
		mock     func(m *orchestratormock.MockClient)
		expStats *model.AgentStats
		expErr   bool
	}{
		"Stats should be returned.": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("GetAgentStats", mock.Anything).Once().Return(&model.AgentStats{Total: 3, Active: 2, Error: 1, ByType: map[string]int{"api": 3}}, nil)
			},
			expStats: &model.AgentStats{Total: 3, Active: 2, Error: 1, ByType: map[string]int{"api": 3}},
		},

		"Missing type counters should be empty.": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("GetAgentStats", mock.Anything).Once().Return(&model.AgentStats{}, nil)
			},
			expStats: &model.AgentStats{ByType: map[string]int{}},
		},

		"An orchestrator error should fail.": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("GetAgentStats", mock.Anything).Once().Return(nil, fmt.Errorf("something"))
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := &orchestratormock.MockClient{}
			test.mock(m)

			svc, err := agentstats.NewService(agentstats.ServiceConfig{Orchestrator: m})
			require.NoError(err)

			got, err := svc.Run(context.Background())

			if test.expErr {
				assert.Error(err)
			} else if assert.NoError(err) {
				assert.Equal(test.expStats, got)
			}
			m.AssertExpectations(t)
		})
	}
}
