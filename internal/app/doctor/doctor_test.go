package doctor_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestroctl/internal/app/doctor"
	"github.com/maestrohq/maestroctl/internal/log"
	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/orchestrator/orchestratormock"
)

type profileRepo struct {
	err error
}

func (p profileRepo) GetProfile(ctx context.Context, path string) (model.Profile, error) {
	return model.Profile{}, p.err
}

func TestNewService(t *testing.T) {
	version := func(ctx context.Context) (uint, error) { return 1, nil }

	tests := map[string]struct {
		config doctor.ServiceConfig
		expErr bool
	}{
		"valid config should create service": {
			config: doctor.ServiceConfig{
				Orchestrator:      &orchestratormock.MockClient{},
				ProfileRepository: profileRepo{},
				SchemaVersion:     version,
			},
		},
		"missing orchestrator should fail": {
			config: doctor.ServiceConfig{ProfileRepository: profileRepo{}, SchemaVersion: version},
			expErr: true,
		},
		"missing schema version should fail": {
			config: doctor.ServiceConfig{Orchestrator: &orchestratormock.MockClient{}, ProfileRepository: profileRepo{}},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			svc, err := doctor.NewService(test.config)
			if test.expErr {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestService_Run(t *testing.T) {
	tests := map[string]struct {
		mock        func(m *orchestratormock.MockClient)
		profilePath string
		profileErr  error
		versionErr  error
		expResults  map[string]model.CheckStatus
	}{
		"Everything healthy should pass all checks.": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("Health", mock.Anything).Once().Return(nil)
				m.On("ListAgents", mock.Anything, model.AgentFilter{Status: model.AgentStatusActive}).Once().Return([]model.Agent{{ID: "1"}}, nil)
			},
			profilePath: "/home/alice/.maestro/profile.yaml",
			expResults: map[string]model.CheckStatus{
				"profile_valid":    model.CheckStatusOK,
				"history_db":       model.CheckStatusOK,
				"orchestrator_api": model.CheckStatusOK,
				"active_agents":    model.CheckStatusOK,
			},
		},

		"A missing profile should not be an error.": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("Health", mock.Anything).Once().Return(nil)
				m.On("ListAgents", mock.Anything, model.AgentFilter{Status: model.AgentStatusActive}).Once().Return([]model.Agent{{ID: "1"}}, nil)
			},
			profilePath: "/home/alice/.maestro/profile.yaml",
			profileErr:  model.ErrNotFound,
			expResults: map[string]model.CheckStatus{
				"profile_valid":    model.CheckStatusOK,
				"history_db":       model.CheckStatusOK,
				"orchestrator_api": model.CheckStatusOK,
				"active_agents":    model.CheckStatusOK,
			},
		},

		"Without active agents there should be a warning.": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("Health", mock.Anything).Once().Return(nil)
				m.On("ListAgents", mock.Anything, model.AgentFilter{Status: model.AgentStatusActive}).Once().Return([]model.Agent{}, nil)
			},
			expResults: map[string]model.CheckStatus{
				"profile_valid":    model.CheckStatusOK,
				"history_db":       model.CheckStatusOK,
				"orchestrator_api": model.CheckStatusOK,
				"active_agents":    model.CheckStatusWarning,
			},
		},

		"An unreachable orchestrator should skip the agent check.": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("Health", mock.Anything).Once().Return(fmt.Errorf("connection refused"))
			},
			expResults: map[string]model.CheckStatus{
				"profile_valid":    model.CheckStatusOK,
				"history_db":       model.CheckStatusOK,
				"orchestrator_api": model.CheckStatusError,
			},
		},

		"Local errors should be reported.": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("Health", mock.Anything).Once().Return(nil)
				m.On("ListAgents", mock.Anything, model.AgentFilter{Status: model.AgentStatusActive}).Once().Return([]model.Agent{{ID: "1"}}, nil)
			},
			profilePath: "profile.yaml",
			profileErr:  fmt.Errorf("poll_interval: %w", model.ErrNotValid),
			versionErr:  fmt.Errorf("dirty schema"),
			expResults: map[string]model.CheckStatus{
				"profile_valid":    model.CheckStatusError,
				"history_db":       model.CheckStatusError,
				"orchestrator_api": model.CheckStatusOK,
				"active_agents":    model.CheckStatusOK,
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := &orchestratormock.MockClient{}
			test.mock(m)

			svc, err := doctor.NewService(doctor.ServiceConfig{
				Orchestrator:      m,
				ProfileRepository: profileRepo{err: test.profileErr},
				ProfilePath:       test.profilePath,
				SchemaVersion:     func(ctx context.Context) (uint, error) { return 1, test.versionErr },
				Logger:            log.Noop,
			})
			require.NoError(err)

			results := svc.Run(context.Background())

			got := map[string]model.CheckStatus{}
			for _, r := range results {
				got[r.ID] = r.Status
			}
			assert.Equal(test.expResults, got)
			m.AssertExpectations(t)
		})
	}
}
