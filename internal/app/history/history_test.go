package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestroctl/internal/app/history"
	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/orchestrator/orchestratormock"
	"github.com/maestrohq/maestroctl/internal/storage/memory"
)

func TestService_Run(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	seed := func(t *testing.T, repo *memory.Repository) {
		ctx := context.Background()
		require.NoError(t, repo.SaveSession(ctx, model.Session{ID: "s1", UserID: "alice", CreatedAt: t0}))
		require.NoError(t, repo.SaveSession(ctx, model.Session{ID: "s2", UserID: "alice", CreatedAt: t0.Add(time.Hour)}))
		require.NoError(t, repo.SaveTask(ctx, model.Task{ID: "T1", SessionID: "s1", CreatedAt: t0}))
		require.NoError(t, repo.SaveTask(ctx, model.Task{ID: "T2", SessionID: "s2", CreatedAt: t0.Add(time.Hour)}))
		require.NoError(t, repo.AppendMessages(ctx,
			model.Message{ID: "m1", SessionID: "s1", Role: model.RoleUser, Kind: model.MessageKindText, Content: "old", Timestamp: t0},
			model.Message{ID: "m2", SessionID: "s2", Role: model.RoleUser, Kind: model.MessageKindText, Content: "ping", Timestamp: t0},
			model.Message{ID: "m3", SessionID: "s2", Role: model.RoleAssistant, Kind: model.MessageKindResult, Content: "pong", TaskID: "T2", Timestamp: t0},
		))
	}

	tests := map[string]struct {
		req         history.Request
		expSession  string
		expContents []string
		expTasks    []string
		expErr      error
	}{
		"Without session the latest user session should be used.": {
			req:         history.Request{UserID: "alice"},
			expSession:  "s2",
			expContents: []string{"ping", "pong"},
			expTasks:    []string{"T2"},
		},

		"An explicit session should be used.": {
			req:         history.Request{SessionID: "s1"},
			expSession:  "s1",
			expContents: []string{"old"},
			expTasks:    []string{"T1"},
		},

		"The limit should return the last messages.": {
			req:         history.Request{UserID: "alice", Limit: 1},
			expSession:  "s2",
			expContents: []string{"pong"},
			expTasks:    []string{"T2"},
		},

		"A user without sessions should fail with not found.": {
			req:    history.Request{UserID: "bob"},
			expErr: model.ErrNotFound,
		},

		"A negative limit should fail.": {
			req:    history.Request{UserID: "alice", Limit: -1},
			expErr: model.ErrNotValid,
		},

		"Missing session and user should fail.": {
			req:    history.Request{},
			expErr: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			repo, err := memory.NewRepository(memory.RepositoryConfig{})
			require.NoError(err)
			seed(t, repo)

			svc, err := history.NewService(history.ServiceConfig{Repository: repo})
			require.NoError(err)

			resp, err := svc.Run(context.Background(), test.req)
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				return
			}
			require.NoError(err)

			contents := []string{}
			for _, m := range resp.Messages {
				contents = append(contents, m.Content)
			}
			tasks := []string{}
			for _, t := range resp.Tasks {
				tasks = append(tasks, t.ID)
			}

			assert.Equal(test.expSession, resp.SessionID)
			assert.Equal(test.expContents, contents)
			assert.Equal(test.expTasks, tasks)
		})
	}
}

func TestService_RunRemote(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	remote := []model.Message{
		{ID: "1", SessionID: "s2", Role: model.RoleUser, Kind: model.MessageKindText, Content: "from the web", Timestamp: t0},
		{ID: "2", SessionID: "s2", Role: model.RoleAssistant, Kind: model.MessageKindText, Content: "answer", Timestamp: t0},
	}

	tests := map[string]struct {
		mock    func(mo *orchestratormock.MockClient)
		noOrch  bool
		req     history.Request
		expResp *history.Response
		expErr  error
	}{
		"The latest local session should be read from the orchestrator.": {
			mock: func(mo *orchestratormock.MockClient) {
				mo.On("ListSessionMessages", mock.Anything, "s2", 20).Once().Return(remote, nil)
			},
			req:     history.Request{UserID: "alice", Limit: 20, Remote: true},
			expResp: &history.Response{SessionID: "s2", Messages: remote, Tasks: []model.Task{}},
		},

		"An explicit session unknown locally should be read from the orchestrator.": {
			mock: func(mo *orchestratormock.MockClient) {
				mo.On("ListSessionMessages", mock.Anything, "web-1", 0).Once().Return([]model.Message{}, nil)
			},
			req:     history.Request{SessionID: "web-1", Remote: true},
			expResp: &history.Response{SessionID: "web-1", Messages: []model.Message{}, Tasks: []model.Task{}},
		},

		"An orchestrator error should fail.": {
			mock: func(mo *orchestratormock.MockClient) {
				mo.On("ListSessionMessages", mock.Anything, "s2", 0).Once().Return(nil, model.ErrNotFound)
			},
			req:    history.Request{UserID: "alice", Remote: true},
			expErr: model.ErrNotFound,
		},

		"Remote history without orchestrator should fail.": {
			mock:   func(mo *orchestratormock.MockClient) {},
			noOrch: true,
			req:    history.Request{UserID: "alice", Remote: true},
			expErr: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			ctx := context.Background()

			repo, err := memory.NewRepository(memory.RepositoryConfig{})
			require.NoError(err)
			require.NoError(repo.SaveSession(ctx, model.Session{ID: "s2", UserID: "alice", CreatedAt: t0}))

			mo := &orchestratormock.MockClient{}
			test.mock(mo)
			cfg := history.ServiceConfig{Repository: repo, Orchestrator: mo}
			if test.noOrch {
				cfg.Orchestrator = nil
			}
			svc, err := history.NewService(cfg)
			require.NoError(err)

			resp, err := svc.Run(ctx, test.req)
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
			} else if assert.NoError(err) {
				assert.Equal(test.expResp, resp)
			}

			mo.AssertExpectations(t)
		})
	}
}
