package log_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maestrohq/maestroctl/internal/log"
)

func TestCtxWithValues(t *testing.T) {
	tests := map[string]struct {
		ctx       func() context.Context
		values    log.Kv
		expValues log.Kv
	}{
		"Empty context should return only the new values.": {
			ctx:       context.Background,
			values:    log.Kv{"task": "T1"},
			expValues: log.Kv{"task": "T1"},
		},

		"Values already on the context should be merged and overridden.": {
			ctx: func() context.Context {
				return log.CtxWithValues(context.Background(), log.Kv{"task": "T0", "session": "S1"})
			},
			values:    log.Kv{"task": "T1"},
			expValues: log.Kv{"task": "T1", "session": "S1"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := log.CtxWithValues(test.ctx(), test.values)
			assert.Equal(t, test.expValues, log.ValuesFromCtx(ctx))
		})
	}
}

func TestValuesFromCtxWithoutValues(t *testing.T) {
	assert.Equal(t, log.Kv{}, log.ValuesFromCtx(context.Background()))
}
