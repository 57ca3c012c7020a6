package errx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"argument", Argument("missing start_date"), KindArgument},
		{"business rule", BusinessRule("not enough leave balance"), KindBusinessRule},
		{"unknown tool", UnknownTool("DropTables"), KindUnknownTool},
		{"upstream", Upstream(errors.New("conn refused"), StoreErrorMessage), KindUpstream},
		{"exhausted", Exhausted(10), KindExhausted},
		{"wrapped", fmt.Errorf("invoke: %w", BusinessRule("overlap")), KindBusinessRule},
		{"plain", errors.New("boom"), Kind("")},
		{"nil", nil, Kind("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestRecoverable(t *testing.T) {
	assert.True(t, Recoverable(Argument("bad days")))
	assert.True(t, Recoverable(BusinessRule("overlap")))
	assert.False(t, Recoverable(UnknownTool("x")))
	assert.False(t, Recoverable(Upstream(errors.New("down"), StoreErrorMessage)))
	assert.False(t, Recoverable(errors.New("plain")))
}

func TestSafeMessageHidesInternalDetail(t *testing.T) {
	inner := errors.New("pq: relation leaves does not exist")
	assert.Equal(t, StoreErrorMessage, SafeMessage(Upstream(inner, StoreErrorMessage)))
	assert.Equal(t, SystemErrorMessage, SafeMessage(inner))
	assert.Equal(t, "field 'ssn' is not editable", SafeMessage(BusinessRule("field 'ssn' is not editable")))
}

func TestWrapRedis(t *testing.T) {
	require.NoError(t, WrapRedis(nil))

	err := WrapRedis(redis.Nil)
	var ae *AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, KindUpstream, ae.Kind)
	assert.True(t, errors.Is(err, redis.Nil))
}

func TestWrapStoreKeepsAppError(t *testing.T) {
	orig := BusinessRule("leave not found")
	assert.Same(t, orig, WrapStore(orig).(*AppError))

	wrapped := WrapStore(errors.New("disk I/O error"))
	var ae *AppError
	require.ErrorAs(t, wrapped, &ae)
	assert.Equal(t, StoreErrorMessage, ae.Message)
}
