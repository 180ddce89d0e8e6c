package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCall_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewBreaker("test", BreakerSettings{ConsecutiveFailures: 2, OpenTimeout: time.Minute})
	boom := errors.New("boom")

	calls := 0
	fail := func() (int, error) {
		calls++
		return 0, boom
	}

	_, err := Call(cb, fail)
	assert.ErrorIs(t, err, boom)
	_, err = Call(cb, fail)
	assert.ErrorIs(t, err, boom)

	_, err = Call(cb, fail)
	require.Error(t, err)
	assert.True(t, IsOpen(err))
	assert.Equal(t, 2, calls)
}

func TestCall_ReturnsTypedResult(t *testing.T) {
	cb := NewBreaker("typed", DefaultBreakerSettings())

	got, err := Call(cb, func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	got, err = Call(nil, func() (string, error) { return "direct", nil })
	require.NoError(t, err)
	assert.Equal(t, "direct", got)
}
