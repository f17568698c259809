package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Bounded(5, time.Millisecond), zerolog.Nop(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("not ready")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoExhaustsBoundedAttempts(t *testing.T) {
	attempts := 0
	boom := errors.New("still down")
	err := Do(context.Background(), Bounded(4, time.Millisecond), zerolog.Nop(), func() error {
		attempts++
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 4, attempts)
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := Do(ctx, Unbounded(time.Millisecond), zerolog.Nop(), func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("never ready")
	})

	require.Error(t, err)
	assert.LessOrEqual(t, attempts, 3)
}
