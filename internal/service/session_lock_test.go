package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLocks(t *testing.T) {
	locks := newSessionLocks()
	id := uuid.New()

	release, err := locks.acquire(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, locks.len())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.acquire(ctx, id)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := locks.acquire(context.Background(), uuid.New())
	require.NoError(t, err)
	other()

	release()
	release()
	assert.Zero(t, locks.len())

	again, err := locks.acquire(context.Background(), id)
	require.NoError(t, err)
	again()
}
