package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, 400*time.Millisecond, nextBackoff(initialBackoff, maxBackoff))
	assert.Equal(t, maxBackoff, nextBackoff(4*time.Second, maxBackoff))
	assert.Equal(t, maxBackoff, nextBackoff(maxBackoff, maxBackoff))
}

func TestSleepWithContext(t *testing.T) {
	assert.True(t, sleepWithContext(context.Background(), 0))
	assert.True(t, sleepWithContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepWithContext(ctx, time.Hour))
}
