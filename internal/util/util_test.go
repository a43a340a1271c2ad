package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTruncateForLog(t *testing.T) {
	assert.Equal(t, "abc", TruncateForLog("abc", 10))
	assert.Equal(t, "abc...", TruncateForLog("abcdef", 3))
	assert.Equal(t, "abc", TruncateForLog("  abc  ", 10))
	assert.Equal(t, "", TruncateForLog("abc", 0))
	// Runes, not bytes.
	assert.Equal(t, "héllo", TruncateForLog("héllo", 5))
	assert.Equal(t, "hé...", TruncateForLog("héllo", 2))
}

func TestWaitFor(t *testing.T) {
	assert.NoError(t, WaitFor(context.Background(), 0))
	assert.NoError(t, WaitFor(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, WaitFor(ctx, time.Minute), context.Canceled)
}
