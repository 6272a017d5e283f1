package mocks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/rpsgame/internal/dependencies/clock"
)

func TestMockClockAdvance(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	c.Advance(90 * time.Second)

	assert.Equal(t, start.Add(90*time.Second), c.Now())
	assert.Equal(t, 90*time.Second, clock.Since(c, start))
}

func TestMockRandomQueueThenFallback(t *testing.T) {
	r := NewMockRandom()
	r.QueueToken("first", "second")

	assert.Equal(t, "first", r.Token())
	assert.Equal(t, "second", r.Token())
	assert.Equal(t, "token-1", r.Token())
	assert.Equal(t, "token-2", r.Token())

	r.Reset()
	assert.Equal(t, "token-1", r.Token())
}
