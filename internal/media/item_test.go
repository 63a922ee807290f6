package media

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestItemKeyDeterministic(t *testing.T) {
	a := &Item{ID: "movie-1"}
	b := &Item{ID: "movie-1", Name: "Renamed"}
	c := &Item{ID: "movie-2"}

	assert.Equal(t, a.Key(), b.Key(), "key depends only on identity")
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestRuntimeSeconds(t *testing.T) {
	ticks := 90 * TicksPerSecond
	item := &Item{ID: "m", RuntimeTicks: &ticks}

	seconds, ok := item.RuntimeSeconds()
	assert.True(t, ok)
	assert.Equal(t, int64(90), seconds)

	unknown := &Item{ID: "m"}
	_, ok = unknown.RuntimeSeconds()
	assert.False(t, ok)
}

func TestTickConversions(t *testing.T) {
	assert.Equal(t, time.Second, TicksToDuration(TicksPerSecond))
	assert.Equal(t, TicksPerSecond, DurationToTicks(time.Second))
}
