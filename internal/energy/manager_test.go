package energy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_ApplyOnUnwatchedPidReturnsZeroSample(t *testing.T) {
	m := NewManager(DefaultConfig())
	got := m.Apply(999, 0.5, IOBytes{}, 0, 1.0)
	assert.Equal(t, Sample{}, got)
}

func TestManager_WatchMakesTreeKnown(t *testing.T) {
	m := NewManager(DefaultConfig())
	assert.False(t, m.Watched(1234))

	m.Watch(1234)
	assert.True(t, m.Watched(1234))
}

func TestManager_RefCountedUnwatchKeepsTreeAliveUntilLastWatcherLeaves(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.Watch(42)
	m.Watch(42)
	assert.True(t, m.Watched(42))

	m.Unwatch(42)
	assert.True(t, m.Watched(42), "one watcher remains")

	m.Unwatch(42)
	assert.False(t, m.Watched(42), "last watcher left")
}

func TestManager_UnwatchUnknownPidIsNoop(t *testing.T) {
	m := NewManager(DefaultConfig())
	assert.NotPanics(t, func() { m.Unwatch(7) })
}

func TestManager_ApplyAccumulatesAcrossTicksForWatchedTree(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.Watch(10)

	r1 := m.Apply(10, 0.5, IOBytes{}, 0, 1.0)
	r2 := m.Apply(10, 0.5, IOBytes{}, 0, 1.0)

	assert.Greater(t, r2.JCum, r1.JCum)
}

func TestManager_AdoptOnUnwatchedPidIsNoop(t *testing.T) {
	m := NewManager(DefaultConfig())
	assert.NotPanics(t, func() { m.Adopt(1, 2) })
}
