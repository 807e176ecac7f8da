package pluginproxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetLatencyDefaultsToZero(t *testing.T) {
	p := &Proxy{}
	assert.Equal(t, uint32(0), p.GetLatency())
}

func TestGetNoteNamesReturnsPluginPathAsID(t *testing.T) {
	p := &Proxy{pluginPath: "/plugins/synth.so"}
	id, names := p.GetNoteNames()
	assert.Equal(t, "/plugins/synth.so", id)
	assert.Nil(t, names)
}

func TestGetLastTouchedReflectsShadowState(t *testing.T) {
	p := &Proxy{}
	id, val, gen := p.GetLastTouched()
	assert.Equal(t, uint32(0), id)
	assert.Equal(t, float32(0), val)
	assert.Equal(t, uint64(0), gen)

	p.mu.Lock()
	p.lastTouchID = 7
	p.lastTouchVal = 0.9
	p.generation = 1
	p.mu.Unlock()

	id, val, gen = p.GetLastTouched()
	assert.Equal(t, uint32(7), id)
	assert.Equal(t, float32(0.9), val)
	assert.Equal(t, uint64(1), gen)
}

func TestHasExitedReflectsClosedChannel(t *testing.T) {
	p := &Proxy{exited: make(chan struct{})}
	assert.False(t, p.hasExited())
	close(p.exited)
	assert.True(t, p.hasExited())
}

func TestCheckResurrectionNoopWhenStillAlive(t *testing.T) {
	p := &Proxy{exited: make(chan struct{})}
	assert.NoError(t, p.checkResurrection())
}

func TestMaxPicksLarger(t *testing.T) {
	assert.Equal(t, 3, max(1, 3))
	assert.Equal(t, 5, max(5, 2))
}

func TestSimulateCrashWithNoProcessIsNoop(t *testing.T) {
	p := &Proxy{}
	assert.NotPanics(t, func() { p.SimulateCrash() })
}
