package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinGainDefaultsToUnity(t *testing.T) {
	g := NewBuiltinGain()
	buf := []float32{1, 2, 3, 4}
	require.NoError(t, g.Process(buf, 48000, BlockEvents{}))
	assert.Equal(t, []float32{1, 2, 3, 4}, buf)
}

func TestBuiltinGainSetParamScalesBuffer(t *testing.T) {
	g := NewBuiltinGain()
	g.SetParam(0, 0.5)
	buf := []float32{2, 4}
	require.NoError(t, g.Process(buf, 48000, BlockEvents{}))
	assert.Equal(t, []float32{1, 2}, buf)
}

func TestBuiltinGainParamEventAtOffsetZeroOverridesGain(t *testing.T) {
	g := NewBuiltinGain()
	buf := []float32{10, 10}
	events := BlockEvents{Params: []ParamEvent{{ParamID: 0, Value: 2.0}}}
	require.NoError(t, g.Process(buf, 48000, events))
	assert.Equal(t, []float32{20, 20}, buf)
}

func TestBuiltinGainGetLastTouchedTracksGeneration(t *testing.T) {
	g := NewBuiltinGain()
	id, val, gen := g.GetLastTouched()
	assert.Equal(t, uint32(0), id)
	assert.Equal(t, float32(0), val)
	assert.Equal(t, uint64(0), gen)

	g.SetParam(0, 0.25)
	id, val, gen = g.GetLastTouched()
	assert.Equal(t, uint32(0), id)
	assert.Equal(t, float32(0.25), val)
	assert.Equal(t, uint64(1), gen)
}

func TestBuiltinGainStateRoundTrips(t *testing.T) {
	g := NewBuiltinGain()
	g.SetParam(0, 3)
	state, err := g.GetState()
	require.NoError(t, err)

	g2 := NewBuiltinGain()
	require.NoError(t, g2.SetState(state))
	buf := []float32{1}
	require.NoError(t, g2.Process(buf, 48000, BlockEvents{}))
	assert.Equal(t, float32(3), buf[0])
}

func TestBuiltinGainHasZeroLatency(t *testing.T) {
	g := NewBuiltinGain()
	assert.Equal(t, uint32(0), g.GetLatency())
}

func TestBuiltinGainGetPluginParamsDescribesGain(t *testing.T) {
	g := NewBuiltinGain()
	params := g.GetPluginParams()
	require.Len(t, params, 1)
	assert.Equal(t, "Gain", params[0].Name)
}
