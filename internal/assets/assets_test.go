package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddFromCaptureRegistersAssetWithDuration(t *testing.T) {
	p := NewPool()
	data := make([]float32, 48000)
	id := p.AddFromCapture(data, 48000)
	assert.NotZero(t, id)

	a, ok := p.Get(id)
	require.True(t, ok)
	assert.Equal(t, 1, a.Channels)
	assert.InDelta(t, 1.0, a.DurationSecs, 1e-9)
}

func TestAddFromCaptureAssignsDistinctIDs(t *testing.T) {
	p := NewPool()
	id1 := p.AddFromCapture([]float32{1, 2, 3}, 48000)
	id2 := p.AddFromCapture([]float32{4, 5, 6}, 48000)
	assert.NotEqual(t, id1, id2)
}

func TestGetMissingAssetReturnsFalse(t *testing.T) {
	p := NewPool()
	_, ok := p.Get(999)
	assert.False(t, ok)
}

func TestGetOrCreateStretchedCachesByQuantizedRatio(t *testing.T) {
	p := NewPool()
	src := make([]float32, 4096)
	for i := range src {
		src[i] = float32(i % 7)
	}
	id := p.AddFromCapture(src, 48000)

	derived1, err := p.GetOrCreateStretched(id, 1.5)
	require.NoError(t, err)
	derived2, err := p.GetOrCreateStretched(id, 1.5001) // quantizes to the same milli-bucket
	require.NoError(t, err)
	assert.Equal(t, derived1, derived2)

	derived3, err := p.GetOrCreateStretched(id, 2.0)
	require.NoError(t, err)
	assert.NotEqual(t, derived1, derived3)
}

func TestGetOrCreateStretchedMissingSourceErrors(t *testing.T) {
	p := NewPool()
	_, err := p.GetOrCreateStretched(999, 1.5)
	assert.Error(t, err)
}

func TestQuantizeRatioFloorsToThreeDecimalDigits(t *testing.T) {
	assert.Equal(t, int64(1500), quantizeRatio(1.5))
	assert.Equal(t, int64(1500), quantizeRatio(1.5004))
	assert.Equal(t, int64(1501), quantizeRatio(1.5010001))
}
