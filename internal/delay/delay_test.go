package delay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessInPlaceZeroDelayPassesThroughAfterFill(t *testing.T) {
	l := NewLine(8)
	buf := []float32{1, 2, 3, 4}
	l.ProcessInPlace(buf, 0)
	assert.Equal(t, []float32{1, 2, 3, 4}, buf)
}

func TestProcessInPlaceDelaysByRequestedSamples(t *testing.T) {
	l := NewLine(8)
	first := []float32{1, 2, 3, 4}
	l.ProcessInPlace(first, 2)
	// first two outputs are ring history (zero), then delayed inputs appear.
	assert.Equal(t, float32(0), first[0])
	assert.Equal(t, float32(0), first[1])
	assert.Equal(t, float32(1), first[2])
	assert.Equal(t, float32(2), first[3])

	second := []float32{5, 6}
	l.ProcessInPlace(second, 2)
	assert.Equal(t, float32(3), second[0])
	assert.Equal(t, float32(4), second[1])
}

func TestProcessInPlaceClampsDelayToCapacity(t *testing.T) {
	l := NewLine(4) // capacity 8 (2s of history at sampleRate=4)
	buf := make([]float32, 20)
	for i := range buf {
		buf[i] = float32(i + 1)
	}
	assert.NotPanics(t, func() { l.ProcessInPlace(buf, 1000) })
}

func TestResizeClearsRing(t *testing.T) {
	l := NewLine(8)
	buf := []float32{1, 2, 3}
	l.ProcessInPlace(buf, 0)
	l.Resize(8)
	next := []float32{9, 9, 9}
	l.ProcessInPlace(next, 1)
	assert.Equal(t, float32(0), next[0])
}
