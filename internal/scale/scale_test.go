package scale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntervalsFallsBackToChromaticForUnknownType(t *testing.T) {
	assert.Equal(t, Intervals(Chromatic), Intervals(Type(999)))
}

func TestNameFallsBackToChromaticForUnknownType(t *testing.T) {
	assert.Equal(t, "Chromatic", Name(Type(999)))
	assert.Equal(t, "Major", Name(Major))
}

func TestQuantizeChromaticIsBypass(t *testing.T) {
	assert.Equal(t, uint8(61), Quantize(61, 60, Chromatic))
}

func TestQuantizeInScaleNoteIsUnchanged(t *testing.T) {
	// 64 is a major third above root 60, which is in Major (interval 4).
	assert.Equal(t, uint8(64), Quantize(64, 60, Major))
}

func TestQuantizeOutOfScaleSnapsToNearestScaleDegree(t *testing.T) {
	// 61 (root+1) is not in Major; nearest scale tones are 60 (dist 1) and
	// 62 (dist 1) - ties break to the lower note.
	assert.Equal(t, uint8(60), Quantize(61, 60, Major))
}

func TestQuantizeHandlesNoteBelowRoot(t *testing.T) {
	// 58 is below root 60; relative class (58-60) mod 12 = 10, not in Major.
	// Nearest Major tones: 57 (root-3, interval 9) dist 1, 59 (root-1,
	// interval 11) dist 1 -> ties break to the lower note.
	assert.Equal(t, uint8(57), Quantize(58, 60, Major))
}

func TestChordFromIndexKnownAndOutOfRange(t *testing.T) {
	c, ok := ChordFromIndex(2)
	assert.True(t, ok)
	assert.Equal(t, ChordMinor, c)

	_, ok = ChordFromIndex(-1)
	assert.False(t, ok)
	_, ok = ChordFromIndex(len(AllChordTypes))
	assert.False(t, ok)
}

func TestChordIntervalsUnknownReturnsNil(t *testing.T) {
	assert.Nil(t, ChordIntervals(ChordType(999)))
}

func TestChordNameFallsBackToNone(t *testing.T) {
	assert.Equal(t, "None", ChordName(ChordType(999)))
	assert.Equal(t, "Major", ChordName(ChordMajor))
}

func TestVoiceChordReturnsNonRootIntervalsTransposed(t *testing.T) {
	notes := VoiceChord(60, ChordMajor)
	assert.Equal(t, []uint8{64, 67}, notes)
}

func TestVoiceChordNoneAndSingleIntervalChordsReturnNil(t *testing.T) {
	assert.Nil(t, VoiceChord(60, ChordNone))
}

func TestVoiceChordClampsToMidiRange(t *testing.T) {
	notes := VoiceChord(120, ChordMajor9)
	for _, n := range notes {
		assert.LessOrEqual(t, n, uint8(127))
	}
}
