package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromSecondsAndAsSecondsRoundTrip(t *testing.T) {
	ts := FromSeconds(1.5, 48000)
	assert.InDelta(t, 1.5, ts.AsSeconds(48000), 1e-9)
}

func TestFromSecondsNormalizesFractional(t *testing.T) {
	ts := FromSeconds(0.0, 48000)
	assert.Equal(t, uint64(0), ts.SampleIndex)
	assert.InDelta(t, 0, ts.Fractional, 1e-9)
}

func TestNormalizeCarriesNegativeFractionalBackIntoSampleIndex(t *testing.T) {
	ts := normalize(Timestamp{SampleIndex: 5, Fractional: -0.5})
	assert.Equal(t, uint64(4), ts.SampleIndex)
	assert.InDelta(t, 0.5, ts.Fractional, 1e-9)
}

func TestNormalizeCarriesOverflowFractionalForward(t *testing.T) {
	ts := normalize(Timestamp{SampleIndex: 5, Fractional: 1.25})
	assert.Equal(t, uint64(6), ts.SampleIndex)
	assert.InDelta(t, 0.25, ts.Fractional, 1e-9)
}

func TestNewLaneFillsDefaultAndLoopsWholeLength(t *testing.T) {
	lane := NewLane[uint8](16, 60)
	assert.Len(t, lane.Steps, 16)
	for _, v := range lane.Steps {
		assert.Equal(t, uint8(60), v)
	}
	assert.Equal(t, 0, lane.LoopStart)
	assert.Equal(t, 16, lane.LoopEnd)
	assert.Equal(t, 16, lane.Window())
	assert.True(t, lane.Active)
}

func TestNewStepSequencerDataHasSixteenStepsAndDefaults(t *testing.T) {
	seq := NewStepSequencerData()
	assert.Len(t, seq.Pitch.Steps, defaultStepCount)
	assert.Equal(t, uint8(60), seq.Pitch.Steps[0])
	assert.Equal(t, uint8(100), seq.Velocity.Steps[0])
	assert.Equal(t, float32(0.5), seq.Gate.Steps[0])
	assert.Len(t, seq.Muted, defaultStepCount)
	assert.Equal(t, uint8(60), seq.RootKey)
}

func TestNewClipDefaultsToFourBeatsWithSequencer(t *testing.T) {
	c := NewClip("riff")
	assert.Equal(t, "riff", c.Name)
	assert.Equal(t, 4.0, c.Length)
	assert.True(t, c.UseSequencer)
	assert.Len(t, c.StepSequencer.Pitch.Steps, defaultStepCount)
}

func TestNewTrackHasEightMatrixClipsAndNoActiveClip(t *testing.T) {
	tr := NewTrack("t1", "Track 1")
	assert.Len(t, tr.Clips, matrixClipCount)
	assert.Equal(t, -1, tr.ActiveClipIndex)
	assert.Equal(t, float32(1.0), tr.Volume)
	assert.NotNil(t, tr.Parameters)
}

func TestNewProjectDefaults(t *testing.T) {
	p := NewProject()
	assert.Equal(t, "New Project", p.Name)
	assert.Equal(t, 120.0, p.BPM)
	assert.False(t, p.ArrangementMode)
	assert.Empty(t, p.Tracks)
}
