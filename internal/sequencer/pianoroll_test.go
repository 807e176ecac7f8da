package sequencer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniproject/omniengine/internal/project"
)

func TestEvaluatePianoRollEmitsNoteWithinWindow(t *testing.T) {
	clip := &project.Clip{Length: 4.0, Notes: []project.Note{
		{Start: 0, Duration: 1.0, Key: 60, Velocity: 100, Probability: 1.0},
	}}
	ts := &TrackState{}
	rng := rand.New(rand.NewSource(1))

	res := EvaluatePianoRoll(clip, 0, 4800, 4800, rng, ts)
	require.Len(t, res.Notes, 1)
	assert.Equal(t, uint8(60), res.Notes[0].Key)
	assert.True(t, res.Notes[0].On)
	require.Len(t, ts.Active, 1)
	assert.Equal(t, 4800, ts.Active[0].RemainingSamples)
}

func TestEvaluatePianoRollZeroDurationEmitsImmediateOff(t *testing.T) {
	clip := &project.Clip{Length: 4.0, Notes: []project.Note{
		{Start: 0, Duration: 0, Key: 60, Velocity: 100, Probability: 1.0},
	}}
	ts := &TrackState{}
	rng := rand.New(rand.NewSource(1))

	res := EvaluatePianoRoll(clip, 0, 4800, 4800, rng, ts)
	require.Len(t, res.Notes, 2)
	assert.True(t, res.Notes[0].On)
	assert.False(t, res.Notes[1].On)
	assert.Empty(t, ts.Active)
}

func TestEvaluatePianoRollZeroLengthClipIsNoop(t *testing.T) {
	clip := &project.Clip{Length: 0, Notes: []project.Note{{Start: 0, Duration: 1, Key: 60}}}
	ts := &TrackState{}
	res := EvaluatePianoRoll(clip, 0, 4800, 4800, rand.New(rand.NewSource(1)), ts)
	assert.Empty(t, res.Notes)
}

func TestEvaluatePianoRollIterationConditionFiltersByParity(t *testing.T) {
	note := project.Note{
		Start: 0, Duration: 1, Key: 60, Velocity: 100, Probability: 1.0,
		Condition: project.NoteCondition{Kind: project.ConditionIteration, Cycle: 2, Expected: 1},
	}
	clip := &project.Clip{Length: 4.0, Notes: []project.Note{note}}
	ts := &TrackState{}
	rng := rand.New(rand.NewSource(1))

	// iteration 0: 0%2+1 == 1 -> matches expected 1.
	res := EvaluatePianoRoll(clip, 0, 4800, 4800, rng, ts)
	assert.Len(t, res.Notes, 1)

	// iteration 1: 1%2+1 == 2 -> does not match expected 1.
	ts2 := &TrackState{}
	res2 := EvaluatePianoRoll(clip, 4.0, 4800, 4800, rng, ts2)
	assert.Empty(t, res2.Notes)
}

func TestApplyDeviationClampsToValidVelocityRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		v := applyDeviation(1, 50, rng)
		assert.GreaterOrEqual(t, v, uint8(1))
		assert.LessOrEqual(t, v, uint8(127))
	}
}

func TestApplyDeviationZeroIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.Equal(t, uint8(77), applyDeviation(77, 0, rng))
}

func TestNoteNameMiddleCIsC4(t *testing.T) {
	assert.Equal(t, "C4", NoteName(60))
}

func TestAllNoteNamesHas128Entries(t *testing.T) {
	names := AllNoteNames()
	assert.Len(t, names, 128)
	assert.Equal(t, "C4", names[60])
}
