package sequencer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniproject/omniengine/internal/project"
)

func TestAgeAndEmitNoteOffsEmitsWhenRemainingHitsZero(t *testing.T) {
	ts := &TrackState{Active: []ActiveNote{
		{Key: 60, RemainingSamples: 100},
		{Key: 62, RemainingSamples: 50},
	}}
	offs := ts.AgeAndEmitNoteOffs(60)
	require.Len(t, offs, 1)
	assert.Equal(t, uint8(62), offs[0].Key)
	assert.False(t, offs[0].On)
	require.Len(t, ts.Active, 1)
	assert.Equal(t, uint8(60), ts.Active[0].Key)
	assert.Equal(t, 40, ts.Active[0].RemainingSamples)
}

func TestAgeAndEmitNoteOffsHandlesEmptyActiveSet(t *testing.T) {
	ts := &TrackState{}
	offs := ts.AgeAndEmitNoteOffs(128)
	assert.Empty(t, offs)
}

func newTestClip() *project.StepSequencerData {
	seq := project.NewStepSequencerData()
	return &seq
}

func TestEvaluateEmitsNoteOnForUnmutedStep(t *testing.T) {
	clip := newTestClip()
	ts := &TrackState{}
	rng := rand.New(rand.NewSource(1))

	// One beat at 4 steps/beat = 4 global steps; samplesPerBeat chosen so
	// the whole first beat fits in one block.
	res := Evaluate(clip, 1, 0, 4800, 4800, rng, ts)
	require.NotEmpty(t, res.Notes)
	assert.Equal(t, uint8(60), res.Notes[0].Key)
	assert.True(t, res.Notes[0].On)
}

func TestEvaluateSkipsMutedSteps(t *testing.T) {
	clip := newTestClip()
	for i := range clip.Muted {
		clip.Muted[i] = true
	}
	ts := &TrackState{}
	rng := rand.New(rand.NewSource(1))
	res := Evaluate(clip, 1, 0, 4800, 4800, rng, ts)
	assert.Empty(t, res.Notes)
}

func TestEvaluateSkipsZeroVelocitySteps(t *testing.T) {
	clip := newTestClip()
	for i := range clip.Velocity.Steps {
		clip.Velocity.Steps[i] = 0
	}
	ts := &TrackState{}
	rng := rand.New(rand.NewSource(1))
	res := Evaluate(clip, 1, 0, 4800, 4800, rng, ts)
	assert.Empty(t, res.Notes)
}

func TestEvaluateGateZeroEmitsImmediateNoteOff(t *testing.T) {
	clip := newTestClip()
	for i := range clip.Gate.Steps {
		clip.Gate.Steps[i] = 0
	}
	ts := &TrackState{}
	rng := rand.New(rand.NewSource(1))
	res := Evaluate(clip, 1, 0, 4800, 4800, rng, ts)
	require.GreaterOrEqual(t, len(res.Notes), 2)
	assert.True(t, res.Notes[0].On)
	assert.False(t, res.Notes[1].On)
	assert.Empty(t, ts.Active)
}

func TestEvaluateModulationTargetEmitsParamEvent(t *testing.T) {
	clip := newTestClip()
	clip.ModulationTargets = []project.ModulationTarget{
		{ParamID: 5, Name: "cutoff", Lane: project.NewLane[uint8](16, 64)},
	}
	ts := &TrackState{}
	rng := rand.New(rand.NewSource(1))
	res := Evaluate(clip, 1, 0, 4800, 4800, rng, ts)
	require.NotEmpty(t, res.Params)
	assert.Equal(t, uint32(5), res.Params[0].ParamID)
	assert.InDelta(t, float32(64)/127.0, res.Params[0].Value, 1e-6)
}
