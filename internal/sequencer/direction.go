// Package sequencer implements the step sequencer's lane direction mapping,
// per-step performance pipeline, note-off carryover, and the parallel
// piano-roll evaluator. Grounded on
// original_source/omni_engine/src/engine.rs's inline per-block sequencer
// logic and spec 4.9; engine.rs calls a StepGenerator::get_step_index that
// was never retrieved in the pack, so the direction formulas here are
// derived directly from spec 4.9's text rather than ported.
package sequencer

// StepIndex maps a global step g into lane [loopStart, loopEnd) per
// direction, always returning an index in that window (spec 8's invariant).
// If the window is empty, loopStart is returned.
func StepIndex(direction int, g, loopStart, loopEnd int, clipID uint32) int {
	w := loopEnd - loopStart
	if w <= 0 {
		return loopStart
	}
	rel := g - loopStart
	mod := func(a, b int) int {
		m := a % b
		if m < 0 {
			m += b
		}
		return m
	}
	switch direction {
	case DirForward:
		return loopStart + mod(rel, w)
	case DirBackward:
		return loopEnd - 1 - mod(rel, w)
	case DirEach2nd:
		return loopStart + mod(rel/2, w)
	case DirEach3rd:
		return loopStart + mod(rel/3, w)
	case DirEach4th:
		return loopStart + mod(rel/4, w)
	case DirRandom:
		return loopStart + int(randomSeeded(clipID, uint64(g))%uint64(w))
	default:
		return loopStart + mod(rel, w)
	}
}

// Direction constants mirror project.Direction's ordering.
const (
	DirForward = iota
	DirBackward
	DirRandom
	DirEach2nd
	DirEach3rd
	DirEach4th
)

// randomSeeded is a deterministic per-(clipID, lane-disambiguated-seed, g)
// pseudo-random draw. Resolves the reference's open question on Random
// direction seeding as per-lane independent (see SPEC_FULL.md): callers pass a
// laneSalt folded into clipID via SeedForLane so two Random lanes on the
// same clip do not echo each other's sequence.
func randomSeeded(seed uint32, g uint64) uint64 {
	x := uint64(seed)*0x9E3779B97F4A7C15 + g*0xBF58476D1CE4E5B9
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return x
}

// SeedForLane folds a lane identifier into a clip id to decorrelate
// multiple Random-direction lanes on the same clip.
func SeedForLane(clipID uint32, lane uint8) uint32 {
	return clipID*31 + uint32(lane)
}

// Lane identifiers used with SeedForLane, purely for decorrelating Random
// direction draws between lanes.
const (
	LanePitch uint8 = iota
	LaneVelocity
	LaneGate
	LaneProbability
	LaneOctave
	LaneBend
	LaneChord
	LaneRoll
	LaneRandom
	LaneModulationBase
)
