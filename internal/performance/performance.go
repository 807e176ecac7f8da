// Package performance holds the roll sub-step pattern table and the pitch
// bend shape function, grounded on
// original_source/omni_shared/src/performance.rs.
package performance

import "math"

// RollSubStep is one of a roll pattern's four sub-steps.
type RollSubStep int

const (
	Rest RollSubStep = iota
	Play
	PlayUp
	PlayDown
)

// RollPattern is a length-4 sub-step sequence.
type RollPattern [4]RollSubStep

// allPlay = "****"
var allPlay = RollPattern{Play, Play, Play, Play}

// rollPatterns maps roll id (0-19) to its pattern, reproducing the
// reference's exhaustive match. Ids not covered here fall back to allPlay
// per the reference's default arm.
var rollPatterns = map[uint8]RollPattern{
	0:  {Play, Play, Play, Play},       // "****"
	1:  {Play, Rest, Play, Rest},       // "*_*_"
	2:  {Play, Play, Rest, Rest},       // "**__"
	3:  {Rest, Rest, Play, Play},       // "__**"
	4:  {Play, Rest, Rest, Play},       // "*__*"
	5:  {Play, Rest, Rest, Rest},       // "*___" (alt accent placement)
	6:  {Rest, Play, Rest, Rest},       // "_*__"
	7:  {Rest, Rest, Play, Rest},       // "__*_"
	8:  {Rest, Rest, Rest, Play},       // "___*"
	9:  {Play, Rest, Rest, Rest},       // "*___"
	10: {Play, PlayUp, Rest, Rest},     // partial pitch-up variant
	11: {Play, PlayUp, PlayUp, Rest},   // partial pitch-up variant
	12: {PlayUp, PlayUp, Rest, Rest},   // partial pitch-up variant
	13: {Play, PlayUp, PlayUp, PlayUp}, // partial pitch-up variant
	14: {PlayUp, PlayUp, PlayUp, PlayUp}, // "^^^^" all PlayUp
	15: {Play, PlayDown, Rest, Rest},     // partial pitch-down variant
	16: {Play, PlayDown, PlayDown, Rest}, // partial pitch-down variant
	17: {PlayDown, PlayDown, Rest, Rest}, // partial pitch-down variant
	18: {Play, PlayDown, PlayDown, PlayDown}, // partial pitch-down variant
	19: {PlayDown, PlayDown, PlayDown, PlayDown}, // "vvvv" all PlayDown
}

// Roll returns the roll pattern for id, falling back to all-Play for any id
// outside the known table (matches the reference's default match arm).
func Roll(id uint8) RollPattern {
	if p, ok := rollPatterns[id]; ok {
		return p
	}
	return allPlay
}

// BendShape evaluates bend shape id at phase (in [0,1]), returning a signed
// semitone offset. Ids 1-18 cover ramps, triangles, sines at multiple rates,
// squares, trapezoids, and octave spikes; ids 0, 19 and any unmatched id are
// neutral (0).
func BendShape(id uint8, phase float64) float64 {
	if phase < 0 {
		phase = 0
	}
	if phase > 1 {
		phase = 1
	}
	switch id {
	case 0:
		return 0
	case 1: // ramp up a semitone
		return phase
	case 2: // ramp down a semitone
		return -phase
	case 3: // ramp up an octave
		return phase * 12
	case 4: // ramp down an octave
		return -phase * 12
	case 5: // triangle 0 to +2 semitones
		return triangle(phase) * 2
	case 6: // triangle 0 to +2 semitones, double rate
		return triangle(math.Mod(phase*2, 1)) * 2
	case 7: // triangle 0 to +2 semitones, quadruple rate
		return triangle(math.Mod(phase*4, 1)) * 2
	case 8: // sine +-1 semitone
		return math.Sin(phase*2*math.Pi) * 1
	case 9: // sine +-1 semitone, double rate
		return math.Sin(phase*4*math.Pi) * 1
	case 10: // sine +-1 semitone, quadruple rate
		return math.Sin(phase*8*math.Pi) * 1
	case 11: // sine +-2 semitones
		return math.Sin(phase*2*math.Pi) * 2
	case 12: // square +-1 semitone
		return square(phase)
	case 13: // square +-1 semitone, double rate
		return square(math.Mod(phase*2, 1))
	case 14: // trapezoid up, hold, release a semitone
		return trapezoid(phase)
	case 15: // trapezoid down, hold, release a semitone
		return -trapezoid(phase)
	case 16: // octave spike up at onset, decaying to neutral
		return (1 - phase) * 12
	case 17: // octave spike down at onset, decaying to neutral
		return -(1 - phase) * 12
	case 18: // half-step overshoot settling to neutral
		return (1 - phase) * 0.5
	case 19:
		return 0
	default:
		return 0
	}
}

func triangle(phase float64) float64 {
	if phase < 0.5 {
		return phase * 2
	}
	return 2 - phase*2
}

func square(phase float64) float64 {
	if phase < 0.5 {
		return 1
	}
	return -1
}

func trapezoid(phase float64) float64 {
	switch {
	case phase < 0.25:
		return phase * 4
	case phase < 0.75:
		return 1
	default:
		return (1 - phase) * 4
	}
}
