package sequencer

import (
	"math"
	"math/rand"

	"github.com/omniproject/omniengine/internal/nodes"
	"github.com/omniproject/omniengine/internal/project"
)

// EvaluatePianoRoll generates note-on events for a clip's raw note list
// (use_sequencer=false), implementing spec 4.9's piano-roll mode:
// loop-relative note triggering, Bernoulli probability, Iteration parity
// condition, and a uniform velocity_deviation offset clamped to [1,127].
func EvaluatePianoRoll(clip *project.Clip, startBeat float64, frames int, samplesPerBeat float64, rng *rand.Rand, ts *TrackState) Result {
	var res Result
	if clip.Length <= 0 {
		return res
	}
	endBeat := startBeat + float64(frames)/samplesPerBeat

	startIter := int(math.Floor(startBeat / clip.Length))
	endIter := int(math.Floor(endBeat/clip.Length)) + 1

	for iter := startIter; iter <= endIter; iter++ {
		windowStart := float64(iter) * clip.Length
		for _, note := range clip.Notes {
			relStart := math.Mod(note.Start, clip.Length)
			if relStart < 0 {
				relStart += clip.Length
			}
			absBeat := windowStart + relStart
			if absBeat < startBeat || absBeat >= endBeat {
				continue
			}
			if !passesCondition(note.Condition, iter) {
				continue
			}
			if note.Probability < 1.0 {
				if rng.Float64() >= note.Probability {
					continue
				}
			}
			velocity := applyDeviation(note.Velocity, note.VelocityDeviation, rng)
			offset := int((absBeat - startBeat) * samplesPerBeat)
			res.Notes = append(res.Notes, nodes.NoteEvent{SampleOffset: offset, Key: note.Key, Velocity: velocity, On: true})
			durSamples := int(note.Duration * samplesPerBeat)
			if durSamples <= 0 {
				res.Notes = append(res.Notes, nodes.NoteEvent{SampleOffset: offset, Key: note.Key, On: false})
				continue
			}
			ts.Active = append(ts.Active, ActiveNote{Key: note.Key, RemainingSamples: durSamples})
		}
	}
	return res
}

func passesCondition(c project.NoteCondition, iteration int) bool {
	switch c.Kind {
	case project.ConditionAlways:
		return true
	case project.ConditionIteration:
		if c.Cycle == 0 {
			return true
		}
		return uint8(iteration%int(c.Cycle))+1 == c.Expected
	case project.ConditionPreviousPlayed, project.ConditionPreviousSilenced:
		// Evaluated only in session mode, per spec 4.9. No per-note history
		// of earlier iterations is kept (TrackState holds only active
		// notes), so these conditions always pass.
		return true
	default:
		return true
	}
}

func applyDeviation(velocity uint8, deviation int8, rng *rand.Rand) uint8 {
	if deviation == 0 {
		return velocity
	}
	d := int(deviation)
	if d < 0 {
		d = -d
	}
	offset := rng.Intn(2*d+1) - d
	v := int(velocity) + offset
	if v < 1 {
		v = 1
	}
	if v > 127 {
		v = 127
	}
	return uint8(v)
}
