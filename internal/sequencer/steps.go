package sequencer

import (
	"math/rand"

	"github.com/omniproject/omniengine/internal/nodes"
	"github.com/omniproject/omniengine/internal/performance"
	"github.com/omniproject/omniengine/internal/project"
	"github.com/omniproject/omniengine/internal/scale"
)

const stepDurationBeats = 0.25
const bendStride = 128

// ActiveNote is one note whose note-off falls in a future block.
type ActiveNote struct {
	Key              uint8
	RemainingSamples int
	// BendID/StepBeat/SamplesPerBeat let bend generation keep evaluating
	// phase for a note that spans multiple blocks.
	BendID        uint8
	StepBeatStart float64
	TotalSamples  int
}

// TrackState holds the sequencer's per-track carryover state across blocks.
type TrackState struct {
	Active []ActiveNote
}

// AgeAndEmitNoteOffs decrements every active note's remaining samples by
// frames and returns note-off events (at offset 0) for any that reach zero,
// removing them from the active set. Implements spec 4.9's note-off
// carryover and 4.11 step 4.
func (ts *TrackState) AgeAndEmitNoteOffs(frames int) []nodes.NoteEvent {
	var offs []nodes.NoteEvent
	kept := ts.Active[:0]
	for _, n := range ts.Active {
		n.RemainingSamples -= frames
		if n.RemainingSamples <= 0 {
			offs = append(offs, nodes.NoteEvent{SampleOffset: 0, Key: n.Key, On: false})
			continue
		}
		kept = append(kept, n)
	}
	ts.Active = kept
	return offs
}

// Result is the event set StepSequencer.Evaluate emits for one block.
type Result struct {
	Notes       []nodes.NoteEvent
	Params      []nodes.ParamEvent
	Expressions []nodes.ExpressionEvent
}

// Evaluate generates note/param/expression events for one clip in sequencer
// mode over [startBeat, startBeat+frames/samplesPerBeat), implementing spec
// 4.9 steps 1-12. rng supplies the non-reproducible uniform draws (random
// mask, randomized lane values); the Random *direction* uses its own
// deterministic seeded draw instead, per direction.go.
func Evaluate(clip *project.StepSequencerData, clipID uint32, startBeat float64, frames int, samplesPerBeat float64, rng *rand.Rand, ts *TrackState) Result {
	var res Result
	endBeat := startBeat + float64(frames)/samplesPerBeat

	gStart := int(startBeat / stepDurationBeats)
	gEnd := int(endBeat/stepDurationBeats) + 1

	for g := gStart; g < gEnd; g++ {
		stepBeat := float64(g) * stepDurationBeats
		if stepBeat < startBeat || stepBeat >= endBeat {
			continue
		}
		offset := int((stepBeat - startBeat) * samplesPerBeat)
		evaluateStep(clip, clipID, g, stepBeat, offset, samplesPerBeat, rng, ts, &res)
	}
	return res
}

func lanePos(direction project.Direction, g int, clipID uint32, lane uint8, l interface {
	win() (start, end int)
}) int {
	start, end := l.win()
	return StepIndex(int(direction), g, start, end, SeedForLane(clipID, lane))
}

type u8Lane project.Lane[uint8]

func (l u8Lane) win() (int, int) { return l.LoopStart, l.LoopEnd }

type i8Lane project.Lane[int8]

func (l i8Lane) win() (int, int) { return l.LoopStart, l.LoopEnd }

type f32Lane project.Lane[float32]

func (l f32Lane) win() (int, int) { return l.LoopStart, l.LoopEnd }

func evaluateStep(clip *project.StepSequencerData, clipID uint32, g int, stepBeat float64, offset int, samplesPerBeat float64, rng *rand.Rand, ts *TrackState, res *Result) {
	muted := func(pos int) bool {
		if pos < 0 || pos >= len(clip.Muted) {
			return false
		}
		return clip.Muted[pos]
	}

	randPos := lanePos(clip.PerformanceRandom.Direction, g, clipID, LaneRandom, u8Lane(clip.PerformanceRandom))
	doRandomize := false
	if !muted(randPos) {
		p := clip.PerformanceRandom.Steps[randPos]
		if p != 0 {
			u := rng.Intn(100) + 1
			doRandomize = u <= int(p)
		}
	}
	mask := clip.RandomMaskGlobal

	// 2. pitch
	pitchPos := lanePos(clip.Pitch.Direction, g, clipID, LanePitch, u8Lane(clip.Pitch))
	if muted(pitchPos) {
		return
	}
	pitch := clip.Pitch.Steps[pitchPos]
	if doRandomize && mask&project.RandomBitPitch != 0 {
		pitch = uint8(rng.Intn(128))
	}

	// 3. velocity
	velPos := lanePos(clip.Velocity.Direction, g, clipID, LaneVelocity, u8Lane(clip.Velocity))
	if muted(velPos) {
		return
	}
	velocity := clip.Velocity.Steps[velPos]
	if doRandomize && mask&project.RandomBitVelocity != 0 {
		velocity = uint8(rng.Intn(128))
	}
	if velocity == 0 {
		return
	}

	// 4. gate
	gatePos := lanePos(clip.Gate.Direction, g, clipID, LaneGate, f32Lane(clip.Gate))
	if muted(gatePos) {
		return
	}
	gate := clip.Gate.Steps[gatePos]
	if doRandomize && mask&project.RandomBitGate != 0 {
		gate = rng.Float32()
	}

	// 5. probability
	probPos := lanePos(clip.Probability.Direction, g, clipID, LaneProbability, u8Lane(clip.Probability))
	if muted(probPos) {
		return
	}
	probability := clip.Probability.Steps[probPos]
	if probability < 100 {
		if rng.Intn(100)+1 > int(probability) {
			return
		}
	}

	// 6. octave
	octPos := lanePos(clip.PerformanceOctave.Direction, g, clipID, LaneOctave, i8Lane(clip.PerformanceOctave))
	octave := clip.PerformanceOctave.Steps[octPos]
	if !muted(octPos) {
		if doRandomize && mask&project.RandomBitOctave != 0 {
			octave = int8(rng.Intn(5) - 2)
		}
		n := int(pitch) + 12*int(octave)
		pitch = uint8(clamp(n, 0, 127))
	}

	// 7. scale quantize
	quantized := scale.Quantize(pitch, clip.RootKey, scale.Type(clip.Scale))

	// 8. chord
	pitches := []uint8{quantized}
	chordPos := lanePos(clip.PerformanceChord.Direction, g, clipID, LaneChord, u8Lane(clip.PerformanceChord))
	if !muted(chordPos) {
		chordID := clip.PerformanceChord.Steps[chordPos]
		if doRandomize && mask&project.RandomBitChord != 0 {
			chordID = uint8(rng.Intn(12))
		}
		if chordID != 0 {
			if ct, ok := scale.ChordFromIndex(int(chordID)); ok {
				pitches = append(pitches, scale.VoiceChord(quantized, ct)...)
			}
		}
	}

	// 9. bend + roll ids (never skip)
	bendPos := lanePos(clip.PerformanceBend.Direction, g, clipID, LaneBend, u8Lane(clip.PerformanceBend))
	bendID := clip.PerformanceBend.Steps[bendPos]
	bendMuted := muted(bendPos)

	rollPos := lanePos(clip.PerformanceRoll.Direction, g, clipID, LaneRoll, u8Lane(clip.PerformanceRoll))
	rollID := clip.PerformanceRoll.Steps[rollPos]
	rollMuted := muted(rollPos)

	gateSamples := int(float64(gate) * stepDurationBeats * samplesPerBeat)

	rollActive := rollID != 0 && !rollMuted
	if !rollActive {
		for _, key := range pitches {
			emitNote(res, ts, key, velocity, offset, gateSamples, bendID, bendMuted, stepBeat, samplesPerBeat)
		}
	} else {
		pattern := performance.Roll(rollID)
		subDur := stepDurationBeats * samplesPerBeat / 4
		subGate := int(subDur * 0.8)
		for _, root := range pitches {
			drift := 0
			for i, sub := range pattern {
				subOffset := offset + int(float64(i)*subDur)
				switch sub {
				case performance.Rest:
					continue
				case performance.Play:
				case performance.PlayUp:
					drift++
				case performance.PlayDown:
					drift--
				}
				key := clampU8(int(root) + drift)
				emitNote(res, ts, key, velocity, subOffset, subGate, bendID, bendMuted, stepBeat, samplesPerBeat)
			}
		}
	}

	// 12. modulation
	for _, mt := range clip.ModulationTargets {
		pos := lanePos(mt.Lane.Direction, g, clipID, LaneModulationBase, u8Lane(mt.Lane))
		if pos < 0 || pos >= len(mt.Lane.Steps) {
			continue
		}
		val := float32(mt.Lane.Steps[pos]) / 127.0
		res.Params = append(res.Params, nodes.ParamEvent{SampleOffset: offset, ParamID: mt.ParamID, Value: val})
	}
}

func emitNote(res *Result, ts *TrackState, key, velocity uint8, offset, gateSamples int, bendID uint8, bendMuted bool, stepBeat, samplesPerBeat float64) {
	res.Notes = append(res.Notes, nodes.NoteEvent{SampleOffset: offset, Key: key, Velocity: velocity, On: true})
	if gateSamples <= 0 {
		res.Notes = append(res.Notes, nodes.NoteEvent{SampleOffset: offset, Key: key, On: false})
		return
	}
	ts.Active = append(ts.Active, ActiveNote{
		Key: key, RemainingSamples: gateSamples, BendID: bendID,
		StepBeatStart: stepBeat, TotalSamples: gateSamples,
	})

	if bendID == 0 || bendMuted {
		return
	}
	for s := 0; s < gateSamples; s += bendStride {
		beatAt := stepBeat + float64(s)/samplesPerBeat
		phase := (beatAt - stepBeat) / stepDurationBeats
		if phase > 1 {
			phase = 1
		}
		val := performance.BendShape(bendID, phase)
		res.Expressions = append(res.Expressions, nodes.ExpressionEvent{SampleOffset: offset + s, Value: val})
	}
	res.Expressions = append(res.Expressions, nodes.ExpressionEvent{SampleOffset: offset + gateSamples - 1, Value: 0})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampU8(v int) uint8 {
	return uint8(clamp(v, 0, 127))
}
