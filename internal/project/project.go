// Package project holds the engine's data model: the mutable Project tree
// the audio callback owns exclusively (tracks, clips, step sequencer lanes,
// arrangement clips). Grounded on the reference omni_shared project model,
// reshaped into plain Go structs with json tags for GetProjectState /
// LoadProjectState snapshotting.
package project

import "math"

// Timestamp is a sample-accurate position: whole samples plus a sub-sample
// fraction in [0,1). Used for arrangement clip positions.
type Timestamp struct {
	SampleIndex uint64  `json:"sample_index"`
	Fractional  float64 `json:"fractional"`
}

// ZeroTimestamp reports the zero timestamp.
func ZeroTimestamp() Timestamp { return Timestamp{} }

// FromSeconds builds a Timestamp from a seconds offset at sampleRate.
func FromSeconds(seconds float64, sampleRate float64) Timestamp {
	total := seconds * sampleRate
	idx := math.Floor(total)
	return normalize(Timestamp{SampleIndex: uint64(idx), Fractional: total - idx})
}

// AsSeconds returns the timestamp expressed in seconds at sampleRate.
func (t Timestamp) AsSeconds(sampleRate float64) float64 {
	return (float64(t.SampleIndex) + t.Fractional) / sampleRate
}

func normalize(t Timestamp) Timestamp {
	for t.Fractional < 0 {
		t.Fractional += 1
		if t.SampleIndex > 0 {
			t.SampleIndex--
		}
	}
	for t.Fractional >= 1 {
		t.Fractional -= 1
		t.SampleIndex++
	}
	return t
}

// NoteConditionKind discriminates Note.Condition variants.
type NoteConditionKind int

const (
	ConditionAlways NoteConditionKind = iota
	ConditionIteration
	ConditionPreviousPlayed
	ConditionPreviousSilenced
)

// NoteCondition gates whether a piano-roll note is emitted on a given loop
// iteration. Named to match the spec's glossary (PreviousPlayed /
// PreviousSilenced), not the reference implementation's longer names.
type NoteCondition struct {
	Kind     NoteConditionKind `json:"kind"`
	Expected uint8             `json:"expected,omitempty"`
	Cycle    uint8             `json:"cycle,omitempty"`
}

// Note is a single piano-roll event.
type Note struct {
	Start             float64       `json:"start"`
	Duration          float64       `json:"duration"`
	Key               uint8         `json:"key"`
	Velocity          uint8         `json:"velocity"`
	Probability       float64       `json:"probability"`
	VelocityDeviation int8          `json:"velocity_deviation"`
	Condition         NoteCondition `json:"condition"`
}

// Direction is a SequencerLane's traversal rule over its loop window.
type Direction int

const (
	DirForward Direction = iota
	DirBackward
	DirRandom
	DirEach2nd
	DirEach3rd
	DirEach4th
)

// Lane is a generic step lane; T is one of uint8, int8, float32 in practice.
// Go lacks enum-constrained generics beyond constraints.Ordered-style sets,
// so callers instantiate Lane[uint8], Lane[int8], Lane[float32] directly.
type Lane[T any] struct {
	Steps     []T       `json:"steps"`
	LoopStart int       `json:"loop_start"`
	LoopEnd   int       `json:"loop_end"`
	Direction Direction `json:"direction"`
	Active    bool      `json:"active"`
}

// NewLane builds a lane of the given size filled with defaultVal, looping
// over its whole length.
func NewLane[T any](size int, defaultVal T) Lane[T] {
	steps := make([]T, size)
	for i := range steps {
		steps[i] = defaultVal
	}
	return Lane[T]{Steps: steps, LoopStart: 0, LoopEnd: size, Direction: DirForward, Active: true}
}

// Window returns the lane's loop window width.
func (l Lane[T]) Window() int { return l.LoopEnd - l.LoopStart }

// ModulationTarget binds a plugin parameter id to a uint8 lane.
type ModulationTarget struct {
	ParamID uint32    `json:"param_id"`
	Name    string    `json:"name"`
	Lane    Lane[uint8] `json:"lane"`
}

// StepSequencerData is the full set of lanes and performance state for one clip.
type StepSequencerData struct {
	Pitch               Lane[uint8]  `json:"pitch"`
	Velocity            Lane[uint8]  `json:"velocity"`
	Gate                Lane[float32] `json:"gate"`
	Probability         Lane[uint8]  `json:"probability"`
	PerformanceOctave   Lane[int8]   `json:"performance_octave"`
	PerformanceBend     Lane[uint8]  `json:"performance_bend"`
	PerformanceChord    Lane[uint8]  `json:"performance_chord"`
	PerformanceRoll     Lane[uint8]  `json:"performance_roll"`
	PerformanceRandom   Lane[uint8]  `json:"performance_random"`
	Muted               []bool       `json:"muted"`
	RandomMaskGlobal    uint8        `json:"random_mask_global"`
	ModulationTargets   []ModulationTarget `json:"modulation_targets"`
	ActiveModTargetIdx  int          `json:"active_modulation_target_index"`
	RootKey             uint8        `json:"root_key"`
	Scale               uint8        `json:"scale"`
}

const defaultStepCount = 16

// NewStepSequencerData builds a 16-step sequencer with reference defaults.
func NewStepSequencerData() StepSequencerData {
	muted := make([]bool, defaultStepCount)
	return StepSequencerData{
		Pitch:             NewLane[uint8](defaultStepCount, 60),
		Velocity:          NewLane[uint8](defaultStepCount, 100),
		Gate:              NewLane[float32](defaultStepCount, 0.5),
		Probability:       NewLane[uint8](defaultStepCount, 100),
		PerformanceOctave: NewLane[int8](defaultStepCount, 0),
		PerformanceBend:   NewLane[uint8](defaultStepCount, 0),
		PerformanceChord:  NewLane[uint8](defaultStepCount, 0),
		PerformanceRoll:   NewLane[uint8](defaultStepCount, 0),
		PerformanceRandom: NewLane[uint8](defaultStepCount, 0),
		Muted:             muted,
		RootKey:           60,
		Scale:             0,
	}
}

// RandomMask bit positions within RandomMaskGlobal.
const (
	RandomBitPitch = 1 << iota
	RandomBitVelocity
	RandomBitGate
	RandomBitOctave
	RandomBitBend
	RandomBitChord
	RandomBitRoll
	RandomBitMod
)

// WarpMarker anchors a source sample to a timeline beat for stretch mapping.
type WarpMarker struct {
	SourceSample  uint64  `json:"source_sample"`
	TimelineBeat  float64 `json:"timeline_beat"`
}

// Clip is a session-mode launchable clip: either a piano-roll note list or a
// step sequencer, selected by UseSequencer.
type Clip struct {
	Name          string            `json:"name"`
	Notes         []Note            `json:"notes"`
	Length        float64           `json:"length"`
	Color         [3]uint8          `json:"color"`
	UseSequencer  bool              `json:"use_sequencer"`
	StepSequencer StepSequencerData `json:"step_sequencer"`
}

// NewClip returns an empty 4-beat clip with a fresh step sequencer.
func NewClip(name string) Clip {
	return Clip{Name: name, Length: 4.0, UseSequencer: true, StepSequencer: NewStepSequencerData()}
}

// ArrangementClip places a pool asset on the linear timeline.
type ArrangementClip struct {
	SourceID      uint32       `json:"source_id"`
	StartTime     Timestamp    `json:"start_time"`
	Length        Timestamp    `json:"length"`
	StartOffset   Timestamp    `json:"start_offset"`
	Name          string       `json:"name"`
	Selected      bool         `json:"-"`
	WarpMarkers   []WarpMarker `json:"warp_markers"`
	Stretch       bool         `json:"stretch"`
	StretchRatio  float64      `json:"stretch_ratio"`
	OriginalBPM   float64      `json:"original_bpm"`
	CachedDerivedID uint32     `json:"-"`
}

// TrackArrangement holds one track's arrangement-mode clips.
type TrackArrangement struct {
	Clips []ArrangementClip `json:"clips"`
}

const matrixClipCount = 8

// Track is one mixer channel: plugin/gain node config plus clips.
type Track struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	PluginPath       string            `json:"plugin_path,omitempty"`
	Volume           float32           `json:"volume"`
	Pan              float32           `json:"pan"`
	Mute             bool              `json:"mute"`
	Solo             bool              `json:"solo"`
	Clips            []Clip            `json:"clips"`
	ActiveClipIndex  int               `json:"active_clip_index"`
	Parameters       map[uint32]float32 `json:"parameters"`
	Arrangement      TrackArrangement  `json:"arrangement"`
	PluginState      []byte            `json:"plugin_state,omitempty"`
}

// NewTrack returns a track with the reference's default 8 matrix clips.
func NewTrack(id, name string) Track {
	clips := make([]Clip, matrixClipCount)
	for i := range clips {
		clips[i] = NewClip("")
	}
	return Track{
		ID:              id,
		Name:            name,
		Volume:          1.0,
		Pan:             0.0,
		Clips:           clips,
		ActiveClipIndex: -1,
		Parameters:      make(map[uint32]float32),
	}
}

// Project is the whole engine-owned mutable state tree.
type Project struct {
	Name            string  `json:"name"`
	BPM             float64 `json:"bpm"`
	Tracks          []Track `json:"tracks"`
	ArrangementMode bool    `json:"arrangement_mode"`
}

// NewProject returns the reference's default project: "New Project" at 120 BPM.
func NewProject() Project {
	return Project{Name: "New Project", BPM: 120.0}
}
