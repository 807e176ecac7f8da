// Package commands defines the engine's command protocol: the single
// tagged-struct sum type sent over the bounded command channel from the UI
// thread to the engine, plus the reply-channel types query commands use to
// return data without blocking the caller. Grounded on
// original_source/omni_engine/src/commands.rs's EngineCommand enum, adapted
// to Go's tagged-struct idiom (a Kind discriminant plus optional payload
// fields) matching the teacher's own types.go enum style.
package commands

import (
	"github.com/omniproject/omniengine/internal/nodes"
	"github.com/omniproject/omniengine/internal/project"
)

// Kind discriminates which EngineCommand variant a Command carries.
type Kind int

const (
	Play Kind = iota
	Pause
	Stop
	SetVolume
	ToggleNote
	RemoveNote
	UpdateNote
	SetMute
	SetBpm
	SetPluginParam
	GetPluginParams
	SimulateCrash
	TriggerClip
	SetTrackVolume
	SetTrackPan
	GetProjectState
	LoadProjectState
	ResetGraph
	StopTrack
	RemoveTrack
	NewProject
	OpenPluginEditor
	SetClipLength
	AddTrackNode
	ReplaceTrackNode
	UpdateClipSequencer
	GetNoteNames
	GetLastTouchedParam
	GetPluginState
	SetPluginState
	AddAsset
	SetArrangementMode
	MoveClip
	StretchClip
	StartRecording
	StopRecording
	AddArrangementClips
)

// AddedClip is one (track_index, clip) pair produced by recording or
// synced back into the engine's project via AddArrangementClips.
type AddedClip struct {
	TrackIndex int
	Clip       project.ArrangementClip
}

// ParamTouch reports the last plugin parameter touched on a track, as
// (param_id, value, generation); generation lets a UI detect staleness
// across resurrections.
type ParamTouch struct {
	ParamID    uint32
	Value      float32
	Generation uint32
}

// Command is the tagged-struct sum type analogous to EngineCommand. Only
// the fields relevant to Kind are populated; reply channels are buffered
// size 1 and a send to a reply channel is a silent no-op if nothing ever
// receives (the caller may have given up).
type Command struct {
	Kind Kind

	TrackIndex int
	ClipIndex  int

	Volume float32
	Pan    float32
	Bpm    float32
	Muted  bool

	Start             float64
	Duration          float64
	Note              uint8
	Velocity          uint8
	Probability       float64
	VelocityDeviation int8
	Condition         project.NoteCondition

	OldStart  float64
	OldNote   uint8
	NewStart  float64
	NewNote   uint8

	ParamID    uint32
	ParamValue float32

	Node       nodes.Node
	NodeName   string
	PluginPath string

	UseSequencer bool
	SeqData      project.StepSequencerData

	ClipLength float64

	NewStartSamples uint64
	OriginalBPM     float32

	AssetName           string
	AssetData           []float32
	AssetSourceSampleRate float32

	Project     *project.Project
	GraphNodes  []nodes.Node

	PluginState []byte

	Clips []AddedClip

	// Reply channels for query commands. A reply send must never block the
	// engine's per-block loop: channels are buffered size 1 and the engine
	// treats a full/closed channel as "nobody is listening" and drops the
	// reply silently.
	ReplyProjectState     chan project.Project
	ReplyPluginParams     chan []nodes.ParamInfo
	ReplyNoteNames        chan NoteNamesReply
	ReplyLastTouchedParam chan *ParamTouch
	ReplyPluginState      chan []byte
	ReplyAddAsset         chan AddAssetReply
	ReplyStopRecording    chan []AddedClip
}

// NoteNamesReply is GetNoteNames's (clap_id, note_names) result.
type NoteNamesReply struct {
	PluginID  string
	NoteNames []string
}

// AddAssetReply is AddAsset's fallible pool-id result.
type AddAssetReply struct {
	AssetID uint32
	Err     error
}

// Reply sends v on ch without blocking; a full, closed or nil channel drops
// the value silently, matching a caller that already gave up on the reply.
func Reply[T any](ch chan T, v T) {
	if ch == nil {
		return
	}
	defer func() { _ = recover() }()
	select {
	case ch <- v:
	default:
	}
}
