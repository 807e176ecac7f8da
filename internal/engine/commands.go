package engine

import (
	"fmt"
	"log"
	"math"

	"github.com/omniproject/omniengine/internal/commands"
	"github.com/omniproject/omniengine/internal/graph"
	"github.com/omniproject/omniengine/internal/nodes"
	"github.com/omniproject/omniengine/internal/project"
)

// drainCommands pulls up to maxDrainPerBlock pending commands and applies
// them, matching spec 4.11 step 1. Commands past the bound remain queued
// for the next block rather than stalling this one.
func (e *Engine) drainCommands() {
	for i := 0; i < maxDrainPerBlock; i++ {
		select {
		case cmd := <-e.commands:
			e.apply(cmd)
		default:
			return
		}
	}
}

func (e *Engine) apply(cmd commands.Command) {
	switch cmd.Kind {
	case commands.Play:
		e.isPlaying.Store(true)
	case commands.Pause:
		e.isPlaying.Store(false)
	case commands.Stop:
		e.isPlaying.Store(false)
		e.samplePos.Store(0)
		for _, ts := range e.seqStates {
			ts.Active = ts.Active[:0]
		}

	case commands.SetVolume:
		e.masterGain.Store(math.Float32bits(cmd.Volume))
	case commands.SetBpm:
		e.proj.BPM = float64(cmd.Bpm)
	case commands.SetArrangementMode:
		e.proj.ArrangementMode = cmd.Muted // reuses the bool payload field

	case commands.SetMute:
		if t := e.track(cmd.TrackIndex); t != nil {
			t.Mute = cmd.Muted
		}
	case commands.SetTrackVolume:
		if t := e.track(cmd.TrackIndex); t != nil {
			t.Volume = cmd.Volume
		}
	case commands.SetTrackPan:
		if t := e.track(cmd.TrackIndex); t != nil {
			t.Pan = cmd.Pan
		}
	case commands.TriggerClip:
		if t := e.track(cmd.TrackIndex); t != nil {
			t.ActiveClipIndex = cmd.ClipIndex
		}
	case commands.StopTrack:
		if t := e.track(cmd.TrackIndex); t != nil {
			t.ActiveClipIndex = -1
		}
	case commands.SetClipLength:
		if c := e.clip(cmd.TrackIndex, cmd.ClipIndex); c != nil {
			c.Length = cmd.ClipLength
		}
	case commands.UpdateClipSequencer:
		if c := e.clip(cmd.TrackIndex, cmd.ClipIndex); c != nil {
			c.UseSequencer = cmd.UseSequencer
			c.StepSequencer = cmd.SeqData
		}

	case commands.ToggleNote:
		e.applyToggleNote(cmd)
	case commands.RemoveNote:
		e.applyRemoveNote(cmd)
	case commands.UpdateNote:
		e.applyUpdateNote(cmd)

	case commands.SetPluginParam:
		if node := e.trackNode(cmd.TrackIndex); node != nil {
			node.SetParam(cmd.ParamID, cmd.ParamValue)
		}
		if t := e.track(cmd.TrackIndex); t != nil {
			if t.Parameters == nil {
				t.Parameters = make(map[uint32]float32)
			}
			t.Parameters[cmd.ParamID] = cmd.ParamValue
		}
	case commands.GetPluginParams:
		var params []nodes.ParamInfo
		if node := e.trackNode(cmd.TrackIndex); node != nil {
			params = node.GetPluginParams()
		}
		commands.Reply(cmd.ReplyPluginParams, params)
	case commands.SimulateCrash:
		if node := e.trackNode(cmd.TrackIndex); node != nil {
			node.SimulateCrash()
		}
	case commands.OpenPluginEditor:
		if node := e.trackNode(cmd.TrackIndex); node != nil {
			node.OpenEditor()
		}
	case commands.GetNoteNames:
		var reply commands.NoteNamesReply
		if node := e.trackNode(cmd.TrackIndex); node != nil {
			reply.PluginID, reply.NoteNames = node.GetNoteNames()
		}
		commands.Reply(cmd.ReplyNoteNames, reply)
	case commands.GetLastTouchedParam:
		var reply *commands.ParamTouch
		if node := e.trackNode(cmd.TrackIndex); node != nil {
			id, val, gen := node.GetLastTouched()
			if gen > 0 {
				reply = &commands.ParamTouch{ParamID: id, Value: val, Generation: uint32(gen)}
			}
		}
		commands.Reply(cmd.ReplyLastTouchedParam, reply)
	case commands.GetPluginState:
		var state []byte
		if node := e.trackNode(cmd.TrackIndex); node != nil {
			state, _ = node.GetState()
		}
		commands.Reply(cmd.ReplyPluginState, state)
	case commands.SetPluginState:
		if node := e.trackNode(cmd.TrackIndex); node != nil {
			if err := node.SetState(cmd.PluginState); err != nil {
				log.Printf("engine: set plugin state track %d: %v", cmd.TrackIndex, err)
			}
		}

	case commands.GetProjectState:
		commands.Reply(cmd.ReplyProjectState, e.proj)
	case commands.LoadProjectState:
		e.applyLoadProjectState(cmd)
	case commands.ResetGraph:
		e.graph = graph.New[nodes.Node]()
		e.trackNodeIDs = e.trackNodeIDs[:0]
	case commands.NewProject:
		e.isPlaying.Store(false)
		e.samplePos.Store(0)
		e.graph = graph.New[nodes.Node]()
		e.trackNodeIDs = e.trackNodeIDs[:0]
		e.proj = project.NewProject()
		for _, ts := range e.seqStates {
			ts.Active = ts.Active[:0]
		}

	case commands.AddTrackNode:
		node := cmd.Node
		if node == nil {
			node = nodes.NewBuiltinGain()
		}
		id := e.graph.AddNode(node)
		e.trackNodeIDs = append(e.trackNodeIDs, id)
		t := project.NewTrack(fmt.Sprintf("track-%d", len(e.proj.Tracks)), cmd.NodeName)
		t.PluginPath = cmd.PluginPath
		e.proj.Tracks = append(e.proj.Tracks, t)
	case commands.ReplaceTrackNode:
		if slot, ok := e.graph.NodeMut(e.trackNodeID(cmd.TrackIndex)); ok {
			old := *slot
			*slot = cmd.Node
			e.dropAsync(old)
		}
		if t := e.track(cmd.TrackIndex); t != nil {
			t.Name = cmd.NodeName
			t.PluginPath = cmd.PluginPath
		}
	case commands.RemoveTrack:
		e.applyRemoveTrack(cmd.TrackIndex)

	case commands.AddAsset:
		id := e.Pool.AddFromCapture(cmd.AssetData, int(cmd.AssetSourceSampleRate))
		commands.Reply(cmd.ReplyAddAsset, commands.AddAssetReply{AssetID: id})

	case commands.MoveClip:
		if c := e.arrangementClip(cmd.TrackIndex, cmd.ClipIndex); c != nil {
			c.StartTime = project.Timestamp{SampleIndex: cmd.NewStartSamples}
		}
	case commands.StretchClip:
		e.applyStretchClip(cmd)

	case commands.StartRecording:
		e.samplePos.Store(0)
		e.rec.Start(&e.proj, 0)
	case commands.StopRecording:
		results := e.rec.Stop(e.Pool, &e.proj, e.sampleRate)
		out := make([]commands.AddedClip, len(results))
		for i, r := range results {
			out[i] = commands.AddedClip{TrackIndex: r.TrackIndex, Clip: r.Clip}
		}
		commands.Reply(cmd.ReplyStopRecording, out)
	case commands.AddArrangementClips:
		for _, ac := range cmd.Clips {
			if t := e.track(ac.TrackIndex); t != nil {
				t.Arrangement.Clips = append(t.Arrangement.Clips, ac.Clip)
			}
		}

	default:
		log.Printf("engine: unhandled command kind %d", cmd.Kind)
	}
}

func (e *Engine) track(idx int) *project.Track {
	if idx < 0 || idx >= len(e.proj.Tracks) {
		return nil
	}
	return &e.proj.Tracks[idx]
}

func (e *Engine) clip(trackIdx, clipIdx int) *project.Clip {
	t := e.track(trackIdx)
	if t == nil || clipIdx < 0 || clipIdx >= len(t.Clips) {
		return nil
	}
	return &t.Clips[clipIdx]
}

func (e *Engine) arrangementClip(trackIdx, clipIdx int) *project.ArrangementClip {
	t := e.track(trackIdx)
	if t == nil || clipIdx < 0 || clipIdx >= len(t.Arrangement.Clips) {
		return nil
	}
	return &t.Arrangement.Clips[clipIdx]
}

func (e *Engine) trackNodeID(idx int) uint32 {
	if idx < 0 || idx >= len(e.trackNodeIDs) {
		return 0
	}
	return e.trackNodeIDs[idx]
}

func (e *Engine) trackNode(idx int) nodes.Node {
	node, ok := e.graph.NodeAt(e.trackNodeID(idx))
	if !ok {
		return nil
	}
	return node
}

// dropAsync hands a removed/replaced node to the off-thread dropper instead
// of destructing it on the audio thread.
func (e *Engine) dropAsync(n nodes.Node) {
	if n == nil {
		return
	}
	select {
	case e.dropped <- n:
	default:
		log.Printf("engine: drop queue full, closing node inline")
		if closer, ok := n.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
}

// applyRemoveTrack removes a track's node and metadata. Unlike the
// reference's petgraph-backed remove_node, internal/graph assigns stable
// ids rather than slot indices, so no track-index remap bookkeeping is
// needed after the underlying swap-remove.
func (e *Engine) applyRemoveTrack(idx int) {
	if idx < 0 || idx >= len(e.proj.Tracks) {
		return
	}
	e.proj.Tracks = append(e.proj.Tracks[:idx], e.proj.Tracks[idx+1:]...)
	if idx < len(e.trackNodeIDs) {
		id := e.trackNodeIDs[idx]
		_, _, removed := e.graph.RemoveNode(id)
		e.dropAsync(removed)
		e.trackNodeIDs = append(e.trackNodeIDs[:idx], e.trackNodeIDs[idx+1:]...)
	}
	if idx < len(e.seqStates) {
		e.seqStates = append(e.seqStates[:idx], e.seqStates[idx+1:]...)
	}
	if idx < len(e.delays) {
		e.delays = append(e.delays[:idx], e.delays[idx+1:]...)
	}
}

func (e *Engine) applyLoadProjectState(cmd commands.Command) {
	e.graph = graph.New[nodes.Node]()
	e.trackNodeIDs = e.trackNodeIDs[:0]
	if cmd.Project != nil {
		e.proj = *cmd.Project
	}
	for i := range e.proj.Tracks {
		var node nodes.Node
		if i < len(cmd.GraphNodes) {
			node = cmd.GraphNodes[i]
		}
		if node == nil {
			node = nodes.NewBuiltinGain()
		}
		id := e.graph.AddNode(node)
		e.trackNodeIDs = append(e.trackNodeIDs, id)
	}
	for i := range e.proj.Tracks {
		if len(e.proj.Tracks[i].PluginState) == 0 {
			continue
		}
		if node := e.trackNode(i); node != nil {
			if err := node.SetState(e.proj.Tracks[i].PluginState); err != nil {
				log.Printf("engine: restore state track %d: %v", i, err)
			}
		}
	}
}

func (e *Engine) applyStretchClip(cmd commands.Command) {
	c := e.arrangementClip(cmd.TrackIndex, cmd.ClipIndex)
	if c == nil || cmd.OriginalBPM <= 0 {
		return
	}
	ratio := e.proj.BPM / float64(cmd.OriginalBPM)
	id, err := e.Pool.GetOrCreateStretched(c.SourceID, ratio)
	if err != nil {
		log.Printf("engine: stretch clip %d:%d: %v", cmd.TrackIndex, cmd.ClipIndex, err)
		return
	}
	c.CachedDerivedID = id
	c.Stretch = true
	c.StretchRatio = ratio
}

const noteEpsilon = 0.001

func (e *Engine) applyToggleNote(cmd commands.Command) {
	c := e.clip(cmd.TrackIndex, cmd.ClipIndex)
	if c == nil {
		return
	}
	for i, n := range c.Notes {
		if n.Key == cmd.Note && absF(n.Start-cmd.Start) < noteEpsilon {
			c.Notes = append(c.Notes[:i], c.Notes[i+1:]...)
			return
		}
	}
	c.Notes = append(c.Notes, project.Note{
		Start: cmd.Start, Duration: cmd.Duration, Key: cmd.Note, Velocity: 100,
		Probability: cmd.Probability, VelocityDeviation: cmd.VelocityDeviation, Condition: cmd.Condition,
	})
}

func (e *Engine) applyRemoveNote(cmd commands.Command) {
	c := e.clip(cmd.TrackIndex, cmd.ClipIndex)
	if c == nil {
		return
	}
	for i, n := range c.Notes {
		if n.Key == cmd.Note && absF(n.Start-cmd.Start) < noteEpsilon {
			c.Notes = append(c.Notes[:i], c.Notes[i+1:]...)
			return
		}
	}
}

func (e *Engine) applyUpdateNote(cmd commands.Command) {
	c := e.clip(cmd.TrackIndex, cmd.ClipIndex)
	if c == nil {
		return
	}
	for i := range c.Notes {
		n := &c.Notes[i]
		if n.Key == cmd.OldNote && absF(n.Start-cmd.OldStart) < noteEpsilon {
			n.Start = cmd.NewStart
			n.Duration = cmd.Duration
			n.Key = cmd.NewNote
			n.Velocity = cmd.Velocity
			n.Probability = cmd.Probability
			n.VelocityDeviation = cmd.VelocityDeviation
			n.Condition = cmd.Condition
			return
		}
	}
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
