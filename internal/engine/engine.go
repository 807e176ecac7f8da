// Package engine ties together the project tree, audio graph, asset pool,
// transport publisher, mixer, sequencer, recorder, and PDC delay lines into
// the single per-block audio callback. Grounded on
// original_source/omni_engine/src/engine.rs's AudioEngine::new closure;
// output device I/O is split into its own file (device.go) since the
// reference's cpal stream has no direct Go analogue in the pack, whereas the
// per-block DSP logic here is a straight structural port.
package engine

import (
	"log"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/omniproject/omniengine/internal/assets"
	"github.com/omniproject/omniengine/internal/commands"
	"github.com/omniproject/omniengine/internal/delay"
	"github.com/omniproject/omniengine/internal/graph"
	"github.com/omniproject/omniengine/internal/mixer"
	"github.com/omniproject/omniengine/internal/nodes"
	"github.com/omniproject/omniengine/internal/project"
	"github.com/omniproject/omniengine/internal/recorder"
	"github.com/omniproject/omniengine/internal/sequencer"
	"github.com/omniproject/omniengine/internal/transport"
)

// commandQueueCapacity bounds the UI->audio command channel (spec 5: a
// buffered Go channel acting as MPSC). maxDrainPerBlock bounds how many
// commands the audio thread pulls per block so a command burst cannot stall
// a single callback indefinitely.
const (
	commandQueueCapacity = 4096
	maxDrainPerBlock     = 256
	dropQueueCapacity    = 64
	crossfadeStep        = 0.1
	beatsPerBar          = 4.0
)

// Engine is the audio-thread-owned state machine: everything inside it is
// touched exclusively from ProcessBlock's goroutine, except the fields
// explicitly documented as lock-free cross-thread handles (Pool, Transport,
// Meters, SamplePosition, CurrentStep, IsPlaying).
type Engine struct {
	sampleRate int

	commands chan commands.Command
	dropped  chan nodes.Node

	proj         project.Project
	graph        *graph.Graph[nodes.Node]
	trackNodeIDs []uint32

	Pool      *assets.Pool
	Transport *transport.Publisher
	Meters    *mixer.PeakMeters
	rec       *recorder.Recorder

	buffers *mixer.AudioBuffers
	delays  []*delay.Line

	seqStates []*sequencer.TrackState
	rng       *rand.Rand

	ditherL *mixer.DitherRNG
	ditherR *mixer.DitherRNG

	blockEvents []nodes.BlockEvents

	crossfade   float64
	masterGain  atomic.Uint32 // float32 bits
	isPlaying   atomic.Bool
	samplePos   atomic.Uint64
	currentStep atomic.Uint32
}

// New returns a headless Engine: every DSP component wired, but with no
// audio output device attached. ProcessBlock can be driven directly by
// tests or by an output device adapter (device.go).
func New(sampleRate int) *Engine {
	e := &Engine{
		sampleRate:   sampleRate,
		commands:     make(chan commands.Command, commandQueueCapacity),
		dropped:      make(chan nodes.Node, dropQueueCapacity),
		proj:         project.NewProject(),
		graph:        graph.New[nodes.Node](),
		Pool:         assets.NewPool(),
		Transport:    transport.NewPublisher(),
		Meters:       mixer.NewPeakMeters(0),
		rec:          recorder.NewRecorder(0),
		buffers:      mixer.NewAudioBuffers(0, 2048),
		rng:          rand.New(rand.NewSource(1)),
		ditherL:      mixer.NewDitherRNG(1),
		ditherR:      mixer.NewDitherRNG(2),
	}
	e.masterGain.Store(math.Float32bits(1.0))
	go e.dropWorker()
	return e
}

// dropWorker runs off the audio thread: it owns destructing replaced/removed
// nodes (e.g. a PluginProxy's Close, which may block on child exit).
func (e *Engine) dropWorker() {
	for n := range e.dropped {
		if closer, ok := n.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				log.Printf("engine: drop worker close error: %v", err)
			}
		}
	}
}

// Submit enqueues a command; if the queue is full the command is dropped
// and logged rather than blocking the caller (the audio thread is the only
// permitted blocking point, and it never blocks on this channel).
func (e *Engine) Submit(cmd commands.Command) {
	select {
	case e.commands <- cmd:
	default:
		log.Printf("engine: command queue full, dropping command kind %d", cmd.Kind)
	}
}

// Play, Pause, Stop, and SetArrangementMode are thin wrappers around Submit
// for the handful of commands a driving caller (CLI, tests) issues directly
// rather than building a commands.Command by hand.
func (e *Engine) Play()  { e.Submit(commands.Command{Kind: commands.Play}) }
func (e *Engine) Pause() { e.Submit(commands.Command{Kind: commands.Pause}) }
func (e *Engine) Stop()  { e.Submit(commands.Command{Kind: commands.Stop}) }

func (e *Engine) SetArrangementMode(enabled bool) {
	e.Submit(commands.Command{Kind: commands.SetArrangementMode, Muted: enabled})
}

// IsPlaying reports transport play state, lock-free.
func (e *Engine) IsPlaying() bool { return e.isPlaying.Load() }

// SamplePosition reports the current sample position, lock-free.
func (e *Engine) SamplePosition() uint64 { return e.samplePos.Load() }

// CurrentStep reports the current 16th-note step counter, lock-free.
func (e *Engine) CurrentStep() uint32 { return e.currentStep.Load() }

func (e *Engine) ensureTrackCapacity(n int) {
	for len(e.trackNodeIDs) < n {
		e.trackNodeIDs = append(e.trackNodeIDs, 0)
	}
	for len(e.seqStates) < n {
		e.seqStates = append(e.seqStates, &sequencer.TrackState{})
	}
	for len(e.delays) < n {
		e.delays = append(e.delays, delay.NewLine(float64(e.sampleRate)))
	}
	e.rec.EnsureTrackCount(n)
	for len(e.buffers.Track) < n {
		e.buffers.Track = append(e.buffers.Track, nil)
	}
}

// ProcessBlock runs one audio callback period and returns the master mix
// (stereo interleaved float32, len == frames*2). Grounded on engine.rs's
// closure body, steps 1-12 of spec 4.11.
func (e *Engine) ProcessBlock(frames int) []float32 {
	e.drainCommands()

	trackCount := len(e.proj.Tracks)
	e.ensureTrackCapacity(trackCount)
	e.buffers.Prepare(frames)
	if len(e.blockEvents) < trackCount {
		grown := make([]nodes.BlockEvents, trackCount)
		copy(grown, e.blockEvents)
		e.blockEvents = grown
	}
	for t := 0; t < trackCount; t++ {
		e.blockEvents[t].Notes = e.blockEvents[t].Notes[:0]
		e.blockEvents[t].Params = e.blockEvents[t].Params[:0]
		e.blockEvents[t].Expressions = e.blockEvents[t].Expressions[:0]
	}

	playing := e.isPlaying.Load()
	sampleRateF := float64(e.sampleRate)

	for t := 0; t < trackCount; t++ {
		if t >= len(e.seqStates) {
			continue
		}
		offs := e.seqStates[t].AgeAndEmitNoteOffs(frames)
		e.blockEvents[t].Notes = append(e.blockEvents[t].Notes, offs...)
	}

	currentSample := e.samplePos.Load()
	bpm := e.proj.BPM
	if bpm <= 0 {
		bpm = 120
	}
	samplesPerBeat := sampleRateF * 60.0 / bpm

	if playing {
		target := 0.0
		if e.proj.ArrangementMode {
			target = 1.0
		}
		if diff := e.crossfade - target; diff > 0.001 || diff < -0.001 {
			if e.crossfade < target {
				e.crossfade += crossfadeStep
				if e.crossfade > target {
					e.crossfade = target
				}
			} else {
				e.crossfade -= crossfadeStep
				if e.crossfade < target {
					e.crossfade = target
				}
			}
		} else {
			e.crossfade = target
		}

		if e.crossfade > 0.001 {
			e.renderArrangement(currentSample, frames)
		}
		if e.crossfade < 0.999 {
			startBeat := float64(currentSample) / samplesPerBeat
			endBeat := float64(currentSample+uint64(frames)) / samplesPerBeat
			e.currentStep.Store(uint32(startBeat*4.0) % 16)
			_ = endBeat
			e.runSession(startBeat, frames, samplesPerBeat)
		}
	}

	songPosBeats := float64(currentSample) / samplesPerBeat
	barNumber := uint64(songPosBeats / beatsPerBar)
	e.Transport.Publish(transport.Snapshot{
		IsPlaying:     playing,
		TempoBPM:      bpm,
		SongPosBeats:  songPosBeats,
		BarStartBeats: float64(barNumber) * beatsPerBar,
		BarNumber:     barNumber,
		TimeSigNum:    4,
		TimeSigDenom:  4,
	})

	for t := 0; t < trackCount; t++ {
		nodeID := e.trackNodeIDs[t]
		node, ok := e.graph.NodeAt(nodeID)
		if !ok {
			continue
		}
		if err := node.Process(e.buffers.Track[t], sampleRateF, e.blockEvents[t]); err != nil {
			log.Printf("engine: track %d process error: %v", t, err)
		}
	}

	maxLatency := uint32(0)
	latencies := make([]uint32, trackCount)
	for t := 0; t < trackCount; t++ {
		nodeID := e.trackNodeIDs[t]
		if node, ok := e.graph.NodeAt(nodeID); ok {
			l := node.GetLatency()
			latencies[t] = l
			if l > maxLatency {
				maxLatency = l
			}
		}
	}
	for t := 0; t < trackCount; t++ {
		needed := int(maxLatency - latencies[t])
		e.delays[t].ProcessInPlace(e.buffers.Track[t], needed)
	}

	gains := make([]mixer.TrackGains, trackCount)
	for t, tr := range e.proj.Tracks {
		if tr.Mute {
			gains[t] = mixer.TrackGains{}
			continue
		}
		gains[t] = mixer.TrackGains{Volume: float64(tr.Volume), Trim: 1.0, Pan: float64(tr.Pan)}
	}
	e.buffers.MixToMaster(gains, e.Meters)

	if e.rec.Recording && !e.proj.ArrangementMode && playing {
		for t := 0; t < trackCount; t++ {
			mono := make([]float32, frames)
			buf := e.buffers.Track[t]
			for i := 0; i < frames; i++ {
				mono[i] = (buf[i*2] + buf[i*2+1]) * 0.5
			}
			e.rec.PushFrame(t, mono)
		}
	}

	masterGain := float64(math.Float32frombits(e.masterGain.Load()))
	e.buffers.MasterFinalize(masterGain, e.ditherL, e.ditherR, e.Meters)

	if playing {
		e.samplePos.Add(uint64(frames))
	}

	return e.buffers.Master
}

// renderArrangement mixes overlapping arrangement clips directly into the
// master bus, bypassing per-track node processing (raw recorded/imported
// audio, spec 4.11 "Arrangement playback").
func (e *Engine) renderArrangement(currentSample uint64, frames int) {
	bufferEnd := currentSample + uint64(frames)
	for t, tr := range e.proj.Tracks {
		if t >= len(e.buffers.Track) || tr.Mute {
			continue
		}
		for _, clip := range tr.Arrangement.Clips {
			clipStart := clip.StartTime.SampleIndex
			clipEnd := clipStart + clip.Length.SampleIndex
			if clipEnd <= currentSample || clipStart >= bufferEnd {
				continue
			}
			renderStart := clipStart
			if currentSample > renderStart {
				renderStart = currentSample
			}
			renderEnd := clipEnd
			if bufferEnd < renderEnd {
				renderEnd = bufferEnd
			}
			if renderEnd <= renderStart {
				continue
			}
			bufOffset := int(renderStart - currentSample)
			length := int(renderEnd - renderStart)
			sourceOffset := int(renderStart-clipStart) + int(clip.StartOffset.SampleIndex)

			assetID := clip.SourceID
			if clip.Stretch && clip.CachedDerivedID != 0 {
				assetID = clip.CachedDerivedID
			}
			asset, ok := e.Pool.Get(assetID)
			if !ok {
				continue
			}
			channels := asset.Channels
			if channels < 1 {
				channels = 1
			}
			l, r := mixer.EqualPowerPan(float64(tr.Pan))
			lGain := float64(tr.Volume) * e.crossfade * l
			rGain := float64(tr.Volume) * e.crossfade * r

			for i := 0; i < length; i++ {
				srcIdx := (sourceOffset + i) * channels
				if srcIdx+channels > len(asset.Data) {
					break
				}
				var sample float32
				if channels >= 2 {
					sample = (asset.Data[srcIdx] + asset.Data[srcIdx+1]) * 0.5
				} else {
					sample = asset.Data[srcIdx]
				}
				dst := (bufOffset + i) * 2
				if dst+1 >= len(e.buffers.Master) {
					break
				}
				e.buffers.Master[dst] += sample * float32(lGain)
				e.buffers.Master[dst+1] += sample * float32(rGain)
			}
		}
	}
}

// runSession generates sequencer/piano-roll events for every track's active
// clip over [startBeat, startBeat+frames/samplesPerBeat).
func (e *Engine) runSession(startBeat float64, frames int, samplesPerBeat float64) {
	for t := range e.proj.Tracks {
		tr := &e.proj.Tracks[t]
		if tr.Mute || tr.ActiveClipIndex < 0 || tr.ActiveClipIndex >= len(tr.Clips) {
			continue
		}
		clip := &tr.Clips[tr.ActiveClipIndex]
		ts := e.seqStates[t]
		clipID := uint32(t)*1000 + uint32(tr.ActiveClipIndex)

		var res sequencer.Result
		if clip.UseSequencer {
			res = sequencer.Evaluate(&clip.StepSequencer, clipID, startBeat, frames, samplesPerBeat, e.rng, ts)
		} else {
			res = sequencer.EvaluatePianoRoll(clip, startBeat, frames, samplesPerBeat, e.rng, ts)
		}
		e.blockEvents[t].Notes = append(e.blockEvents[t].Notes, res.Notes...)
		e.blockEvents[t].Params = append(e.blockEvents[t].Params, res.Params...)
		e.blockEvents[t].Expressions = append(e.blockEvents[t].Expressions, res.Expressions...)
	}
}
