// Package recorder captures per-track audio into ring buffers during
// playback and finalizes them into new pool assets plus arrangement clips
// on stop. Grounded on original_source/omni_engine/src/recorder.rs; the
// finalize step resolves that file's hardcoded original_bpm=120.0 toward
// the project's current bpm (DESIGN.md resolution #2), matching
// engine.rs's inline StopRecording handler instead.
package recorder

import (
	"fmt"

	"github.com/omniproject/omniengine/internal/assets"
	"github.com/omniproject/omniengine/internal/project"
)

// PollInterval is a 5 ms cadence bound for a background capture drain. No
// such worker is started: the engine calls PushFrame inline and Stop on the
// StopRecording command, and nothing in the module reads this constant.
const PollInterval = 5 // milliseconds

// TrackBuffer is one track's growable mono capture buffer.
type TrackBuffer struct {
	samples []float32
}

// Push appends mono samples to the buffer.
func (b *TrackBuffer) Push(samples []float32) {
	b.samples = append(b.samples, samples...)
}

// Len reports the number of captured samples.
func (b *TrackBuffer) Len() int { return len(b.samples) }

// Recorder owns per-track capture buffers and the record-start sample
// position.
type Recorder struct {
	Recording      bool
	RecordStartPos uint64
	buffers        []*TrackBuffer
}

// NewRecorder allocates a recorder for trackCount tracks.
func NewRecorder(trackCount int) *Recorder {
	r := &Recorder{buffers: make([]*TrackBuffer, trackCount)}
	for i := range r.buffers {
		r.buffers[i] = &TrackBuffer{}
	}
	return r
}

// EnsureTrackCount grows the buffer slice if tracks were added.
func (r *Recorder) EnsureTrackCount(n int) {
	for len(r.buffers) < n {
		r.buffers = append(r.buffers, &TrackBuffer{})
	}
}

// Start resets capture state and clears all buffers, and removes prior
// auto-recorded arrangement clips (identified by name prefix) from proj.
func (r *Recorder) Start(proj *project.Project, currentSamplePos uint64) {
	r.Recording = true
	r.RecordStartPos = currentSamplePos
	for _, b := range r.buffers {
		b.samples = b.samples[:0]
	}
	for ti := range proj.Tracks {
		clips := proj.Tracks[ti].Arrangement.Clips
		kept := clips[:0]
		for _, c := range clips {
			if isAutoRecordedName(c.Name) {
				continue
			}
			kept = append(kept, c)
		}
		proj.Tracks[ti].Arrangement.Clips = kept
	}
}

func isAutoRecordedName(name string) bool {
	return len(name) >= 9 && name[:9] == "Recording"
}

// PushFrame appends a mono downmix sample set to track t's buffer, called
// once per block while Recording && session mode && playing.
func (r *Recorder) PushFrame(t int, monoSamples []float32) {
	if t < 0 || t >= len(r.buffers) {
		return
	}
	r.buffers[t].Push(monoSamples)
}

// StopResult is one (track_index, clip) pair created by Stop.
type StopResult struct {
	TrackIndex int
	Clip       project.ArrangementClip
}

// Stop finalizes every non-empty capture buffer into a newly allocated pool
// asset and a corresponding arrangement clip starting at the record-start
// position, and clears recording state. Each asset is added with its own
// pool.AddFromCapture call, so every addition publishes a separate COW pool
// revision; the assets are not published together as one revision.
func (r *Recorder) Stop(pool *assets.Pool, proj *project.Project, sourceSampleRate int) []StopResult {
	r.Recording = false
	var results []StopResult
	for t, b := range r.buffers {
		if b.Len() == 0 {
			continue
		}
		id := pool.AddFromCapture(b.samples, sourceSampleRate)
		clip := project.ArrangementClip{
			SourceID:    id,
			StartTime:   project.Timestamp{SampleIndex: r.RecordStartPos},
			Length:      project.Timestamp{SampleIndex: uint64(b.Len())},
			Name:        fmt.Sprintf("Recording %d", id),
			OriginalBPM: proj.BPM,
		}
		if t < len(proj.Tracks) {
			proj.Tracks[t].Arrangement.Clips = append(proj.Tracks[t].Arrangement.Clips, clip)
		}
		results = append(results, StopResult{TrackIndex: t, Clip: clip})
		b.samples = b.samples[:0]
	}
	return results
}
