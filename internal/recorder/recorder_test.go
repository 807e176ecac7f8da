package recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniproject/omniengine/internal/assets"
	"github.com/omniproject/omniengine/internal/project"
)

func newProjectWithTracks(n int) *project.Project {
	p := project.NewProject()
	for i := 0; i < n; i++ {
		p.Tracks = append(p.Tracks, project.NewTrack("t", "Track"))
	}
	return &p
}

func TestStartClearsBuffersAndRecordsStartPosition(t *testing.T) {
	r := NewRecorder(2)
	r.PushFrame(0, []float32{1, 2, 3})
	proj := newProjectWithTracks(2)

	r.Start(proj, 1000)
	assert.True(t, r.Recording)
	assert.Equal(t, uint64(1000), r.RecordStartPos)
	assert.Equal(t, 0, r.buffers[0].Len())
}

func TestStartRemovesPriorAutoRecordedClips(t *testing.T) {
	r := NewRecorder(1)
	proj := newProjectWithTracks(1)
	proj.Tracks[0].Arrangement.Clips = []project.ArrangementClip{
		{Name: "Recording 3"},
		{Name: "My Sample"},
	}
	r.Start(proj, 0)
	require.Len(t, proj.Tracks[0].Arrangement.Clips, 1)
	assert.Equal(t, "My Sample", proj.Tracks[0].Arrangement.Clips[0].Name)
}

func TestPushFrameIgnoresOutOfRangeTrack(t *testing.T) {
	r := NewRecorder(1)
	assert.NotPanics(t, func() { r.PushFrame(5, []float32{1}) })
}

func TestStopCreatesAssetAndClipPerNonEmptyBuffer(t *testing.T) {
	r := NewRecorder(2)
	proj := newProjectWithTracks(2)
	r.Start(proj, 500)
	r.PushFrame(0, []float32{1, 2, 3, 4})
	// track 1 stays empty

	pool := assets.NewPool()
	results := r.Stop(pool, proj, 48000)

	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].TrackIndex)
	assert.Equal(t, uint64(500), results[0].Clip.StartTime.SampleIndex)
	assert.Equal(t, uint64(4), results[0].Clip.Length.SampleIndex)
	assert.False(t, r.Recording)

	asset, ok := pool.Get(results[0].Clip.SourceID)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3, 4}, asset.Data)

	require.Len(t, proj.Tracks[0].Arrangement.Clips, 1)
}

func TestStopClearsBuffersForNextRecording(t *testing.T) {
	r := NewRecorder(1)
	proj := newProjectWithTracks(1)
	r.Start(proj, 0)
	r.PushFrame(0, []float32{1, 2})
	pool := assets.NewPool()
	r.Stop(pool, proj, 48000)
	assert.Equal(t, 0, r.buffers[0].Len())
}

func TestEnsureTrackCountGrowsBuffers(t *testing.T) {
	r := NewRecorder(1)
	r.EnsureTrackCount(3)
	assert.Len(t, r.buffers, 3)
}
