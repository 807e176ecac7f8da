package export

import (
	"os"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniproject/omniengine/internal/engine"
)

func TestRenderWritesPlayableWavFile(t *testing.T) {
	eng := engine.New(48000)
	eng.Play()

	f, err := os.CreateTemp(t.TempDir(), "bounce-*.wav")
	require.NoError(t, err)
	path := f.Name()
	require.NoError(t, f.Close())

	err = Render(eng, path, Options{SampleRate: 48000, TotalFrames: 4800, BlockSize: 1024})
	require.NoError(t, err)

	out, err := os.Open(path)
	require.NoError(t, err)
	defer out.Close()

	dec := wav.NewDecoder(out)
	require.True(t, dec.IsValidFile())
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, 2, int(dec.NumChans))
	assert.Equal(t, 48000, int(dec.SampleRate))
	assert.Equal(t, 4800*2, len(buf.Data))
}

func TestRenderZeroFramesStillProducesValidEmptyWav(t *testing.T) {
	eng := engine.New(48000)
	f, err := os.CreateTemp(t.TempDir(), "empty-*.wav")
	require.NoError(t, err)
	path := f.Name()
	require.NoError(t, f.Close())

	require.NoError(t, Render(eng, path, Options{SampleRate: 48000, TotalFrames: 0}))

	out, err := os.Open(path)
	require.NoError(t, err)
	defer out.Close()
	dec := wav.NewDecoder(out)
	assert.True(t, dec.IsValidFile())
}
