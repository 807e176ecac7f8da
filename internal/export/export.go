// Package export renders a project's arrangement timeline to a WAV file
// offline, without an audio device. Grounded on
// original_source/omni_engine/src/engine.rs's export/bounce path and
// internal/assets.Pool's decode-side use of go-audio/wav; export reuses the
// same library for encoding so the pack's one WAV dependency covers both
// directions.
package export

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/omniproject/omniengine/internal/engine"
)

const (
	bitDepth     = 16
	channelCount = 2
	pcmFormat    = 1
)

// Options configures an offline bounce.
type Options struct {
	SampleRate int
	// TotalFrames bounds the render; omnictl's bounce command computes it
	// as its --seconds flag times the sample rate.
	TotalFrames int
	// BlockSize is the chunk size ProcessBlock is called with; it only
	// affects render granularity, not the output's content.
	BlockSize int
}

// Render drives eng.ProcessBlock in BlockSize chunks until TotalFrames have
// been produced and writes the interleaved stereo result to path as a
// 16-bit PCM WAV file.
func Render(eng *engine.Engine, path string, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()
	return RenderTo(eng, f, opts)
}

// RenderTo is Render's io.WriteSeeker-accepting form, used directly by
// tests against an in-memory buffer.
func RenderTo(eng *engine.Engine, w io.WriteSeeker, opts Options) error {
	if opts.BlockSize <= 0 {
		opts.BlockSize = 2048
	}
	enc := wav.NewEncoder(w, opts.SampleRate, bitDepth, channelCount, pcmFormat)

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channelCount, SampleRate: opts.SampleRate},
		SourceBitDepth: bitDepth,
	}

	remaining := opts.TotalFrames
	for remaining > 0 {
		frames := opts.BlockSize
		if frames > remaining {
			frames = remaining
		}
		block := eng.ProcessBlock(frames)

		ints := make([]int, frames*channelCount)
		for i, s := range block {
			if i >= len(ints) {
				break
			}
			ints[i] = int(clampPCM16(s))
		}
		buf.Data = ints
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("export: write samples: %w", err)
		}
		remaining -= frames
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("export: finalize: %w", err)
	}
	return nil
}

func clampPCM16(v float32) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}
