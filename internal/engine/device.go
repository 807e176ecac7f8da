// Output device wiring: the oto/v2-backed io.Reader that pulls blocks from
// Engine.ProcessBlock and packs them into the little-endian int16 PCM bytes
// oto's player expects. Grounded on
// other_examples/7a4f0047_aaliyan1230-midi-mixer__audio-engine.go.go's
// Engine/audioStream split (oto.NewContext, ctx.NewPlayer(io.Reader),
// player.Play(), float-to-int16 packing) -- the one oto call sequence
// concretely present in the retrieved corpus.
package engine

import (
	"fmt"

	"github.com/hajimehoshi/oto/v2"
)

const (
	outputChannelCount = 2
	outputBitDepth     = 2 // bytes per sample, int16
)

// Output owns the oto context/player driving an Engine's ProcessBlock loop.
type Output struct {
	engine *Engine
	ctx    *oto.Context
	player oto.Player
}

// stream adapts Engine.ProcessBlock to io.Reader: each Read call computes
// exactly enough blocks to fill buf, so block size tracks whatever oto's
// internal player requests rather than a fixed engine-side size.
type stream struct {
	engine *Engine
}

// NewOutput opens an oto context at sampleRate and starts pulling audio from
// engine. Stereo 16-bit PCM only, matching oto v2.4.3's constructor surface.
func NewOutput(engine *Engine) (*Output, error) {
	ctx, ready, err := oto.NewContext(engine.sampleRate, outputChannelCount, outputBitDepth)
	if err != nil {
		return nil, fmt.Errorf("engine: open audio output: %w", err)
	}
	<-ready

	o := &Output{engine: engine, ctx: ctx}
	o.player = ctx.NewPlayer(&stream{engine: engine})
	o.player.Play()
	return o, nil
}

// Close stops playback. The underlying oto.Context has no Close in v2; the
// player is the only thing that needs releasing.
func (o *Output) Close() error {
	if o.player == nil {
		return nil
	}
	return o.player.Close()
}

func (s *stream) Read(buf []byte) (int, error) {
	bytesPerFrame := outputChannelCount * outputBitDepth
	frames := len(buf) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}

	block := s.engine.ProcessBlock(frames)
	n := 0
	for i := 0; i < frames; i++ {
		var l, r float32
		if i*2+1 < len(block) {
			l, r = block[i*2], block[i*2+1]
		}
		li := clampSample16(l)
		ri := clampSample16(r)
		off := i * bytesPerFrame
		buf[off] = byte(li)
		buf[off+1] = byte(li >> 8)
		buf[off+2] = byte(ri)
		buf[off+3] = byte(ri >> 8)
		n += bytesPerFrame
	}
	return n, nil
}

func clampSample16(v float32) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}
