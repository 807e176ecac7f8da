// Package mixer implements the equal-power pan law, per-track peak
// metering, and master-bus finalization (soft-clip, TPDF dither,
// hard-clip). Grounded on original_source/omni_engine/src/mixer.rs.
package mixer

import (
	"math"
	"sync/atomic"
)

// EqualPowerPan returns (left, right) gains for pan p in [-1,1]:
// angle = (p+1)*pi/4; l = cos(angle); r = sin(angle).
func EqualPowerPan(pan float64) (left, right float64) {
	angle := (pan + 1) * math.Pi / 4
	return math.Cos(angle), math.Sin(angle)
}

// SoftClip applies x - x^3/3 for |x|<=1, else sign(x)*2/3.
func SoftClip(x float64) float64 {
	if x > 1 {
		return 2.0 / 3.0
	}
	if x < -1 {
		return -2.0 / 3.0
	}
	return x - x*x*x/3.0
}

// HardClip clamps x to [-1,1].
func HardClip(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// lcgMultiplier/lcgIncrement match the reference's dither RNG exactly.
const (
	lcgMultiplier = 1103515245
	lcgIncrement  = 12345
	ditherScale24 = 1.0 / (1 << 23)
)

func lcgNext(state uint32) uint32 {
	return state*lcgMultiplier + lcgIncrement
}

// DitherRNG is one independent TPDF dither stream (one per channel).
type DitherRNG struct {
	state uint32
}

// NewDitherRNG seeds a stream; seeds should differ per channel so the two
// streams are uncorrelated.
func NewDitherRNG(seed uint32) *DitherRNG {
	return &DitherRNG{state: seed}
}

// TPDFDither returns (u1-u2) scaled to the given LSB amplitude, uncorrelated
// per channel given independent streams. At the reference's amplitude
// (ditherScale24, i.e. 2^-23) this is the master finalize dither stage.

func TPDFDither(d *DitherRNG, lsbAmplitude float64) float64 {
	d.state = lcgNext(d.state)
	u1 := float64(d.state) / float64(^uint32(0))
	d.state = lcgNext(d.state)
	u2 := float64(d.state) / float64(^uint32(0))
	return (u1 - u2) * lsbAmplitude
}

// PeakMeters tracks per-track and master peak amplitudes as bit-cast
// float32 values in atomic.Uint32s, so the UI thread can read them
// lock-free.
type PeakMeters struct {
	trackL []atomic.Uint32
	trackR []atomic.Uint32
	masterL atomic.Uint32
	masterR atomic.Uint32
}

// NewPeakMeters allocates meters for trackCount tracks.
func NewPeakMeters(trackCount int) *PeakMeters {
	return &PeakMeters{
		trackL: make([]atomic.Uint32, trackCount),
		trackR: make([]atomic.Uint32, trackCount),
	}
}

func storeF32(a *atomic.Uint32, v float32) {
	a.Store(math.Float32bits(v))
}

func loadF32(a *atomic.Uint32) float32 {
	return math.Float32frombits(a.Load())
}

// StoreTrackPeak publishes track index i's peak (L,R) for the block.
func (p *PeakMeters) StoreTrackPeak(i int, l, r float32) {
	if i < 0 || i >= len(p.trackL) {
		return
	}
	storeF32(&p.trackL[i], l)
	storeF32(&p.trackR[i], r)
}

// TrackPeak reads back track index i's last published peak.
func (p *PeakMeters) TrackPeak(i int) (l, r float32) {
	if i < 0 || i >= len(p.trackL) {
		return 0, 0
	}
	return loadF32(&p.trackL[i]), loadF32(&p.trackR[i])
}

// StoreMasterPeak publishes the master bus peak for the block.
func (p *PeakMeters) StoreMasterPeak(l, r float32) {
	storeF32(&p.masterL, l)
	storeF32(&p.masterR, r)
}

// MasterPeak reads back the last published master peak.
func (p *PeakMeters) MasterPeak() (l, r float32) {
	return loadF32(&p.masterL), loadF32(&p.masterR)
}

func abs32(x float32) float32 {
	return math.Float32frombits(math.Float32bits(x) &^ (1 << 31))
}

// AudioBuffers holds the engine's reused per-block scratch buffers:
// per-track stereo buffers and the master mix, sized in frames (stereo
// interleaved, so len == frames*2).
type AudioBuffers struct {
	Track  [][]float32
	Master []float32
}

// NewAudioBuffers allocates scratch for trackCount tracks at the given
// block size (frames).
func NewAudioBuffers(trackCount, frames int) *AudioBuffers {
	b := &AudioBuffers{
		Track:  make([][]float32, trackCount),
		Master: make([]float32, frames*2),
	}
	for i := range b.Track {
		b.Track[i] = make([]float32, frames*2)
	}
	return b
}

// Prepare resizes-keep-capacity and clears all buffers for frames samples.
func (b *AudioBuffers) Prepare(frames int) {
	need := frames * 2
	if cap(b.Master) < need {
		b.Master = make([]float32, need)
	} else {
		b.Master = b.Master[:need]
	}
	for i := range b.Track {
		if cap(b.Track[i]) < need {
			b.Track[i] = make([]float32, need)
		} else {
			b.Track[i] = b.Track[i][:need]
		}
		for j := range b.Track[i] {
			b.Track[i][j] = 0
		}
	}
	for j := range b.Master {
		b.Master[j] = 0
	}
}

// TrackGains is a track's mix parameters for one block.
type TrackGains struct {
	Volume float64
	Trim   float64
	Pan    float64
}

// MixToMaster sums each track buffer into master with equal-power pan,
// volume and trim applied, publishing per-track peaks.
func (b *AudioBuffers) MixToMaster(gains []TrackGains, meters *PeakMeters) {
	frames := len(b.Master) / 2
	for t, buf := range b.Track {
		if t >= len(gains) {
			continue
		}
		l, r := EqualPowerPan(gains[t].Pan)
		trim := gains[t].Volume * gains[t].Trim
		var peakL, peakR float32
		for f := 0; f < frames; f++ {
			sampleL := buf[f*2] * float32(trim*l)
			sampleR := buf[f*2+1] * float32(trim*r)
			b.Master[f*2] += sampleL
			b.Master[f*2+1] += sampleR
			if a := abs32(sampleL); a > peakL {
				peakL = a
			}
			if a := abs32(sampleR); a > peakR {
				peakR = a
			}
		}
		if meters != nil {
			meters.StoreTrackPeak(t, peakL, peakR)
		}
	}
}

// MasterFinalize applies master gain, soft-clip, TPDF dither, hard-clip, in
// place, then publishes the master peak.
func (b *AudioBuffers) MasterFinalize(masterGain float64, ditherL, ditherR *DitherRNG, meters *PeakMeters) {
	frames := len(b.Master) / 2
	var peakL, peakR float32
	for f := 0; f < frames; f++ {
		l := SoftClip(float64(b.Master[f*2]) * masterGain)
		r := SoftClip(float64(b.Master[f*2+1]) * masterGain)
		l += TPDFDither(ditherL, ditherScale24)
		r += TPDFDither(ditherR, ditherScale24)
		l = HardClip(l)
		r = HardClip(r)
		b.Master[f*2] = float32(l)
		b.Master[f*2+1] = float32(r)
		if a := abs32(float32(l)); a > peakL {
			peakL = a
		}
		if a := abs32(float32(r)); a > peakR {
			peakR = a
		}
	}
	if meters != nil {
		meters.StoreMasterPeak(peakL, peakR)
	}
}
