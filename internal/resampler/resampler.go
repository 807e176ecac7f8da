// Package resampler implements a pitch-preserving sinc-based sample rate
// converter with the fixed quality parameters the reference module hardcodes
// in original_source/omni_engine/src/resampler.rs (itself a thin wrapper
// over rubato::SincFixedIn). Go has no equivalent windowed-sinc resampling
// library in the retrieved corpus, so this is implemented directly against
// spec 4.3's exact parameters; see DESIGN.md for the stdlib-only
// justification.
package resampler

import (
	"errors"
	"math"
)

const (
	sincTaps          = 256
	cutoffRatio       = 0.95
	oversamplingFactor = 128
	chunkSize         = 1024
)

// Resample produces an f32 stream approximately len(input)/ratio long by
// resampling input by 1/ratio (ratio>1 shortens/speeds up, ratio<1
// lengthens/slows down, matching the pool's "stretch ratio" convention
// where get_or_create_stretched divides by ratio). Fails if ratio<=0.
func Resample(input []float32, ratio float64) ([]float32, error) {
	if ratio <= 0 {
		return nil, errors.New("resampler: ratio must be positive")
	}
	targetRatio := 1.0 / ratio
	kernel := buildKernel()

	out := make([]float32, 0, int(float64(len(input))*targetRatio)+sincTaps)
	for start := 0; start < len(input) || start == 0 && len(input) == 0; start += chunkSize {
		end := start + chunkSize
		if end > len(input) {
			end = len(input)
		}
		if start >= len(input) {
			break
		}
		chunk := make([]float32, chunkSize)
		copy(chunk, input[start:end])
		out = append(out, resampleChunk(chunk, targetRatio, kernel)...)
	}
	return out, nil
}

// blackmanHarris2 is the order-2 Blackman-Harris window, matching the
// reference's WindowFunction::BlackmanHarris2 quality parameter.
func blackmanHarris2(n, taps int) float64 {
	a0, a1, a2 := 0.42, 0.5, 0.08
	x := 2 * math.Pi * float64(n) / float64(taps-1)
	return a0 - a1*math.Cos(x) + a2*math.Cos(2*x)
}

type sincKernel struct {
	taps        int
	oversample  int
	cutoff      float64
	table       []float64 // precomputed sinc*window samples at oversampled resolution
}

func buildKernel() sincKernel {
	k := sincKernel{taps: sincTaps, oversample: oversamplingFactor, cutoff: cutoffRatio}
	size := k.taps * k.oversample
	k.table = make([]float64, size)
	half := float64(k.taps) / 2
	for i := 0; i < size; i++ {
		t := float64(i)/float64(k.oversample) - half
		var s float64
		if math.Abs(t) < 1e-9 {
			s = 1
		} else {
			x := math.Pi * t * k.cutoff
			s = math.Sin(x) / x
		}
		win := blackmanHarris2(int(float64(i)/float64(k.oversample)), k.taps)
		k.table[i] = s * win * k.cutoff
	}
	return k
}

// at evaluates the windowed-sinc kernel at fractional tap offset tau
// (distance in input samples from the kernel center), with linear
// sub-sample interpolation between oversampled table entries, matching the
// reference's InterpolationType::Linear quality parameter.
func (k sincKernel) at(tau float64) float64 {
	half := float64(k.taps) / 2
	pos := (tau + half) * float64(k.oversample)
	if pos < 0 || pos >= float64(len(k.table)-1) {
		return 0
	}
	i0 := int(pos)
	frac := pos - float64(i0)
	return k.table[i0]*(1-frac) + k.table[i0+1]*frac
}

func resampleChunk(chunk []float32, targetRatio float64, k sincKernel) []float32 {
	outLen := int(float64(len(chunk)) * targetRatio)
	out := make([]float32, outLen)
	half := k.taps / 2
	for i := 0; i < outLen; i++ {
		srcPos := float64(i) / targetRatio
		center := int(math.Floor(srcPos))
		var acc float64
		for t := -half; t < half; t++ {
			idx := center + t
			if idx < 0 || idx >= len(chunk) {
				continue
			}
			tau := srcPos - float64(idx)
			acc += float64(chunk[idx]) * k.at(tau)
		}
		out[i] = float32(acc)
	}
	return out
}
