// Package delay implements the per-track plugin delay compensation line.
// Grounded on original_source/omni_engine/src/delay.rs.
package delay

// secondsOfHistory sizes the ring for ~2 seconds at the device sample rate.
const secondsOfHistory = 2.0

// Line is a circular f32 buffer used to align a track's audio to the
// project's maximum node latency.
type Line struct {
	buffer   []float32
	writePos int
}

// NewLine returns a Line sized for ~2 seconds of history at sampleRate.
func NewLine(sampleRate float64) *Line {
	capacity := int(sampleRate * secondsOfHistory)
	if capacity < 1 {
		capacity = 1
	}
	return &Line{buffer: make([]float32, capacity)}
}

// Resize grows or shrinks the ring, clearing its contents and write position.
func (l *Line) Resize(sampleRate float64) {
	capacity := int(sampleRate * secondsOfHistory)
	if capacity < 1 {
		capacity = 1
	}
	l.buffer = make([]float32, capacity)
	l.writePos = 0
}

// ProcessInPlace writes each input sample into the ring at the write
// pointer, then emits the sample delaySamples positions before the write
// pointer (clamped to capacity-1), in place. Delay 0 still routes through
// the ring so history is preserved when delay increases later.
func (l *Line) ProcessInPlace(buf []float32, delaySamples int) {
	n := len(l.buffer)
	if n == 0 {
		return
	}
	if delaySamples < 0 {
		delaySamples = 0
	}
	if delaySamples > n-1 {
		delaySamples = n - 1
	}
	for i, sample := range buf {
		l.buffer[l.writePos] = sample
		readPos := (l.writePos + n - delaySamples) % n
		buf[i] = l.buffer[readPos]
		l.writePos = (l.writePos + 1) % n
	}
}
