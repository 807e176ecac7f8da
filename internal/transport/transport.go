// Package transport publishes the process-wide playback clock snapshot.
// Grounded on original_source/omni_engine/src/transport.rs, reworked from a
// lazy_static global RwLock into an atomic.Pointer snapshot owned by the
// engine rather than a package-level singleton.
package transport

import "sync/atomic"

// Snapshot is the transport state readable by any node during its block.
type Snapshot struct {
	IsPlaying     bool
	TempoBPM      float64
	SongPosBeats  float64
	BarStartBeats float64
	BarNumber     uint64
	TimeSigNum    uint8
	TimeSigDenom  uint8
}

// Default returns the transport's initial state: stopped, 120 BPM, 4/4.
func Default() Snapshot {
	return Snapshot{TempoBPM: 120, TimeSigNum: 4, TimeSigDenom: 4}
}

// Publisher is a single-writer-per-block atomic handle to the current
// Snapshot. The audio thread is the sole writer; any other goroutine may
// read, tolerating staleness of at most one block.
type Publisher struct {
	current atomic.Pointer[Snapshot]
}

// NewPublisher returns a Publisher seeded with Default().
func NewPublisher() *Publisher {
	p := &Publisher{}
	s := Default()
	p.current.Store(&s)
	return p
}

// Publish stores a new snapshot. Called once per block by the engine.
func (p *Publisher) Publish(s Snapshot) {
	p.current.Store(&s)
}

// Load returns the most recently published snapshot.
func (p *Publisher) Load() Snapshot {
	return *p.current.Load()
}
