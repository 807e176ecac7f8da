// Package assets implements the copy-on-write AudioAsset pool: immutable
// samples keyed by id, a path cache, and a (source, quantized ratio) ->
// derived-id stretch cache. Grounded on
// original_source/omni_engine/src/assets.rs, WAV decode via go-audio/wav
// (the ecosystem equivalent of the reference's hound::WavReader).
package assets

import (
	"fmt"
	"math"
	"os"
	"sync/atomic"

	"github.com/go-audio/wav"

	"github.com/omniproject/omniengine/internal/enginerr"
	"github.com/omniproject/omniengine/internal/resampler"
)

// Asset is immutable after creation.
type Asset struct {
	ID             uint32
	Path           string
	Data           []float32 // interleaved
	Channels       int
	SampleRate     int
	DurationSecs   float64
	OriginalBPM    *float64
}

type stretchKey struct {
	sourceID    uint32
	ratioMilli  int64
}

// snapshot is the pool's immutable point-in-time state; Pool holds an
// atomic pointer to one of these and writers clone-mutate-swap.
type snapshot struct {
	assets       map[uint32]*Asset
	pathCache    map[string]uint32
	stretchCache map[stretchKey]uint32
	nextID       uint32
}

func emptySnapshot() *snapshot {
	return &snapshot{
		assets:       make(map[uint32]*Asset),
		pathCache:    make(map[string]uint32),
		stretchCache: make(map[stretchKey]uint32),
		nextID:       1, // id 0 is reserved/null
	}
}

func (s *snapshot) clone() *snapshot {
	c := &snapshot{
		assets:       make(map[uint32]*Asset, len(s.assets)),
		pathCache:    make(map[string]uint32, len(s.pathCache)),
		stretchCache: make(map[stretchKey]uint32, len(s.stretchCache)),
		nextID:       s.nextID,
	}
	for k, v := range s.assets {
		c.assets[k] = v
	}
	for k, v := range s.pathCache {
		c.pathCache[k] = v
	}
	for k, v := range s.stretchCache {
		c.stretchCache[k] = v
	}
	return c
}

// Pool is the engine's single shared asset pool, read lock-free by the
// audio thread and mutated only via clone-modify-atomic-swap.
type Pool struct {
	current atomic.Pointer[snapshot]
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	p := &Pool{}
	p.current.Store(emptySnapshot())
	return p
}

// Get returns the asset for id from the current snapshot, or (nil, false).
func (p *Pool) Get(id uint32) (*Asset, bool) {
	snap := p.current.Load()
	a, ok := snap.assets[id]
	return a, ok
}

// swap installs a mutated clone of the current snapshot.
func (p *Pool) swap(mutate func(*snapshot)) *snapshot {
	cur := p.current.Load()
	next := cur.clone()
	mutate(next)
	p.current.Store(next)
	return next
}

// LoadFromPath decodes a WAV file and registers it, returning a cached id if
// the path was already loaded.
func (p *Pool) LoadFromPath(path string) (uint32, error) {
	if id, ok := p.current.Load().pathCache[path]; ok {
		return id, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", enginerr.ErrDecode, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("%w: not a valid WAV file: %s", enginerr.ErrDecode, path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", enginerr.ErrDecode, err)
	}

	bitDepth := int(dec.BitDepth)
	divisor := float32(int64(1) << uint(bitDepth-1))
	if divisor == 0 {
		divisor = 1
	}
	data := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		data[i] = float32(v) / divisor
	}

	channels := int(dec.NumChans)
	sampleRate := int(dec.SampleRate)
	frames := len(data) / max(channels, 1)
	duration := 0.0
	if sampleRate > 0 {
		duration = float64(frames) / float64(sampleRate)
	}

	var id uint32
	p.swap(func(s *snapshot) {
		id = s.nextID
		s.nextID++
		s.assets[id] = &Asset{
			ID: id, Path: path, Data: data, Channels: channels,
			SampleRate: sampleRate, DurationSecs: duration,
		}
		s.pathCache[path] = id
	})
	return id, nil
}

// AddFromCapture registers a newly recorded mono buffer, returning its id.
func (p *Pool) AddFromCapture(data []float32, sourceSampleRate int) uint32 {
	var id uint32
	p.swap(func(s *snapshot) {
		id = s.nextID
		s.nextID++
		duration := 0.0
		if sourceSampleRate > 0 {
			duration = float64(len(data)) / float64(sourceSampleRate)
		}
		s.assets[id] = &Asset{
			ID:           id,
			Path:         fmt.Sprintf("[Recorded %d]", id),
			Data:         append([]float32(nil), data...),
			Channels:     1,
			SampleRate:   sourceSampleRate,
			DurationSecs: duration,
		}
	})
	return id
}

// quantizeRatio matches spec 4.2's "quantize to three decimal digits"
// instruction exactly: floor(ratio*1000).
func quantizeRatio(ratio float64) int64 {
	return int64(math.Floor(ratio * 1000))
}

// GetOrCreateStretched returns the cached derived asset id for
// (sourceID, ratio), resampling and caching on miss.
func (p *Pool) GetOrCreateStretched(sourceID uint32, ratio float64) (uint32, error) {
	key := stretchKey{sourceID: sourceID, ratioMilli: quantizeRatio(ratio)}
	if id, ok := p.current.Load().stretchCache[key]; ok {
		return id, nil
	}

	src, ok := p.Get(sourceID)
	if !ok {
		return 0, fmt.Errorf("%w: source id %d", enginerr.ErrAssetMissing, sourceID)
	}
	stretched, err := resampler.Resample(src.Data, ratio)
	if err != nil {
		return 0, err
	}

	var id uint32
	p.swap(func(s *snapshot) {
		// re-check under the fresh snapshot in case of a concurrent writer
		if existing, ok := s.stretchCache[key]; ok {
			id = existing
			return
		}
		id = s.nextID
		s.nextID++
		frames := len(stretched) / max(src.Channels, 1)
		duration := 0.0
		if src.SampleRate > 0 {
			duration = float64(frames) / float64(src.SampleRate)
		}
		s.assets[id] = &Asset{
			ID:           id,
			Path:         fmt.Sprintf("%s [Stretched %.3fx]", src.Path, ratio),
			Data:         stretched,
			Channels:     src.Channels,
			SampleRate:   src.SampleRate,
			DurationSecs: duration,
			OriginalBPM:  src.OriginalBPM,
		}
		s.stretchCache[key] = id
	})
	return id, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
