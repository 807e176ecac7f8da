package transport

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPublisherSeedsDefault(t *testing.T) {
	p := NewPublisher()
	s := p.Load()
	assert.False(t, s.IsPlaying)
	assert.Equal(t, 120.0, s.TempoBPM)
	assert.Equal(t, uint8(4), s.TimeSigNum)
	assert.Equal(t, uint8(4), s.TimeSigDenom)
}

func TestPublishLoadRoundTrip(t *testing.T) {
	p := NewPublisher()
	p.Publish(Snapshot{IsPlaying: true, TempoBPM: 140, SongPosBeats: 3.5, BarNumber: 1})
	s := p.Load()
	assert.True(t, s.IsPlaying)
	assert.Equal(t, 140.0, s.TempoBPM)
	assert.Equal(t, 3.5, s.SongPosBeats)
	assert.Equal(t, uint64(1), s.BarNumber)
}

func TestConcurrentPublishAndLoadDoesNotRace(t *testing.T) {
	p := NewPublisher()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			p.Publish(Snapshot{TempoBPM: float64(i)})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = p.Load()
		}
	}()
	wg.Wait()
}
