package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplySendsToBufferedChannel(t *testing.T) {
	ch := make(chan int, 1)
	Reply(ch, 42)
	assert.Equal(t, 42, <-ch)
}

func TestReplyOnNilChannelIsNoop(t *testing.T) {
	var ch chan int
	assert.NotPanics(t, func() { Reply(ch, 1) })
}

func TestReplyOnFullChannelDropsSilently(t *testing.T) {
	ch := make(chan int, 1)
	ch <- 1 // fill it
	assert.NotPanics(t, func() { Reply(ch, 2) })
	assert.Equal(t, 1, <-ch)
}

func TestKindConstantsAreDistinct(t *testing.T) {
	seen := map[Kind]bool{}
	for k := Play; k <= AddArrangementClips; k++ {
		assert.False(t, seen[k], "duplicate Kind value %d", k)
		seen[k] = true
	}
}
