package enginerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsAreDistinct(t *testing.T) {
	all := []error{
		ErrNotInitialized, ErrDecode, ErrResurrectableCrash,
		ErrFatalPluginLoad, ErrCommandChannelClosed, ErrAssetMissing,
	}
	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			assert.NotEqual(t, a, b)
			assert.False(t, errors.Is(a, b))
		}
	}
}

func TestSentinelsWrapWithErrorsIs(t *testing.T) {
	wrapped := fmt.Errorf("resurrecting: %w", ErrResurrectableCrash)
	assert.True(t, errors.Is(wrapped, ErrResurrectableCrash))
	assert.False(t, errors.Is(wrapped, ErrFatalPluginLoad))
}
