package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateOrdering(t *testing.T) {
	assert.Less(t, StatePending.Rank(), StateStarted.Rank())
	assert.Less(t, StateStarted.Rank(), StateProgress.Rank())
	assert.Less(t, StateProgress.Rank(), StateSuccess.Rank())
	assert.Less(t, StateProgress.Rank(), StateFailure.Rank())
	assert.Equal(t, StateSuccess.Rank(), StateFailure.Rank())
}

func TestStateTerminal(t *testing.T) {
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateStarted.Terminal())
	assert.False(t, StateProgress.Terminal())
	assert.True(t, StateSuccess.Terminal())
	assert.True(t, StateFailure.Terminal())
}
