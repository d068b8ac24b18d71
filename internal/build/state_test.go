package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		allowed  bool
	}{
		{StateIdle, StateCleaning, true},
		{StateIdle, StateFailed, true},
		{StateIdle, StateCompiling, false},
		{StateCleaning, StateCompiling, true},
		{StateCleaning, StateFailed, true},
		{StateCleaning, StateDone, false},
		{StateCompiling, StateDone, true},
		{StateCompiling, StateFailed, true},
		{StateDone, StateCleaning, false},
		{StateFailed, StateDone, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, isAllowedTransition(tt.from, tt.to))
		})
	}
}

func TestStateIsTerminal(t *testing.T) {
	assert.True(t, StateDone.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
	assert.False(t, StateCompiling.IsTerminal())
}
