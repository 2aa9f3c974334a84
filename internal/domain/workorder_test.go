package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from WorkOrderStatus
		to   WorkOrderStatus
		want bool
	}{
		{"submitted to assigned", WorkOrderStatusSubmitted, WorkOrderStatusAssigned, true},
		{"submitted to in_progress skips assignment", WorkOrderStatusSubmitted, WorkOrderStatusInProgress, false},
		{"submitted to cancelled", WorkOrderStatusSubmitted, WorkOrderStatusCancelled, true},
		{"assigned to in_progress", WorkOrderStatusAssigned, WorkOrderStatusInProgress, true},
		{"assigned to completed skips progress", WorkOrderStatusAssigned, WorkOrderStatusCompleted, false},
		{"in_progress to completed", WorkOrderStatusInProgress, WorkOrderStatusCompleted, true},
		{"in_progress to cancelled", WorkOrderStatusInProgress, WorkOrderStatusCancelled, true},
		{"completed is terminal", WorkOrderStatusCompleted, WorkOrderStatusCancelled, false},
		{"cancelled is terminal", WorkOrderStatusCancelled, WorkOrderStatusAssigned, false},
		{"no backwards transition", WorkOrderStatusInProgress, WorkOrderStatusSubmitted, false},
		{"unknown target rejected", WorkOrderStatusSubmitted, WorkOrderStatus("paused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestWorkOrderStatus_IsTerminal(t *testing.T) {
	assert.True(t, WorkOrderStatusCompleted.IsTerminal())
	assert.True(t, WorkOrderStatusCancelled.IsTerminal())
	assert.False(t, WorkOrderStatusSubmitted.IsTerminal())
	assert.False(t, WorkOrderStatusAssigned.IsTerminal())
	assert.False(t, WorkOrderStatusInProgress.IsTerminal())
}
