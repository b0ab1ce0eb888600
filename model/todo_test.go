package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriorityRankOrdering(t *testing.T) {
	assert.Greater(t, PriorityUrgent.Rank(), PriorityHigh.Rank())
	assert.Greater(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Greater(t, PriorityMedium.Rank(), PriorityLow.Rank())
	assert.Zero(t, Priority("severe").Rank())
}

func TestStatusValidation(t *testing.T) {
	for _, s := range Statuses() {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, Status("archived").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestStatusTitles(t *testing.T) {
	assert.Equal(t, "To Do", StatusTodo.Title())
	assert.Equal(t, "In Progress", StatusInProgress.Title())
	assert.Equal(t, "Done", StatusDone.Title())
}

func TestPriorityValidation(t *testing.T) {
	for _, p := range Priorities() {
		assert.True(t, p.IsValid(), p)
	}
	assert.False(t, Priority("severe").IsValid())
}
