package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryAt(started time.Time) RunSummary {
	ended := started.Add(time.Minute)
	return RunSummary{
		Context:   "general-analyst",
		Target:    "/srv/code/widgets",
		StartedAt: &started,
		EndedAt:   &ended,
		Outcome:   "success",
		Complete:  true,
	}
}

func TestMemoryStore_Save(t *testing.T) {
	store := NewMemoryStore()
	assert.Empty(t, store.History())

	summary := summaryAt(time.Now())
	steps := []StepExecution{{Activity: "discover", Outcome: "success"}}
	require.NoError(t, store.Save(summary, steps))

	history := store.History()
	require.Len(t, history, 1)

	// The ID is populated on save.
	summary.ID = summary.CalculateID()
	assert.Equal(t, summary, history[0])
	assert.Equal(t, steps, store.Logs(summary.ID))
}

func TestMemoryStore_MostRecentFirst(t *testing.T) {
	store := NewMemoryStore()

	base := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(summaryAt(base.Add(time.Duration(i)*time.Hour)), nil))
	}

	history := store.History()
	require.Len(t, history, 3)
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i-1].StartedAt.After(*history[i].StartedAt))
	}
}

func TestMemoryStore_LogsUnknownID(t *testing.T) {
	assert.Nil(t, NewMemoryStore().Logs("missing"))
}
