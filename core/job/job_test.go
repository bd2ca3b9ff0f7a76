package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddAssignsMonotonicIDs(t *testing.T) {
	table := NewTable()

	first := table.Add(100, "sleep 5 &", Running)
	second := table.Add(200, "cat &", Running)

	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)

	// Ids are never reused, even after a reap.
	table.SetState(first.ID, Done)
	table.ReapDone()
	third := table.Add(300, "sleep 1 &", Running)
	assert.Equal(t, 3, third.ID)
}

func TestLookups(t *testing.T) {
	table := NewTable()
	added := table.Add(100, "sleep 5 &", Running)

	byID, ok := table.ByID(added.ID)
	assert.True(t, ok)
	assert.Equal(t, added, byID)

	byPgid, ok := table.ByPgid(100)
	assert.True(t, ok)
	assert.Equal(t, added, byPgid)

	_, ok = table.ByID(99)
	assert.False(t, ok)
	_, ok = table.ByPgid(99)
	assert.False(t, ok)
}

func TestSetState(t *testing.T) {
	table := NewTable()
	j := table.Add(100, "cat", Running)

	assert.True(t, table.SetState(j.ID, Stopped))
	got, _ := table.ByID(j.ID)
	assert.Equal(t, Stopped, got.State)

	updated, ok := table.SetStateByPgid(100, Running)
	assert.True(t, ok)
	assert.Equal(t, Running, updated.State)

	assert.False(t, table.SetState(42, Done))
	_, ok = table.SetStateByPgid(42, Done)
	assert.False(t, ok)
}

func TestReapDoneIsLazy(t *testing.T) {
	table := NewTable()
	running := table.Add(100, "sleep 5 &", Running)
	finished := table.Add(200, "true &", Running)
	table.SetState(finished.ID, Done)

	// Done jobs stay visible until the next maintenance sweep.
	assert.Len(t, table.Jobs(), 2)

	reaped := table.ReapDone()
	assert.Len(t, reaped, 1)
	assert.Equal(t, finished.ID, reaped[0].ID)

	left := table.Jobs()
	assert.Len(t, left, 1)
	assert.Equal(t, running.ID, left[0].ID)
}

func TestRunningCount(t *testing.T) {
	table := NewTable()
	table.Add(100, "a &", Running)
	stopped := table.Add(200, "b &", Running)
	table.SetState(stopped.ID, Stopped)

	assert.Equal(t, 1, table.RunningCount())
}

func TestJobsReturnsCopies(t *testing.T) {
	table := NewTable()
	table.Add(100, "cat", Running)

	snapshot := table.Jobs()
	snapshot[0].State = Done

	got, _ := table.ByPgid(100)
	assert.Equal(t, Running, got.State)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Running", Running.String())
	assert.Equal(t, "Stopped", Stopped.String())
	assert.Equal(t, "Done", Done.String())
}
