package wordpress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerTransitions(t *testing.T) {
	var seen []State
	tr := NewTracker(func(s State) { seen = append(seen, s) })

	assert.False(t, tr.Succeed(StepPrepare, "too early", 10), "idle cannot jump to success")
	assert.True(t, tr.Start(StepPrepare))
	assert.False(t, tr.Start(StepPrepare), "loading cannot restart")
	assert.True(t, tr.Succeed(StepPrepare, "ok", 25))
	assert.False(t, tr.Fail(StepPrepare, "late", 30), "terminal states are final")
	assert.False(t, tr.Start("unknown"))

	snap := tr.Snapshot()
	assert.Equal(t, StepState{Status: StepSuccess, Message: "ok"}, snap.Steps[StepPrepare])
	assert.Equal(t, StepState{Status: StepIdle}, snap.Steps[StepImage])
	assert.Equal(t, StepPrepare, snap.CurrentStep)
	assert.Equal(t, 25, snap.Progress)
	assert.Len(t, seen, 2)
}

func TestTrackerProgressNeverDecreases(t *testing.T) {
	tr := NewTracker(nil)
	tr.Advance(40)
	tr.Advance(20)
	tr.Start(StepImage)
	tr.Fail(StepImage, "no image", 30)
	assert.Equal(t, 40, tr.Snapshot().Progress)

	tr.Advance(250)
	assert.Equal(t, 100, tr.Snapshot().Progress)
}

func TestTrackerSnapshotsAreIsolated(t *testing.T) {
	var first State
	tr := NewTracker(func(s State) {
		if first.Steps == nil {
			first = s
		}
	})
	tr.Start(StepPrepare)
	tr.Succeed(StepPrepare, "", 10)

	assert.Equal(t, StepLoading, first.Steps[StepPrepare].Status)
	first.Steps[StepPrepare] = StepState{Status: StepError}
	assert.Equal(t, StepSuccess, tr.Snapshot().Steps[StepPrepare].Status)
}
