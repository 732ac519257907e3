package wordpress

import "sync"

type StepID string

const (
	StepPrepare StepID = "prepare"
	StepImage   StepID = "image"
	StepRemote  StepID = "remote"
	StepPersist StepID = "persist"
)

// Steps lists the pipeline steps in execution order.
var Steps = []StepID{StepPrepare, StepImage, StepRemote, StepPersist}

type StepStatus string

const (
	StepIdle    StepStatus = "idle"
	StepLoading StepStatus = "loading"
	StepSuccess StepStatus = "success"
	StepError   StepStatus = "error"
)

type StepState struct {
	Status  StepStatus `json:"status"`
	Message string     `json:"message,omitempty"`
}

// State is the progress side channel for UIs. It is not authoritative; the
// Outcome is.
type State struct {
	Steps       map[StepID]StepState `json:"steps"`
	Progress    int                  `json:"progress"`
	CurrentStep StepID               `json:"current_step,omitempty"`
}

func (s State) clone() State {
	steps := make(map[StepID]StepState, len(s.Steps))
	for k, v := range s.Steps {
		steps[k] = v
	}
	s.Steps = steps
	return s
}

// Observer receives a snapshot after every state change.
type Observer func(State)

// Tracker enforces idle -> loading -> success|error per step and keeps
// progress non-decreasing.
type Tracker struct {
	mu       sync.Mutex
	state    State
	observer Observer
}

func NewTracker(observer Observer) *Tracker {
	steps := make(map[StepID]StepState, len(Steps))
	for _, id := range Steps {
		steps[id] = StepState{Status: StepIdle}
	}
	return &Tracker{
		state:    State{Steps: steps},
		observer: observer,
	}
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.clone()
}

// Start moves step from idle to loading.
func (t *Tracker) Start(step StepID) bool {
	return t.transition(step, StepIdle, StepLoading, "", -1)
}

// Succeed moves step from loading to success and advances progress.
func (t *Tracker) Succeed(step StepID, message string, progress int) bool {
	return t.transition(step, StepLoading, StepSuccess, message, progress)
}

// Fail moves step from loading to error and advances progress.
func (t *Tracker) Fail(step StepID, message string, progress int) bool {
	return t.transition(step, StepLoading, StepError, message, progress)
}

// Advance raises progress without touching step status.
func (t *Tracker) Advance(progress int) {
	t.mu.Lock()
	changed := t.setProgress(progress)
	snap := t.state.clone()
	t.mu.Unlock()
	if changed {
		t.notify(snap)
	}
}

func (t *Tracker) transition(step StepID, from, to StepStatus, message string, progress int) bool {
	t.mu.Lock()
	cur, ok := t.state.Steps[step]
	if !ok || cur.Status != from {
		t.mu.Unlock()
		return false
	}
	t.state.Steps[step] = StepState{Status: to, Message: message}
	if to == StepLoading {
		t.state.CurrentStep = step
	}
	t.setProgress(progress)
	snap := t.state.clone()
	t.mu.Unlock()

	t.notify(snap)
	return true
}

func (t *Tracker) setProgress(progress int) bool {
	if progress > 100 {
		progress = 100
	}
	if progress <= t.state.Progress {
		return false
	}
	t.state.Progress = progress
	return true
}

func (t *Tracker) notify(s State) {
	if t.observer != nil {
		t.observer(s)
	}
}
