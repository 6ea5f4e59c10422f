package app

import (
	"slices"
	"sync"
	"time"
)

// State represents where the current gesture is in the pipeline.
type State int

const (
	// StateIdle - no session open, no run in flight
	StateIdle State = iota

	// StateCapturingAudio - microphone session open
	StateCapturingAudio

	// StateTranscribing - waiting on speech-to-text
	StateTranscribing

	// StateTranslating - waiting on translation
	StateTranslating

	// StateDispatching - posting the command
	StateDispatching

	// StateSkipped - sending disabled for this gesture
	StateSkipped
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturingAudio:
		return "capturing"
	case StateTranscribing:
		return "transcribing"
	case StateTranslating:
		return "translating"
	case StateDispatching:
		return "dispatching"
	case StateSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

var validTransitions = map[State][]State{
	StateIdle:           {StateCapturingAudio},
	StateCapturingAudio: {StateTranscribing, StateIdle},
	StateTranscribing:   {StateTranslating, StateIdle},
	StateTranslating:    {StateDispatching, StateSkipped, StateIdle},
	StateDispatching:    {StateIdle},
	StateSkipped:        {StateIdle},
}

// StateChangeListener is called when state changes
type StateChangeListener func(oldState, newState State)

// StateMachine manages state transitions
type StateMachine struct {
	mu           sync.RWMutex
	currentState State
	stateTime    time.Time
	listeners    []StateChangeListener
}

// NewStateMachine creates a new state machine
func NewStateMachine() *StateMachine {
	return &StateMachine{
		currentState: StateIdle,
		stateTime:    time.Now(),
	}
}

// Current returns the current state
func (sm *StateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState
}

// StateDuration returns how long we've been in the current state
func (sm *StateMachine) StateDuration() time.Duration {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return time.Since(sm.stateTime)
}

// Transition changes to a new state. It returns false for transitions
// the pipeline does not allow.
func (sm *StateMachine) Transition(newState State) bool {
	sm.mu.Lock()
	oldState := sm.currentState

	if !slices.Contains(validTransitions[oldState], newState) {
		sm.mu.Unlock()
		return false
	}

	sm.currentState = newState
	sm.stateTime = time.Now()
	listeners := sm.listeners
	sm.mu.Unlock()

	for _, listener := range listeners {
		listener(oldState, newState)
	}
	return true
}

// AddListener adds a state change listener
func (sm *StateMachine) AddListener(listener StateChangeListener) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.listeners = append(sm.listeners, listener)
}

// Reset forces the state machine back to idle
func (sm *StateMachine) Reset() {
	sm.mu.Lock()
	oldState := sm.currentState
	if oldState == StateIdle {
		sm.mu.Unlock()
		return
	}
	sm.currentState = StateIdle
	sm.stateTime = time.Now()
	listeners := sm.listeners
	sm.mu.Unlock()

	for _, listener := range listeners {
		listener(oldState, StateIdle)
	}
}
