package speech

// StateType represents the resting state of the playback engine. Stopping
// is a transient action, not a resting state; stop always resolves back to
// StateIdle.
type StateType int

const (
	// StateIdle indicates no playback is scheduled.
	StateIdle StateType = iota
	// StatePlaying indicates sentence audio is actively scheduled.
	StatePlaying
	// StatePaused indicates playback is suspended mid-sentence.
	StatePaused
)

// String returns the string representation of the state.
func (s StateType) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// StateMachine validates playback state transitions.
type StateMachine struct {
	current     StateType
	transitions map[StateType][]StateType
}

// NewStateMachine creates a state machine starting in StateIdle.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[StateType][]StateType{
			StateIdle:    {StatePlaying},
			StatePlaying: {StatePaused, StateIdle},
			StatePaused:  {StatePlaying, StateIdle},
		},
	}
}

// Transition attempts to move to the given state, reporting whether the
// transition was legal. A self-transition is treated as a no-op success.
func (sm *StateMachine) Transition(to StateType) bool {
	if to == sm.current {
		return true
	}
	for _, valid := range sm.transitions[sm.current] {
		if valid == to {
			sm.current = to
			return true
		}
	}
	return false
}

// Current returns the current state.
func (sm *StateMachine) Current() StateType {
	return sm.current
}
