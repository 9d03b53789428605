package reading

// State represents the lifecycle stage of a reading session.
type State int

const (
	// StateLoading indicates passage text and questions are being fetched.
	StateLoading State = iota
	// StateReady indicates content is loaded and scripture can be played.
	StateReady
	// StatePlayingScripture indicates scripture narration is active.
	StatePlayingScripture
	// StateScriptureComplete indicates scripture finished and questions
	// are available.
	StateScriptureComplete
	// StatePlayingQuestion indicates a question narration is active.
	StatePlayingQuestion
	// StateAllComplete indicates every question has been played.
	StateAllComplete
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlayingScripture:
		return "playing-scripture"
	case StateScriptureComplete:
		return "scripture-complete"
	case StatePlayingQuestion:
		return "playing-question"
	case StateAllComplete:
		return "all-complete"
	default:
		return "unknown"
	}
}

// StateMachine manages session state transitions.
type StateMachine struct {
	current     State
	transitions map[State][]State
	onEnter     map[State]func()
	onExit      map[State]func()
}

// NewStateMachine creates a state machine with the valid session
// transitions. A session moves forward through scripture then questions;
// the only backward edges return to states a family would replay from.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateLoading,
		transitions: map[State][]State{
			StateLoading:          {StateReady},
			StateReady:            {StatePlayingScripture},
			StatePlayingScripture: {StateScriptureComplete, StateReady},
			StateScriptureComplete: {
				StatePlayingQuestion,
				StatePlayingScripture,
				StateAllComplete,
			},
			StatePlayingQuestion: {StateScriptureComplete, StateAllComplete},
			StateAllComplete:     {StatePlayingScripture, StatePlayingQuestion},
		},
		onEnter: make(map[State]func()),
		onExit:  make(map[State]func()),
	}
}

// Transition attempts to move to the specified state, returning false when
// the edge is not valid from the current state.
func (sm *StateMachine) Transition(to State) bool {
	valid := false
	for _, state := range sm.transitions[sm.current] {
		if state == to {
			valid = true
			break
		}
	}
	if !valid {
		return false
	}

	if exitFn := sm.onExit[sm.current]; exitFn != nil {
		exitFn()
	}

	sm.current = to

	if enterFn := sm.onEnter[to]; enterFn != nil {
		enterFn()
	}

	return true
}

// Current returns the current state.
func (sm *StateMachine) Current() State {
	return sm.current
}

// OnEnter registers a callback for entering a state.
func (sm *StateMachine) OnEnter(state State, fn func()) {
	sm.onEnter[state] = fn
}

// OnExit registers a callback for exiting a state.
func (sm *StateMachine) OnExit(state State, fn func()) {
	sm.onExit[state] = fn
}
