// Package dialog runs the robot's conversation: a strict dialogue state
// machine, the main listen-understand-respond loop, and error recovery.
package dialog

import (
	"sync"

	"github.com/sirupsen/logrus"

	"campus-robot/pkg/metrics"
)

// State is one phase of the dialogue cycle.
type State int

const (
	StateIdle State = iota
	StateListening
	StateProcessing
	StateResponding
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateProcessing:
		return "processing"
	case StateResponding:
		return "responding"
	default:
		return "unknown"
	}
}

// Transition is a named trigger moving the machine between states.
type Transition string

const (
	TransitionWakeUp           Transition = "wake_up"
	TransitionHearInput        Transition = "hear_input"
	TransitionGenerateResponse Transition = "generate_response"
	TransitionFinishResponse   Transition = "finish_response"
	TransitionTimeout          Transition = "timeout"
	TransitionError            Transition = "error"
)

// transitionTable maps a trigger to its legal source states and the
// resulting state. Anything absent is an illegal transition.
var transitionTable = map[Transition]map[State]State{
	TransitionWakeUp: {
		StateIdle: StateListening,
	},
	TransitionHearInput: {
		StateListening: StateProcessing,
	},
	TransitionGenerateResponse: {
		StateProcessing: StateResponding,
	},
	TransitionFinishResponse: {
		StateResponding: StateIdle,
	},
	TransitionTimeout: {
		StateListening: StateIdle,
	},
	TransitionError: {
		StateListening:  StateIdle,
		StateProcessing: StateIdle,
		StateResponding: StateIdle,
	},
}

// StateMachine guards the dialogue state behind a single mutex and runs
// an on-enter callback for every state actually entered.
type StateMachine struct {
	log     *logrus.Entry
	mu      sync.Mutex
	state   State
	onEnter func(State)
}

// NewStateMachine starts in idle. onEnter may be nil; it runs inside the
// state lock, so it must be fast and must not call back into the machine.
func NewStateMachine(logger *logrus.Logger, onEnter func(State)) *StateMachine {
	return &StateMachine{
		log:     logger.WithField("component", "state_machine"),
		state:   StateIdle,
		onEnter: onEnter,
	}
}

// Current returns the current state.
func (m *StateMachine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// TryTransition applies the trigger if legal from the current state and
// reports whether it fired. Illegal transitions only log a warning.
func (m *StateMachine) TryTransition(t Transition) bool {
	m.mu.Lock()
	next, ok := transitionTable[t][m.state]
	if !ok {
		from := m.state
		m.mu.Unlock()
		m.log.WithFields(logrus.Fields{
			"transition": t,
			"from":       from,
		}).Warn("Illegal state transition rejected")
		return false
	}
	from := m.state
	m.state = next

	// The on-enter side effects belong to the transition itself: running
	// them under the lock keeps them ordered with the state changes even
	// when the speech-completion callback races the main loop.
	if metrics.StateTransitions != nil {
		metrics.StateTransitions.WithLabelValues(string(t), next.String()).Inc()
	}
	if m.onEnter != nil {
		m.onEnter(next)
	}
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{
		"transition": t,
		"from":       from,
		"to":         next,
	}).Debug("State transition")
	return true
}

// ForceIdle drives the machine back to idle unconditionally. It prefers
// the error transition so the on-enter hook runs; if that is somehow
// rejected the state is overwritten directly.
func (m *StateMachine) ForceIdle() {
	if m.Current() == StateIdle {
		return
	}
	if m.TryTransition(TransitionError) {
		return
	}
	m.mu.Lock()
	m.state = StateIdle
	m.mu.Unlock()
	m.log.Warn("State forced to idle without transition")
}
