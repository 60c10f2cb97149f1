// Package display drives the robot's face. Each dialogue state maps to an
// expression; backends range from a real screen to a log line.
package display

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Expression is a face shown on the robot's display.
type Expression int

const (
	ExpressionIdle Expression = iota
	ExpressionListening
	ExpressionThinking
	ExpressionSpeaking
	ExpressionError
	ExpressionSleeping
)

func (e Expression) String() string {
	switch e {
	case ExpressionIdle:
		return "idle"
	case ExpressionListening:
		return "listening"
	case ExpressionThinking:
		return "thinking"
	case ExpressionSpeaking:
		return "speaking"
	case ExpressionError:
		return "error"
	case ExpressionSleeping:
		return "sleeping"
	default:
		return "unknown"
	}
}

// Display renders expressions. Implementations must tolerate rapid
// repeated calls with the same expression.
type Display interface {
	SetExpression(e Expression)
}

// Nop is a display that renders nothing.
type Nop struct{}

func (Nop) SetExpression(Expression) {}

// Log writes expression changes to the logger, suppressing repeats. It is
// safe for concurrent use; the engine drives it from the main loop, the
// state machine's on-enter hook and the speech watchdog.
type Log struct {
	log  *logrus.Entry
	mu   sync.Mutex
	last Expression
	set  bool
}

func NewLog(logger *logrus.Logger) *Log {
	return &Log{log: logger.WithField("component", "display")}
}

func (l *Log) SetExpression(e Expression) {
	l.mu.Lock()
	if l.set && l.last == e {
		l.mu.Unlock()
		return
	}
	l.last = e
	l.set = true
	l.mu.Unlock()
	l.log.WithField("expression", e.String()).Debug("Expression changed")
}
