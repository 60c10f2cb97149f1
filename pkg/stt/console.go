package stt

import (
	"bufio"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ConsoleRecognizer reads typed utterances line by line, standing in for a
// live microphone pipeline during development. Every line is delivered as
// a finalized result with full confidence.
type ConsoleRecognizer struct {
	log     *logrus.Entry
	queue   *resultQueue
	mu      sync.Mutex
	mode    RecognitionMode
	started bool
}

// NewConsoleRecognizer builds a console recognizer reading from stdin.
func NewConsoleRecognizer(logger *logrus.Logger) *ConsoleRecognizer {
	log := logger.WithField("component", "console_recognizer")
	r := &ConsoleRecognizer{
		log:   log,
		queue: newResultQueue(log, defaultQueueSize),
		mode:  ModeWake,
	}
	r.start(os.Stdin)
	return r
}

func (r *ConsoleRecognizer) start(in io.Reader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			r.queue.push(&RecognitionResult{
				Text:       line,
				Confidence: 1.0,
				IsFinal:    true,
				Source:     "console",
			})
		}
		if err := scanner.Err(); err != nil {
			r.log.WithError(err).Warn("Console input closed with error")
		}
	}()
}

// GetResult returns the next typed line, or nil after the timeout.
func (r *ConsoleRecognizer) GetResult(timeout time.Duration) *RecognitionResult {
	return r.queue.pop(timeout)
}

// RecognizeWithGrammar is unsupported: typed input has no audio to replay.
func (r *ConsoleRecognizer) RecognizeWithGrammar(phrases []string) (*RecognitionResult, error) {
	return nil, errors.New("console recognizer has no buffered audio for re-recognition")
}

// SetRecognitionMode records the requested mode. Typed input is not
// biased by it, but the mode is kept for observability.
func (r *ConsoleRecognizer) SetRecognitionMode(mode RecognitionMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != mode {
		r.log.WithField("mode", mode).Debug("Recognition mode changed")
		r.mode = mode
	}
}
