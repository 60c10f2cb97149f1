// Package tts abstracts speech synthesis. The engine only needs to start
// an utterance, learn when it finishes, and cut it off on demand.
package tts

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CompletionFunc is invoked when an utterance ends. The argument is true
// when the utterance played to completion, false when it was interrupted.
type CompletionFunc func(completed bool)

// Speaker synthesizes speech. Speak with blocking=false returns once the
// utterance is queued and reports completion through onComplete; with
// blocking=true it returns after the utterance finishes.
type Speaker interface {
	Speak(text string, onComplete CompletionFunc, blocking bool) error
	Interrupt()
}

// LogSpeaker is a synthesis stand-in that logs utterances instead of
// playing audio. It models the asynchronous playback contract, including
// interruption, so the dialogue engine behaves as it would with real TTS.
type LogSpeaker struct {
	log *logrus.Entry

	mu        sync.Mutex
	delay     time.Duration
	interrupt chan struct{}
}

func NewLogSpeaker(logger *logrus.Logger) *LogSpeaker {
	return &LogSpeaker{
		log: logger.WithField("component", "speaker"),
	}
}

// SetDelay sets a simulated playback duration per utterance.
func (s *LogSpeaker) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Speak logs the utterance and signals completion after the configured
// playback delay. Asynchronous calls complete on a goroutine, mirroring
// a playback thread.
func (s *LogSpeaker) Speak(text string, onComplete CompletionFunc, blocking bool) error {
	s.mu.Lock()
	ch := make(chan struct{})
	s.interrupt = ch
	delay := s.delay
	s.mu.Unlock()

	s.log.WithField("text", text).Info("Speaking")

	finish := func() {
		completed := true
		select {
		case <-ch:
			completed = false
		case <-time.After(delay):
		}
		if onComplete != nil {
			onComplete(completed)
		}
	}

	if blocking {
		finish()
		return nil
	}
	go finish()
	return nil
}

// Interrupt cancels the in-flight utterance, if any.
func (s *LogSpeaker) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interrupt != nil {
		select {
		case <-s.interrupt:
		default:
			close(s.interrupt)
		}
		s.interrupt = nil
	}
}
