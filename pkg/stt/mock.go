package stt

import (
	"errors"
	"sync"
	"time"
)

// MockRecognizer is a scripted recognizer for tests. Results are pushed
// by the test and handed out in order; grammar requests return a canned
// response; mode switches are recorded.
type MockRecognizer struct {
	mu            sync.Mutex
	queue         *resultQueue
	grammarResult *RecognitionResult
	grammarErr    error
	grammarCalls  [][]string
	modes         []RecognitionMode
}

func NewMockRecognizer() *MockRecognizer {
	return &MockRecognizer{
		queue: newResultQueue(nil, defaultQueueSize),
	}
}

// Push enqueues a finalized utterance for the engine to consume.
func (m *MockRecognizer) Push(text string, confidence float64) {
	m.queue.push(&RecognitionResult{
		Text:       text,
		Confidence: confidence,
		IsFinal:    true,
		Source:     "mock",
	})
}

// PushResult enqueues a fully specified result.
func (m *MockRecognizer) PushResult(res *RecognitionResult) {
	m.queue.push(res)
}

// SetGrammarResponse fixes what the next RecognizeWithGrammar calls return.
func (m *MockRecognizer) SetGrammarResponse(res *RecognitionResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grammarResult = res
	m.grammarErr = err
}

func (m *MockRecognizer) GetResult(timeout time.Duration) *RecognitionResult {
	return m.queue.pop(timeout)
}

func (m *MockRecognizer) RecognizeWithGrammar(phrases []string) (*RecognitionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grammarCalls = append(m.grammarCalls, phrases)
	if m.grammarResult == nil && m.grammarErr == nil {
		return nil, errors.New("no grammar response configured")
	}
	return m.grammarResult, m.grammarErr
}

func (m *MockRecognizer) SetRecognitionMode(mode RecognitionMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modes = append(m.modes, mode)
}

// GrammarCalls returns the phrase lists passed to RecognizeWithGrammar.
func (m *MockRecognizer) GrammarCalls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.grammarCalls))
	copy(out, m.grammarCalls)
	return out
}

// Modes returns the recorded recognition-mode switches.
func (m *MockRecognizer) Modes() []RecognitionMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecognitionMode, len(m.modes))
	copy(out, m.modes)
	return out
}
