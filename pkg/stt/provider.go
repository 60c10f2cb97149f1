package stt

import "time"

// RecognitionMode selects the recognizer's language-model bias. Wake mode
// favors short wake-phrase utterances; open mode accepts free-form speech.
type RecognitionMode string

const (
	ModeWake RecognitionMode = "wake"
	ModeOpen RecognitionMode = "open"
)

// Recognizer is the engine's view of a speech backend. Implementations
// deliver finalized utterances through GetResult and may support a
// grammar-constrained second pass over the same audio.
type Recognizer interface {
	// GetResult returns the next finalized utterance, or nil if none
	// arrives within the timeout.
	GetResult(timeout time.Duration) *RecognitionResult

	// RecognizeWithGrammar re-recognizes the most recent audio against a
	// constrained phrase list. Backends without buffered audio return an
	// error.
	RecognizeWithGrammar(phrases []string) (*RecognitionResult, error)

	// SetRecognitionMode switches the language-model bias. Implementations
	// apply it to subsequent utterances only.
	SetRecognitionMode(mode RecognitionMode)
}
