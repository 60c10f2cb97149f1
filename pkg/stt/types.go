// Package stt defines the speech recognition boundary: the result types
// produced by recognizers, the provider interface the dialogue engine
// consumes, and the built-in console and websocket backends.
package stt

// WordConfidence is one recognized word with its confidence and timing.
type WordConfidence struct {
	Word       string  `json:"word"`
	Confidence float64 `json:"conf"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
}

// RecognitionResult is one finalized utterance from a recognizer.
type RecognitionResult struct {
	Text            string           `json:"text"`
	Confidence      float64          `json:"confidence"`
	WordConfidences []WordConfidence `json:"word_confidences,omitempty"`
	IsFinal         bool             `json:"is_final"`
	Source          string           `json:"source"`
}

func (r *RecognitionResult) String() string {
	if r == nil {
		return ""
	}
	return r.Text
}
