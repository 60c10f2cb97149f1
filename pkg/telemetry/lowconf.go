// Package telemetry records low-confidence recognitions to a JSONL file so
// acoustic and vocabulary tuning can be driven by real failures.
package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"campus-robot/pkg/stt"
)

// lowConfidenceRecord is one JSONL line. Word confidences carry through
// unchanged from the recognizer.
type lowConfidenceRecord struct {
	Timestamp       string               `json:"timestamp"`
	Text            string               `json:"text"`
	Confidence      float64              `json:"confidence"`
	WordConfidences []stt.WordConfidence `json:"word_confidences,omitempty"`
	Source          string               `json:"source"`
	Session         string               `json:"session"`
}

// LowConfidenceLog appends low-confidence recognition results to a JSONL
// file. Recording is best effort: failures are logged at debug level and
// never surface to the dialogue loop.
type LowConfidenceLog struct {
	log     *logrus.Entry
	mu      sync.Mutex
	path    string
	session string
}

func NewLowConfidenceLog(logger *logrus.Logger, path, session string) *LowConfidenceLog {
	return &LowConfidenceLog{
		log:     logger.WithField("component", "low_confidence_log"),
		path:    path,
		session: session,
	}
}

// Record appends one result. Nil results are ignored.
func (l *LowConfidenceLog) Record(res *stt.RecognitionResult) {
	if l == nil || res == nil {
		return
	}

	record := lowConfidenceRecord{
		Timestamp:       time.Now().UTC().Format(time.RFC3339Nano),
		Text:            res.Text,
		Confidence:      res.Confidence,
		WordConfidences: res.WordConfidences,
		Source:          res.Source,
		Session:         l.session,
	}

	line, err := json.Marshal(record)
	if err != nil {
		l.log.WithError(err).Debug("Failed to encode low-confidence record")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		l.log.WithError(err).Debug("Failed to create low-confidence log directory")
		return
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		l.log.WithError(err).Debug("Failed to open low-confidence log")
		return
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		l.log.WithError(err).Debug("Failed to append low-confidence record")
	}
}
