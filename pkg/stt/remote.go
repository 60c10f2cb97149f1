package stt

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// grammarResultTimeout bounds how long a constrained re-recognition may
// take before the first-pass result stands.
const grammarResultTimeout = 3 * time.Second

// wsMessage is the framing shared with a remote recognition service. The
// service streams finalized results; the client sends mode switches and
// grammar re-recognition requests.
type wsMessage struct {
	Type    string             `json:"type"`
	Mode    string             `json:"mode,omitempty"`
	Phrases []string           `json:"phrases,omitempty"`
	Result  *RecognitionResult `json:"result,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// RemoteRecognizer adapts a websocket speech service to the Recognizer
// interface. The service owns audio capture and decoding; this side only
// consumes results and issues control messages.
type RemoteRecognizer struct {
	log       *logrus.Entry
	conn      *websocket.Conn
	writeMu   sync.Mutex
	queue     *resultQueue
	grammarCh chan *RecognitionResult
	closeOnce sync.Once
	done      chan struct{}
}

// NewRemoteRecognizer dials the recognition service and starts the read
// loop. The caller must Close it on shutdown.
func NewRemoteRecognizer(logger *logrus.Logger, url string) (*RemoteRecognizer, error) {
	log := logger.WithField("component", "remote_recognizer")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing recognition service %s: %w", url, err)
	}
	log.WithField("url", url).Info("Connected to recognition service")

	r := &RemoteRecognizer{
		log:       log,
		conn:      conn,
		queue:     newResultQueue(log, defaultQueueSize),
		grammarCh: make(chan *RecognitionResult, 1),
		done:      make(chan struct{}),
	}
	go r.readLoop()
	return r, nil
}

func (r *RemoteRecognizer) readLoop() {
	defer close(r.done)
	for {
		var msg wsMessage
		if err := r.conn.ReadJSON(&msg); err != nil {
			r.log.WithError(err).Warn("Recognition stream closed")
			return
		}

		switch msg.Type {
		case "result":
			if msg.Result != nil && msg.Result.IsFinal {
				if msg.Result.Source == "" {
					msg.Result.Source = "websocket"
				}
				r.queue.push(msg.Result)
			}
		case "grammar_result":
			select {
			case r.grammarCh <- msg.Result:
			default:
				r.log.Debug("Discarding unclaimed grammar result")
			}
		case "error":
			r.log.WithField("error", msg.Error).Warn("Recognition service error")
		default:
			r.log.WithField("type", msg.Type).Debug("Ignoring unknown message type")
		}
	}
}

func (r *RemoteRecognizer) send(msg wsMessage) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.conn.WriteJSON(msg)
}

// GetResult returns the next finalized utterance from the service.
func (r *RemoteRecognizer) GetResult(timeout time.Duration) *RecognitionResult {
	return r.queue.pop(timeout)
}

// RecognizeWithGrammar asks the service to re-decode its buffered audio
// against the phrase list and waits for the constrained result.
func (r *RemoteRecognizer) RecognizeWithGrammar(phrases []string) (*RecognitionResult, error) {
	// Drop any stale result from a previous request.
	select {
	case <-r.grammarCh:
	default:
	}

	if err := r.send(wsMessage{Type: "grammar", Phrases: phrases}); err != nil {
		return nil, fmt.Errorf("sending grammar request: %w", err)
	}

	select {
	case res := <-r.grammarCh:
		if res == nil {
			return nil, fmt.Errorf("recognition service returned no grammar result")
		}
		return res, nil
	case <-r.done:
		return nil, fmt.Errorf("recognition stream closed during re-recognition")
	case <-time.After(grammarResultTimeout):
		return nil, fmt.Errorf("grammar re-recognition timed out after %s", grammarResultTimeout)
	}
}

// SetRecognitionMode forwards the mode switch to the service.
func (r *RemoteRecognizer) SetRecognitionMode(mode RecognitionMode) {
	if err := r.send(wsMessage{Type: "mode", Mode: string(mode)}); err != nil {
		r.log.WithError(err).Warn("Failed to send recognition mode")
	}
}

// Close shuts the websocket down and waits briefly for the read loop.
func (r *RemoteRecognizer) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.writeMu.Lock()
		_ = r.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		r.writeMu.Unlock()

		err = r.conn.Close()
		select {
		case <-r.done:
		case <-time.After(time.Second):
		}
	})
	return err
}
