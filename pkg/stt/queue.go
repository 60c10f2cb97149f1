package stt

import (
	"time"

	"github.com/sirupsen/logrus"
)

// defaultQueueSize bounds how many finalized utterances may sit unread.
// The dialogue loop consumes one at a time; a small backlog is enough.
const defaultQueueSize = 16

// resultQueue is a bounded buffer between a recognizer's delivery
// goroutine and the dialogue loop. When full, the oldest result is
// dropped so the consumer always sees the freshest speech.
type resultQueue struct {
	log *logrus.Entry
	ch  chan *RecognitionResult
}

func newResultQueue(log *logrus.Entry, size int) *resultQueue {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &resultQueue{
		log: log,
		ch:  make(chan *RecognitionResult, size),
	}
}

// push enqueues a result, evicting the oldest entry if the buffer is full.
func (q *resultQueue) push(res *RecognitionResult) {
	for {
		select {
		case q.ch <- res:
			return
		default:
		}
		select {
		case dropped := <-q.ch:
			if q.log != nil {
				q.log.WithField("text", dropped.Text).Warn("Result queue full, dropping oldest utterance")
			}
		default:
		}
	}
}

// pop waits up to timeout for the next result; nil on timeout.
func (q *resultQueue) pop(timeout time.Duration) *RecognitionResult {
	select {
	case res := <-q.ch:
		return res
	case <-time.After(timeout):
		return nil
	}
}
