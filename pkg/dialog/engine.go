package dialog

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"campus-robot/pkg/config"
	"campus-robot/pkg/display"
	"campus-robot/pkg/knowledge"
	"campus-robot/pkg/messaging"
	"campus-robot/pkg/metrics"
	"campus-robot/pkg/nlu"
	"campus-robot/pkg/stt"
	"campus-robot/pkg/telemetry"
	"campus-robot/pkg/tts"
	"campus-robot/pkg/wake"
)

// Spoken phrases for the loop's own announcements.
const (
	wakeAcknowledgement = "Hello! How can I help you?"
	rephrasePrompt      = "I'm not sure I understood that. Could you try rephrasing?"
	apologyNotice       = "Sorry, something went wrong. Please try again."
	sleepNotice         = "I am having trouble right now. Say the wake word when you need me again."
)

// EventPublisher receives one event per fully processed utterance.
// Publishing is best effort; errors never disturb the dialogue.
type EventPublisher interface {
	Publish(event messaging.UtteranceEvent) error
}

// Options carries the engine's collaborators. Display and the optional
// observers may be nil.
type Options struct {
	Recognizer    stt.Recognizer
	Speaker       tts.Speaker
	Parser        *nlu.Parser
	Wake          *wake.Detector
	Responder     knowledge.Responder
	Display       display.Display
	LowConfidence *telemetry.LowConfidenceLog
	Publisher     EventPublisher
}

// Engine runs the listen-understand-respond loop. It owns the dialogue
// state machine and the awake flag, and survives any single iteration
// failing.
type Engine struct {
	log     *logrus.Entry
	cfg     *config.Config
	session string

	recognizer stt.Recognizer
	speaker    tts.Speaker
	parser     *nlu.Parser
	wake       *wake.Detector
	responder  knowledge.Responder
	display    display.Display
	machine    *StateMachine
	lowConf    *telemetry.LowConfidenceLog
	publisher  EventPublisher

	awakeMu sync.Mutex
	awake   bool

	consecutiveErrors int

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// NewEngine wires the engine together and assigns it a fresh session id.
func NewEngine(logger *logrus.Logger, cfg *config.Config, opts Options) *Engine {
	session := uuid.NewString()[:8]

	e := &Engine{
		log:        logger.WithFields(logrus.Fields{"component": "dialogue_engine", "session": session}),
		cfg:        cfg,
		session:    session,
		recognizer: opts.Recognizer,
		speaker:    opts.Speaker,
		parser:     opts.Parser,
		wake:       opts.Wake,
		responder:  opts.Responder,
		display:    opts.Display,
		lowConf:    opts.LowConfidence,
		publisher:  opts.Publisher,
		shutdownCh: make(chan struct{}),
	}
	if e.display == nil {
		e.display = display.Nop{}
	}
	e.machine = NewStateMachine(logger, e.onEnterState)
	return e
}

// Session returns the engine's session id.
func (e *Engine) Session() string {
	return e.session
}

// SetLowConfidenceLog attaches the telemetry sink. The sink needs the
// session id, which only exists once the engine is built, so it is wired
// after construction. Call before Run.
func (e *Engine) SetLowConfidenceLog(l *telemetry.LowConfidenceLog) {
	e.lowConf = l
}

// StateName returns the current dialogue state name.
func (e *Engine) StateName() string {
	return e.machine.Current().String()
}

// IsAwake reports whether the robot is in open conversation.
func (e *Engine) IsAwake() bool {
	e.awakeMu.Lock()
	defer e.awakeMu.Unlock()
	return e.awake
}

func (e *Engine) setAwake(awake bool) {
	e.awakeMu.Lock()
	e.awake = awake
	e.awakeMu.Unlock()
}

func (e *Engine) onEnterState(s State) {
	if metrics.DialogueState != nil {
		metrics.DialogueState.Set(float64(s))
	}
	switch s {
	case StateListening:
		e.display.SetExpression(display.ExpressionListening)
	case StateProcessing:
		e.display.SetExpression(display.ExpressionThinking)
	case StateResponding:
		e.display.SetExpression(display.ExpressionSpeaking)
	default:
		if e.IsAwake() {
			e.display.SetExpression(display.ExpressionIdle)
		} else {
			e.display.SetExpression(display.ExpressionSleeping)
		}
	}
}

// Run blocks until Shutdown, driving the dialogue loop. A single
// iteration can fail or panic without taking the loop down.
func (e *Engine) Run() {
	e.log.Info("Dialogue engine started")
	e.display.SetExpression(display.ExpressionSleeping)

	for {
		select {
		case <-e.shutdownCh:
			e.log.Info("Dialogue engine stopped")
			return
		default:
		}

		if err := e.runIteration(); err != nil {
			e.handleLoopError(err)
		}
	}
}

// Shutdown stops the loop and cuts off any in-flight speech.
func (e *Engine) Shutdown() {
	e.shutdownOnce.Do(func() {
		close(e.shutdownCh)
		e.speaker.Interrupt()
	})
}

func (e *Engine) runIteration() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dialogue iteration panic: %v", r)
		}
	}()

	// While a response is in flight nothing is consumed; utterances keep
	// buffering in the recognizer's bounded queue and are answered once
	// the machine is back to idle.
	if e.machine.Current() != StateIdle {
		select {
		case <-e.shutdownCh:
		case <-time.After(e.cfg.ResultPollTimeout):
		}
		return nil
	}

	res := e.recognizer.GetResult(e.cfg.ResultPollTimeout)
	if res == nil {
		return nil
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		return nil
	}

	if res.Confidence < e.cfg.LowConfidenceFloor {
		e.lowConf.Record(res)
	}

	if !e.IsAwake() {
		if e.wake.Matches(text) {
			e.onWake()
		}
		return nil
	}

	// Fragments shorter than a real question are treated as noise.
	if len(strings.Fields(text)) < e.cfg.MinInputWords {
		e.log.WithField("text", text).Debug("Ignoring short fragment")
		return nil
	}

	// The idle gate above makes this transition safe; the check stays so
	// a state mix-up never processes input from the wrong state.
	if !e.machine.TryTransition(TransitionWakeUp) {
		e.log.WithField("state", e.machine.Current()).Debug("Dropping input while busy")
		return nil
	}

	if err := e.processInput(res); err != nil {
		return err
	}
	e.consecutiveErrors = 0
	return nil
}

func (e *Engine) onWake() {
	if metrics.WakeDetections != nil {
		metrics.WakeDetections.Inc()
	}
	e.log.Info("Wake phrase detected")
	e.setAwake(true)
	e.recognizer.SetRecognitionMode(stt.ModeOpen)
	e.display.SetExpression(display.ExpressionIdle)
	e.trySpeak(wakeAcknowledgement, true)
}

func (e *Engine) processInput(res *stt.RecognitionResult) error {
	if !e.machine.TryTransition(TransitionHearInput) {
		return fmt.Errorf("dialogue state out of step while accepting input")
	}

	start := time.Now()
	parsed := e.parser.Parse(res.Text)
	metrics.ObserveParse(start)
	if metrics.UtterancesTotal != nil {
		metrics.UtterancesTotal.WithLabelValues(parsed.Intent).Inc()
	}

	// Nothing to look up when the classifier gave up on a quiet result;
	// ask for a rephrase and skip the second pass.
	if parsed.Intent == nlu.IntentUnknown && parsed.Confidence < e.cfg.MinIntentConfidence {
		e.log.WithField("confidence", parsed.Confidence).Debug("Unplaceable input, asking for a rephrase")
		return e.deliver(parsed, rephrasePrompt)
	}

	parsed = e.maybeReRecognize(parsed)

	reply, err := e.responder.Respond(parsed)
	if err != nil {
		e.machine.ForceIdle()
		return fmt.Errorf("generating response: %w", err)
	}
	return e.deliver(parsed, reply)
}

// deliver speaks the reply and moves the dialogue through responding back
// to idle via the completion callback.
func (e *Engine) deliver(parsed *nlu.ParsedIntent, reply string) error {
	e.publishEvent(parsed, reply)

	if !e.machine.TryTransition(TransitionGenerateResponse) {
		return fmt.Errorf("dialogue state out of step while responding")
	}

	speakDone := make(chan struct{})
	onDone := func(bool) {
		e.machine.TryTransition(TransitionFinishResponse)
		close(speakDone)
	}
	if err := e.speaker.Speak(reply, onDone, false); err != nil {
		e.machine.ForceIdle()
		return fmt.Errorf("speaking response: %w", err)
	}

	// A farewell drops back to wake-word listening as soon as the goodbye
	// is dispatched; a cut-off goodbye must not leave the robot awake.
	if parsed.Intent == nlu.IntentFarewell {
		e.log.Info("Farewell received, returning to wake-word listening")
		e.setAwake(false)
		e.recognizer.SetRecognitionMode(stt.ModeWake)
		e.display.SetExpression(display.ExpressionSleeping)
	}

	e.watchSpeech(speakDone)
	return nil
}

// watchSpeech bounds one utterance's playback: if the synthesis
// collaborator never completes within the speech timeout, the utterance
// is cut off and the dialogue returns to idle.
func (e *Engine) watchSpeech(speakDone <-chan struct{}) {
	if e.cfg.SpeechTimeout <= 0 {
		return
	}
	go func() {
		select {
		case <-speakDone:
		case <-e.shutdownCh:
		case <-time.After(e.cfg.SpeechTimeout):
			e.log.WithField("timeout", e.cfg.SpeechTimeout).Warn("Speech output stalled, interrupting")
			e.speaker.Interrupt()
			e.machine.TryTransition(TransitionFinishResponse)
		}
	}()
}

func (e *Engine) publishEvent(parsed *nlu.ParsedIntent, reply string) {
	if e.publisher == nil {
		return
	}
	event := messaging.UtteranceEvent{
		Session:    e.session,
		Timestamp:  time.Now().UTC(),
		RawText:    parsed.RawText,
		Intent:     parsed.Intent,
		Confidence: parsed.Confidence,
		Entities:   parsed.Entities,
		Response:   reply,
	}
	if err := e.publisher.Publish(event); err != nil {
		e.log.WithError(err).Debug("Failed to publish utterance event")
	}
}

// handleLoopError recovers from one failed iteration. Repeated failures
// escalate: at the retry ceiling the robot announces the problem, drops
// back to wake-word listening and clears the count.
func (e *Engine) handleLoopError(err error) {
	e.consecutiveErrors++
	if metrics.LoopErrors != nil {
		metrics.LoopErrors.Inc()
	}
	e.log.WithError(err).WithField("consecutive_errors", e.consecutiveErrors).Error("Dialogue loop error")
	e.display.SetExpression(display.ExpressionError)

	if e.consecutiveErrors >= e.cfg.MaxErrorRetries {
		e.enterSleepMode()
	} else {
		e.trySpeak(apologyNotice, true)
		e.machine.ForceIdle()
	}

	select {
	case <-e.shutdownCh:
	case <-time.After(e.cfg.ErrorCooldown):
	}
}

func (e *Engine) enterSleepMode() {
	if metrics.SleepModeEntries != nil {
		metrics.SleepModeEntries.Inc()
	}
	e.log.Warn("Too many consecutive errors, entering sleep mode")

	e.machine.ForceIdle()
	e.setAwake(false)
	e.recognizer.SetRecognitionMode(stt.ModeWake)
	e.trySpeak(sleepNotice, true)
	e.display.SetExpression(display.ExpressionSleeping)
	e.consecutiveErrors = 0
}

// trySpeak speaks without letting synthesis failures escalate further.
func (e *Engine) trySpeak(text string, blocking bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithField("panic", r).Warn("Speaker panicked")
		}
	}()
	if err := e.speaker.Speak(text, nil, blocking); err != nil {
		e.log.WithError(err).Warn("Failed to speak")
	}
}
