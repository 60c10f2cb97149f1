package dialog

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-robot/pkg/config"
	"campus-robot/pkg/knowledge"
	"campus-robot/pkg/messaging"
	"campus-robot/pkg/nlu"
	"campus-robot/pkg/stt"
	"campus-robot/pkg/telemetry"
	"campus-robot/pkg/tts"
	"campus-robot/pkg/wake"
)

// scriptSpeaker records utterances and completes synchronously, so a full
// speak cycle finishes within one loop iteration. With cutOff set every
// utterance reports completed=false, as an interrupted playback would.
type scriptSpeaker struct {
	mu         sync.Mutex
	utterances []string
	failNext   bool
	cutOff     bool
}

func (s *scriptSpeaker) Speak(text string, onComplete tts.CompletionFunc, blocking bool) error {
	s.mu.Lock()
	fail := s.failNext
	s.failNext = false
	cutOff := s.cutOff
	if !fail {
		s.utterances = append(s.utterances, text)
	}
	s.mu.Unlock()

	if fail {
		return errors.New("synthesis failed")
	}
	if onComplete != nil {
		onComplete(!cutOff)
	}
	return nil
}

func (s *scriptSpeaker) Interrupt() {}

func (s *scriptSpeaker) spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.utterances))
	copy(out, s.utterances)
	return out
}

type failingResponder struct{}

func (failingResponder) Respond(*nlu.ParsedIntent) (string, error) {
	return "", errors.New("knowledge backend unavailable")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.UtteranceEvent
}

func (p *recordingPublisher) Publish(event messaging.UtteranceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		WakeWord:                    "hey robot",
		WakeWordThreshold:           85,
		FuzzyThreshold:              70,
		MinInputWords:               2,
		MinIntentConfidence:         0.4,
		GrammarRerecognitionEnabled: false,
		EntityStrongMatchThreshold:  80,
		MaxErrorRetries:             5,
		ErrorCooldown:               time.Millisecond,
		ResultPollTimeout:           20 * time.Millisecond,
		LowConfidenceFloor:          0.5,
	}
}

func newTestEngine(t *testing.T, cfg *config.Config, opts Options) (*Engine, *stt.MockRecognizer, *scriptSpeaker) {
	t.Helper()
	logger := newTestLogger()

	recognizer := stt.NewMockRecognizer()
	speaker := &scriptSpeaker{}
	dir := knowledge.SampleDirectory()

	if opts.Recognizer == nil {
		opts.Recognizer = recognizer
	}
	if opts.Speaker == nil {
		opts.Speaker = speaker
	}
	if opts.Parser == nil {
		opts.Parser = nlu.NewParser(logger, dir.LocationNames(), dir.FacultyNames(), dir.DepartmentNames(), cfg.FuzzyThreshold)
	}
	if opts.Wake == nil {
		opts.Wake = wake.NewDetector(logger, cfg.WakeWord, cfg.WakeWordVariants, cfg.WakeWordThreshold)
	}
	if opts.Responder == nil {
		opts.Responder = knowledge.NewStaticResponder()
	}

	return NewEngine(logger, cfg, opts), recognizer, speaker
}

func TestEngine_WakeQueryFarewellCycle(t *testing.T) {
	cfg := testConfig()
	publisher := &recordingPublisher{}
	e, recognizer, speaker := newTestEngine(t, cfg, Options{Publisher: publisher})

	assert.False(t, e.IsAwake())
	assert.Equal(t, "idle", e.StateName())
	assert.Len(t, e.Session(), 8)

	// Wake phrase: robot wakes, switches to open recognition, greets.
	recognizer.Push("hey robot", 0.9)
	require.NoError(t, e.runIteration())
	assert.True(t, e.IsAwake())
	assert.Equal(t, []stt.RecognitionMode{stt.ModeOpen}, recognizer.Modes())
	require.NotEmpty(t, speaker.spoken())
	assert.Equal(t, wakeAcknowledgement, speaker.spoken()[0])

	// A query: parsed, answered, state back to idle after speaking.
	recognizer.Push("vhere is the liberry", 0.9)
	require.NoError(t, e.runIteration())
	spoken := speaker.spoken()
	require.Len(t, spoken, 2)
	assert.Contains(t, spoken[1], "Central Library")
	assert.Equal(t, StateIdle, e.machine.Current())
	assert.True(t, e.IsAwake())

	// The event stream saw the utterance.
	require.Len(t, publisher.events, 1)
	assert.Equal(t, nlu.IntentNavigation, publisher.events[0].Intent)
	assert.Equal(t, "vhere is the liberry", publisher.events[0].RawText)
	assert.Equal(t, e.Session(), publisher.events[0].Session)

	// Farewell: robot answers, then drops back to wake-word listening.
	recognizer.Push("goodbye for now", 0.9)
	require.NoError(t, e.runIteration())
	assert.False(t, e.IsAwake())
	modes := recognizer.Modes()
	assert.Equal(t, stt.ModeWake, modes[len(modes)-1])
	assert.Equal(t, StateIdle, e.machine.Current())
}

func TestEngine_FarewellSleepsEvenWhenGoodbyeCutOff(t *testing.T) {
	cfg := testConfig()
	speaker := &scriptSpeaker{cutOff: true}
	e, recognizer, _ := newTestEngine(t, cfg, Options{Speaker: speaker})

	recognizer.Push("hey robot", 0.9)
	require.NoError(t, e.runIteration())
	require.True(t, e.IsAwake())

	// The goodbye playback is interrupted, but the robot still drops back
	// to wake-word listening.
	recognizer.Push("goodbye for now", 0.9)
	require.NoError(t, e.runIteration())
	assert.False(t, e.IsAwake())
	modes := recognizer.Modes()
	assert.Equal(t, stt.ModeWake, modes[len(modes)-1])
	assert.Equal(t, StateIdle, e.machine.Current())
}

// holdSpeaker parks the completion callback so a response stays in flight
// until the test releases it.
type holdSpeaker struct {
	mu         sync.Mutex
	utterances []string
	onComplete tts.CompletionFunc
}

func (s *holdSpeaker) Speak(text string, onComplete tts.CompletionFunc, blocking bool) error {
	s.mu.Lock()
	s.utterances = append(s.utterances, text)
	s.onComplete = onComplete
	s.mu.Unlock()
	return nil
}

func (s *holdSpeaker) Interrupt() {}

func (s *holdSpeaker) release() {
	s.mu.Lock()
	cb := s.onComplete
	s.onComplete = nil
	s.mu.Unlock()
	if cb != nil {
		cb(true)
	}
}

func (s *holdSpeaker) spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.utterances))
	copy(out, s.utterances)
	return out
}

func TestEngine_SpeechDuringResponseIsAnsweredAfter(t *testing.T) {
	cfg := testConfig()
	cfg.ResultPollTimeout = time.Millisecond
	speaker := &holdSpeaker{}
	e, recognizer, _ := newTestEngine(t, cfg, Options{Speaker: speaker})

	recognizer.Push("hey robot", 0.9)
	require.NoError(t, e.runIteration())

	recognizer.Push("where is the canteen", 0.9)
	require.NoError(t, e.runIteration())
	assert.Equal(t, StateResponding, e.machine.Current())

	// Heard while still speaking: the utterance stays queued.
	recognizer.Push("where is the library", 0.9)
	require.NoError(t, e.runIteration())
	assert.Equal(t, StateResponding, e.machine.Current())

	speaker.release()
	assert.Equal(t, StateIdle, e.machine.Current())

	// The queued utterance is answered on the next iteration.
	require.NoError(t, e.runIteration())
	speaker.release()
	spoken := speaker.spoken()
	require.Len(t, spoken, 3)
	assert.Contains(t, spoken[2], "Central Library")
}

func TestEngine_IgnoresSpeechWhileAsleep(t *testing.T) {
	cfg := testConfig()
	e, recognizer, speaker := newTestEngine(t, cfg, Options{})

	recognizer.Push("where is the library", 0.9)
	require.NoError(t, e.runIteration())
	assert.False(t, e.IsAwake())
	assert.Empty(t, speaker.spoken())
}

func TestEngine_MinWordsGate(t *testing.T) {
	cfg := testConfig()
	e, recognizer, speaker := newTestEngine(t, cfg, Options{})

	recognizer.Push("hey robot", 0.9)
	require.NoError(t, e.runIteration())

	recognizer.Push("library", 0.9)
	require.NoError(t, e.runIteration())

	// Only the wake acknowledgement was spoken.
	assert.Len(t, speaker.spoken(), 1)
	assert.Equal(t, StateIdle, e.machine.Current())
}

func TestEngine_EmptyPollIsQuiet(t *testing.T) {
	cfg := testConfig()
	cfg.ResultPollTimeout = 5 * time.Millisecond
	e, _, speaker := newTestEngine(t, cfg, Options{})

	require.NoError(t, e.runIteration())
	assert.Empty(t, speaker.spoken())
	assert.Equal(t, StateIdle, e.machine.Current())
}

func TestEngine_UnplaceableInputAsksForRephrase(t *testing.T) {
	cfg := testConfig()
	e, recognizer, speaker := newTestEngine(t, cfg, Options{})

	recognizer.Push("hey robot", 0.9)
	require.NoError(t, e.runIteration())

	recognizer.Push("zzz qqq xxx", 0.9)
	require.NoError(t, e.runIteration())

	spoken := speaker.spoken()
	require.Len(t, spoken, 2)
	assert.Equal(t, rephrasePrompt, spoken[1])
	assert.Equal(t, StateIdle, e.machine.Current())
}

func TestEngine_ConfidentIntentAnsweredDespiteHighFloor(t *testing.T) {
	// The confidence floor only concerns unplaceable input; an intent the
	// classifier did place is answered even below the floor.
	cfg := testConfig()
	cfg.MinIntentConfidence = 0.99
	e, recognizer, speaker := newTestEngine(t, cfg, Options{})

	recognizer.Push("hey robot", 0.9)
	require.NoError(t, e.runIteration())

	recognizer.Push("where is the library", 0.9)
	require.NoError(t, e.runIteration())

	spoken := speaker.spoken()
	require.Len(t, spoken, 2)
	assert.Contains(t, spoken[1], "Central Library")
}

func TestEngine_LowConfidenceRecognitionRecorded(t *testing.T) {
	cfg := testConfig()
	path := filepath.Join(t.TempDir(), "low_confidence.jsonl")
	logger := newTestLogger()
	e, recognizer, _ := newTestEngine(t, cfg, Options{
		LowConfidence: telemetry.NewLowConfidenceLog(logger, path, "test1234"),
	})

	recognizer.Push("mumbled something", 0.2)
	require.NoError(t, e.runIteration())

	// A result carrying no confidence at all is below the floor too.
	recognizer.Push("inaudible whisper", 0)
	require.NoError(t, e.runIteration())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mumbled something")
	assert.Contains(t, string(data), "inaudible whisper")
}

func TestEngine_ErrorEscalatesToSleepMode(t *testing.T) {
	cfg := testConfig()
	e, recognizer, speaker := newTestEngine(t, cfg, Options{Responder: failingResponder{}})

	recognizer.Push("hey robot", 0.9)
	require.NoError(t, e.runIteration())
	require.True(t, e.IsAwake())

	for i := 0; i < cfg.MaxErrorRetries; i++ {
		recognizer.Push("where is the library", 0.9)
		err := e.runIteration()
		require.Error(t, err, "iteration %d", i)
		e.handleLoopError(err)
	}

	// The ceiling forced sleep mode: asleep, wake-biased recognition,
	// spoken notice, counter cleared for the next session.
	assert.False(t, e.IsAwake())
	modes := recognizer.Modes()
	assert.Equal(t, stt.ModeWake, modes[len(modes)-1])
	assert.Equal(t, StateIdle, e.machine.Current())
	assert.Zero(t, e.consecutiveErrors)

	spoken := speaker.spoken()
	var apologies, sleepNotices int
	for _, s := range spoken {
		switch s {
		case apologyNotice:
			apologies++
		case sleepNotice:
			sleepNotices++
		}
	}
	assert.Equal(t, cfg.MaxErrorRetries-1, apologies)
	assert.Equal(t, 1, sleepNotices)
}

func TestEngine_RecoversAfterSingleError(t *testing.T) {
	cfg := testConfig()
	e, recognizer, speaker := newTestEngine(t, cfg, Options{})

	recognizer.Push("hey robot", 0.9)
	require.NoError(t, e.runIteration())

	// One failed synthesis, then a healthy turn.
	speaker.failNext = true
	recognizer.Push("where is the canteen", 0.9)
	err := e.runIteration()
	require.Error(t, err)
	e.handleLoopError(err)
	assert.Equal(t, 1, e.consecutiveErrors)
	assert.Equal(t, StateIdle, e.machine.Current())

	recognizer.Push("where is the canteen", 0.9)
	require.NoError(t, e.runIteration())
	assert.Zero(t, e.consecutiveErrors)
	assert.Contains(t, speaker.spoken()[len(speaker.spoken())-1], "Canteen")
}

func TestEngine_PanicInRecognizerIsContained(t *testing.T) {
	cfg := testConfig()
	e, _, _ := newTestEngine(t, cfg, Options{Recognizer: panickyRecognizer{}})

	err := e.runIteration()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}

type panickyRecognizer struct{}

func (panickyRecognizer) GetResult(time.Duration) *stt.RecognitionResult {
	panic("microphone exploded")
}

func (panickyRecognizer) RecognizeWithGrammar([]string) (*stt.RecognitionResult, error) {
	return nil, errors.New("unsupported")
}

func (panickyRecognizer) SetRecognitionMode(stt.RecognitionMode) {}

// silentSpeaker accepts utterances but never reports completion,
// imitating a stalled synthesis backend.
type silentSpeaker struct {
	mu          sync.Mutex
	interrupted bool
}

func (s *silentSpeaker) Speak(string, tts.CompletionFunc, bool) error { return nil }

func (s *silentSpeaker) Interrupt() {
	s.mu.Lock()
	s.interrupted = true
	s.mu.Unlock()
}

func (s *silentSpeaker) wasInterrupted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interrupted
}

func TestEngine_StalledSpeechIsCutOff(t *testing.T) {
	cfg := testConfig()
	cfg.SpeechTimeout = 30 * time.Millisecond
	speaker := &silentSpeaker{}
	e, recognizer, _ := newTestEngine(t, cfg, Options{Speaker: speaker})

	recognizer.Push("hey robot", 0.9)
	require.NoError(t, e.runIteration())

	recognizer.Push("where is the library", 0.9)
	require.NoError(t, e.runIteration())
	assert.Equal(t, StateResponding, e.machine.Current())

	assert.Eventually(t, func() bool {
		return e.machine.Current() == StateIdle
	}, time.Second, 10*time.Millisecond)
	assert.True(t, speaker.wasInterrupted())
}

func TestEngine_ShutdownStopsRun(t *testing.T) {
	cfg := testConfig()
	cfg.ResultPollTimeout = 5 * time.Millisecond
	e, _, _ := newTestEngine(t, cfg, Options{})

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	e.Shutdown()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("engine did not stop after shutdown")
	}

	// Shutdown is idempotent.
	assert.NotPanics(t, func() { e.Shutdown() })
}
