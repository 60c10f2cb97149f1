package config

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newTestLogger())
	require.NoError(t, err)

	assert.Equal(t, "hey robot", cfg.WakeWord)
	assert.Equal(t, 85, cfg.WakeWordThreshold)
	assert.Equal(t, 70, cfg.FuzzyThreshold)
	assert.Equal(t, 2, cfg.MinInputWords)
	assert.Equal(t, 0.4, cfg.MinIntentConfidence)
	assert.True(t, cfg.GrammarRerecognitionEnabled)
	assert.Equal(t, 80, cfg.EntityStrongMatchThreshold)
	assert.Equal(t, 5, cfg.MaxErrorRetries)
	assert.Equal(t, 2*time.Second, cfg.ErrorCooldown)
	assert.Equal(t, 100*time.Millisecond, cfg.ResultPollTimeout)
	assert.Equal(t, 0.5, cfg.LowConfidenceFloor)
	assert.True(t, cfg.LowConfidenceLogEnabled)
	assert.Equal(t, BackendConsole, cfg.RecognizerBackend)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("WAKE_WORD", "Hello Campus")
	t.Setenv("WAKE_WORD_VARIANTS", "helo campus, hallo campus ,")
	t.Setenv("WAKE_WORD_THRESHOLD", "90")
	t.Setenv("FUZZY_THRESHOLD", "75")
	t.Setenv("MIN_INTENT_CONFIDENCE", "0.6")
	t.Setenv("GRAMMAR_RERECOGNITION_ENABLED", "false")
	t.Setenv("ERROR_COOLDOWN", "500ms")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(newTestLogger())
	require.NoError(t, err)

	assert.Equal(t, "hello campus", cfg.WakeWord)
	assert.Equal(t, []string{"helo campus", "hallo campus"}, cfg.WakeWordVariants)
	assert.Equal(t, 90, cfg.WakeWordThreshold)
	assert.Equal(t, 75, cfg.FuzzyThreshold)
	assert.Equal(t, 0.6, cfg.MinIntentConfidence)
	assert.False(t, cfg.GrammarRerecognitionEnabled)
	assert.Equal(t, 500*time.Millisecond, cfg.ErrorCooldown)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("WAKE_WORD_THRESHOLD", "not-a-number")
	t.Setenv("ERROR_COOLDOWN", "soon")
	t.Setenv("LOG_LEVEL", "shouting")

	cfg, err := Load(newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, 85, cfg.WakeWordThreshold)
	assert.Equal(t, 2*time.Second, cfg.ErrorCooldown)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
}

func TestLoad_ValidationErrors(t *testing.T) {
	t.Setenv("WAKE_WORD_THRESHOLD", "150")
	_, err := Load(newTestLogger())
	assert.Error(t, err)
}

func TestLoad_WebsocketBackendRequiresURL(t *testing.T) {
	t.Setenv("RECOGNIZER_BACKEND", "websocket")
	_, err := Load(newTestLogger())
	assert.Error(t, err)

	t.Setenv("RECOGNIZER_WS_URL", "ws://localhost:9090/stt")
	cfg, err := Load(newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, BackendWebsocket, cfg.RecognizerBackend)
}

func TestLoad_UnknownBackendRejected(t *testing.T) {
	t.Setenv("RECOGNIZER_BACKEND", "telepathy")
	_, err := Load(newTestLogger())
	assert.Error(t, err)
}
