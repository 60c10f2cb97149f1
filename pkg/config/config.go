// Package config loads the robot's configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Recognizer backends selectable via RECOGNIZER_BACKEND.
const (
	BackendConsole   = "console"
	BackendWebsocket = "websocket"
)

// Config is the complete runtime configuration.
type Config struct {
	// Wake word detection
	WakeWord          string
	WakeWordVariants  []string
	WakeWordThreshold int

	// Language understanding
	FuzzyThreshold      int
	MinInputWords       int
	MinIntentConfidence float64

	// Two-pass re-recognition
	GrammarRerecognitionEnabled bool
	EntityStrongMatchThreshold  int

	// Dialogue loop and error recovery
	MaxErrorRetries   int
	ErrorCooldown     time.Duration
	ResultPollTimeout time.Duration
	SpeechTimeout     time.Duration

	// Low-confidence telemetry
	LowConfidenceFloor      float64
	LowConfidenceLogEnabled bool
	LowConfidenceLogFile    string

	// Speech backend
	RecognizerBackend string
	RecognizerWSURL   string

	// Operational surface
	HTTPPort    int
	HTTPEnabled bool

	// Messaging
	AMQPUrl       string
	AMQPQueueName string

	// Logging
	LogLevel logrus.Level
}

// Load reads configuration from the environment. A missing .env file is
// fine; explicit environment variables always win.
func Load(logger *logrus.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.WithError(err).Debug("No .env file loaded, using environment only")
	}

	cfg := &Config{
		WakeWord:          strings.ToLower(getEnv("WAKE_WORD", "hey robot")),
		WakeWordThreshold: getEnvInt("WAKE_WORD_THRESHOLD", 85),

		FuzzyThreshold:      getEnvInt("FUZZY_THRESHOLD", 70),
		MinInputWords:       getEnvInt("MIN_INPUT_WORDS", 2),
		MinIntentConfidence: getEnvFloat("MIN_INTENT_CONFIDENCE", 0.4),

		GrammarRerecognitionEnabled: getEnvBool("GRAMMAR_RERECOGNITION_ENABLED", true),
		EntityStrongMatchThreshold:  getEnvInt("ENTITY_STRONG_MATCH_THRESHOLD", 80),

		MaxErrorRetries:   getEnvInt("MAX_ERROR_RETRIES", 5),
		ErrorCooldown:     getEnvDuration("ERROR_COOLDOWN", 2*time.Second),
		ResultPollTimeout: getEnvDuration("RESULT_POLL_TIMEOUT", 100*time.Millisecond),
		SpeechTimeout:     getEnvDuration("SPEECH_TIMEOUT", 300*time.Second),

		LowConfidenceFloor:      getEnvFloat("LOW_CONFIDENCE_FLOOR", 0.5),
		LowConfidenceLogEnabled: getEnvBool("LOW_CONFIDENCE_LOG_ENABLED", true),
		LowConfidenceLogFile:    getEnv("LOW_CONFIDENCE_LOG_FILE", "./logs/low_confidence.jsonl"),

		RecognizerBackend: strings.ToLower(getEnv("RECOGNIZER_BACKEND", BackendConsole)),
		RecognizerWSURL:   getEnv("RECOGNIZER_WS_URL", ""),

		HTTPPort:    getEnvInt("HTTP_PORT", 8080),
		HTTPEnabled: getEnvBool("HTTP_ENABLED", true),

		AMQPUrl:       getEnv("AMQP_URL", ""),
		AMQPQueueName: getEnv("AMQP_QUEUE_NAME", ""),
	}

	if variants := getEnv("WAKE_WORD_VARIANTS", ""); variants != "" {
		for _, v := range strings.Split(variants, ",") {
			if v = strings.TrimSpace(v); v != "" {
				cfg.WakeWordVariants = append(cfg.WakeWordVariants, strings.ToLower(v))
			}
		}
	}

	levelStr := getEnv("LOG_LEVEL", "info")
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		logger.WithField("level", levelStr).Warn("Invalid LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	cfg.LogLevel = level

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.WakeWord == "" {
		return fmt.Errorf("WAKE_WORD must not be empty")
	}
	if c.WakeWordThreshold < 1 || c.WakeWordThreshold > 100 {
		return fmt.Errorf("WAKE_WORD_THRESHOLD must be in 1..100, got %d", c.WakeWordThreshold)
	}
	if c.FuzzyThreshold < 1 || c.FuzzyThreshold > 100 {
		return fmt.Errorf("FUZZY_THRESHOLD must be in 1..100, got %d", c.FuzzyThreshold)
	}
	if c.EntityStrongMatchThreshold < 1 || c.EntityStrongMatchThreshold > 100 {
		return fmt.Errorf("ENTITY_STRONG_MATCH_THRESHOLD must be in 1..100, got %d", c.EntityStrongMatchThreshold)
	}
	if c.MinIntentConfidence < 0 || c.MinIntentConfidence > 1 {
		return fmt.Errorf("MIN_INTENT_CONFIDENCE must be in 0..1, got %v", c.MinIntentConfidence)
	}
	if c.LowConfidenceFloor < 0 || c.LowConfidenceFloor > 1 {
		return fmt.Errorf("LOW_CONFIDENCE_FLOOR must be in 0..1, got %v", c.LowConfidenceFloor)
	}
	if c.MaxErrorRetries < 1 {
		return fmt.Errorf("MAX_ERROR_RETRIES must be positive, got %d", c.MaxErrorRetries)
	}
	if c.MinInputWords < 1 {
		return fmt.Errorf("MIN_INPUT_WORDS must be positive, got %d", c.MinInputWords)
	}
	if c.ResultPollTimeout <= 0 {
		return fmt.Errorf("RESULT_POLL_TIMEOUT must be positive, got %v", c.ResultPollTimeout)
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be a valid port, got %d", c.HTTPPort)
	}
	switch c.RecognizerBackend {
	case BackendConsole:
	case BackendWebsocket:
		if c.RecognizerWSURL == "" {
			return fmt.Errorf("RECOGNIZER_WS_URL required for the websocket backend")
		}
	default:
		return fmt.Errorf("unknown RECOGNIZER_BACKEND %q", c.RecognizerBackend)
	}
	return nil
}

// Helper function to get an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Helper function to get a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	switch strings.ToLower(value) {
	case "true", "yes", "1", "on":
		return true
	case "false", "no", "0", "off":
		return false
	default:
		return defaultValue
	}
}

// Helper function to get an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// Helper function to get a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

// getEnvFloat retrieves an environment variable and converts it to float64
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}
