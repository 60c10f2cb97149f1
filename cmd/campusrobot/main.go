package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"campus-robot/pkg/config"
	"campus-robot/pkg/dialog"
	"campus-robot/pkg/display"
	http_server "campus-robot/pkg/http"
	"campus-robot/pkg/knowledge"
	"campus-robot/pkg/messaging"
	"campus-robot/pkg/metrics"
	"campus-robot/pkg/nlu"
	"campus-robot/pkg/stt"
	"campus-robot/pkg/telemetry"
	"campus-robot/pkg/tts"
	"campus-robot/pkg/wake"
)

var logger = logrus.New()

func main() {
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load(logger)
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	logger.SetLevel(cfg.LogLevel)

	metrics.Init(logger)

	directory := knowledge.SampleDirectory()
	parser := nlu.NewParser(logger, directory.LocationNames(), directory.FacultyNames(),
		directory.DepartmentNames(), cfg.FuzzyThreshold)
	detector := wake.NewDetector(logger, cfg.WakeWord, cfg.WakeWordVariants, cfg.WakeWordThreshold)

	recognizer, cleanup, err := buildRecognizer(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to start speech recognizer")
	}

	var publisher dialog.EventPublisher
	var amqpPublisher *messaging.AMQPPublisher
	if cfg.AMQPUrl != "" && cfg.AMQPQueueName != "" {
		amqpPublisher = messaging.NewAMQPPublisher(logger, cfg.AMQPUrl, cfg.AMQPQueueName)
		if err := amqpPublisher.Connect(); err != nil {
			logger.WithError(err).Warn("AMQP broker unavailable, running without event publishing")
			amqpPublisher = nil
		} else {
			publisher = amqpPublisher
		}
	}

	speaker := tts.NewLogSpeaker(logger)
	engine := dialog.NewEngine(logger, cfg, dialog.Options{
		Recognizer: recognizer,
		Speaker:    speaker,
		Parser:     parser,
		Wake:       detector,
		Responder:  knowledge.NewStaticResponder(),
		Display:    display.NewLog(logger),
		Publisher:  publisher,
	})
	if cfg.LowConfidenceLogEnabled {
		engine.SetLowConfidenceLog(telemetry.NewLowConfidenceLog(logger, cfg.LowConfidenceLogFile, engine.Session()))
	}

	var httpServer *http_server.Server
	if cfg.HTTPEnabled {
		httpServer = http_server.NewServer(logger, cfg.HTTPPort, engine)
		httpServer.Start()
	}

	go engine.Run()
	logger.WithFields(logrus.Fields{
		"session":   engine.Session(),
		"wake_word": cfg.WakeWord,
		"backend":   cfg.RecognizerBackend,
	}).Info("Campus robot ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.WithField("signal", sig.String()).Info("Shutting down")

	if err := speaker.Speak("Goodbye! Shutting down now.", nil, true); err != nil {
		logger.WithError(err).Warn("Farewell announcement failed")
	}
	engine.Shutdown()
	if httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("HTTP server shutdown failed")
		}
		cancel()
	}
	if amqpPublisher != nil {
		amqpPublisher.Close()
	}
	if cleanup != nil {
		cleanup()
	}
	logger.Info("Shutdown complete")
}

// buildRecognizer creates the configured speech backend and a cleanup
// function for shutdown.
func buildRecognizer(cfg *config.Config) (stt.Recognizer, func(), error) {
	switch cfg.RecognizerBackend {
	case config.BackendWebsocket:
		remote, err := stt.NewRemoteRecognizer(logger, cfg.RecognizerWSURL)
		if err != nil {
			return nil, nil, err
		}
		return remote, func() {
			if err := remote.Close(); err != nil {
				logger.WithError(err).Warn("Recognizer close failed")
			}
		}, nil
	default:
		return stt.NewConsoleRecognizer(logger), nil, nil
	}
}
