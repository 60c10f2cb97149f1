// Package messaging publishes dialogue events to an AMQP broker so campus
// dashboards and analytics consumers can follow what the robot is asked.
package messaging

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// UtteranceEvent is one fully processed utterance as published to the
// queue.
type UtteranceEvent struct {
	Session    string                 `json:"session"`
	Timestamp  time.Time              `json:"timestamp"`
	RawText    string                 `json:"raw_text"`
	Intent     string                 `json:"intent"`
	Confidence float64                `json:"confidence"`
	Entities   map[string]interface{} `json:"entities,omitempty"`
	Response   string                 `json:"response,omitempty"`
}

// AMQPPublisher publishes utterance events to a single durable queue.
// Publishing is fire and forget; a broker outage never stalls the
// dialogue loop.
type AMQPPublisher struct {
	logger    *logrus.Entry
	url       string
	queueName string

	connMutex sync.RWMutex
	conn      *amqp.Connection
	channel   *amqp.Channel
	connected bool
}

// NewAMQPPublisher creates a publisher. Call Connect before publishing.
func NewAMQPPublisher(logger *logrus.Logger, url, queueName string) *AMQPPublisher {
	return &AMQPPublisher{
		logger:    logger.WithField("component", "amqp_publisher"),
		url:       url,
		queueName: queueName,
	}
}

// Connect dials the broker and declares the durable queue.
func (p *AMQPPublisher) Connect() error {
	p.connMutex.Lock()
	defer p.connMutex.Unlock()

	if p.connected {
		return nil
	}
	if p.url == "" || p.queueName == "" {
		return fmt.Errorf("AMQP URL or queue name not configured")
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dialing AMQP broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("opening AMQP channel: %w", err)
	}

	if _, err := channel.QueueDeclare(
		p.queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("declaring queue %s: %w", p.queueName, err)
	}

	p.conn = conn
	p.channel = channel
	p.connected = true
	p.logger.WithField("queue", p.queueName).Info("Connected to AMQP broker")
	return nil
}

// Publish sends one event. Returns an error when not connected or the
// broker rejects the publish; callers treat both as non-fatal.
func (p *AMQPPublisher) Publish(event UtteranceEvent) error {
	p.connMutex.RLock()
	defer p.connMutex.RUnlock()

	if !p.connected {
		return fmt.Errorf("AMQP publisher not connected")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding utterance event: %w", err)
	}

	if err := p.channel.Publish(
		"",          // default exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("publishing utterance event: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"intent":  event.Intent,
		"session": event.Session,
	}).Debug("Published utterance event")
	return nil
}

// Close tears the connection down.
func (p *AMQPPublisher) Close() {
	p.connMutex.Lock()
	defer p.connMutex.Unlock()

	if !p.connected {
		return
	}
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	p.connected = false
	p.logger.Info("AMQP publisher closed")
}
