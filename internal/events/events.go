// Package events publishes generation run events to NATS JetStream.
//
// Publishing is optional. When no NATS URL is configured NewPublisher
// returns a nil Publisher, and all methods on a nil Publisher are no-ops.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/codesearch/internal/config"
	"git.home.luguber.info/inful/codesearch/internal/logfields"
)

// RunEvent describes one profile's result within a generation run.
type RunEvent struct {
	RunID      string    `json:"run_id"`
	Profile    string    `json:"profile"`
	Outcome    string    `json:"outcome"`
	Repos      int       `json:"repositories"`
	Changed    bool      `json:"changed"`
	Restarted  bool      `json:"restarted"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher manages the NATS connection and stream for run events.
type Publisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
	stream  string
}

// NewPublisher connects to NATS and ensures the run event stream exists.
// An empty URL disables publishing and returns a nil Publisher.
func NewPublisher(cfg config.NATSConfig) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	publisher := &Publisher{
		conn:    conn,
		js:      js,
		subject: cfg.Subject,
		stream:  cfg.Stream,
	}

	if err := publisher.initStream(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize stream: %w", err)
	}

	slog.Info("NATS publisher initialized for run events",
		logfields.URL(cfg.URL),
		slog.String("subject", cfg.Subject),
		slog.String("stream", cfg.Stream))

	return publisher, nil
}

// initStream creates the run event stream if it does not exist yet.
func (p *Publisher) initStream() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := p.js.Stream(ctx, p.stream); err == nil {
		return nil
	}

	_, err := p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        p.stream,
		Description: "Codesearch generation run events",
		Subjects:    []string{p.subject},
		MaxAge:      7 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	slog.Info("Created stream for run events", slog.String("stream", p.stream))
	return nil
}

// PublishRun publishes one run event.
func (p *Publisher) PublishRun(event *RunEvent) error {
	if p == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.Debug("Published run event",
		logfields.RunID(event.RunID),
		logfields.Profile(event.Profile),
		slog.String("outcome", event.Outcome))

	return nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
