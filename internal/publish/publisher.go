// Package publish emits execution events to NATS JetStream for downstream
// consumers (dashboards, competition settlement jobs).
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	StreamName    = "PAPER_EXECUTIONS"
	subjectPrefix = "paper.executions."
)

// ExecutionEvent is the wire form of one confirmed or failed execution.
type ExecutionEvent struct {
	OperationID string    `json:"operation_id"`
	Operation   string    `json:"operation"`
	Path        string    `json:"path"`
	Owner       string    `json:"owner"`
	Signature   string    `json:"signature,omitempty"`
	Outcome     string    `json:"outcome"`
	Detail      string    `json:"detail,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher writes events to the PAPER_EXECUTIONS stream.
type Publisher struct {
	js  nats.JetStreamContext
	log zerolog.Logger
}

func Connect(url string, log zerolog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("papertrade"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}
	return &Publisher{js: js, log: log}, nil
}

// EnsureStream creates the execution stream if it does not exist.
func (p *Publisher) EnsureStream() error {
	_, err := p.js.StreamInfo(StreamName)
	if err == nil {
		return nil
	}
	_, err = p.js.AddStream(&nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{subjectPrefix + ">"},
		Retention: nats.LimitsPolicy,
		MaxAge:    30 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", StreamName, err)
	}
	return nil
}

func (p *Publisher) Publish(ctx context.Context, ev ExecutionEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal execution event: %w", err)
	}
	subject := subjectPrefix + ev.Operation
	if _, err := p.js.Publish(subject, payload, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
