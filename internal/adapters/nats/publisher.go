package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/tourmap/internal/core/domain"
)

// Stream and subject layout for explorer events. The city is not part of the
// subject: consumers filter on kind only.
const (
	StreamExplorerEvents = "EXPLORER_EVENTS"
	SubjectPrefix        = "explorer."
	subjectAll           = SubjectPrefix + ">"
)

// Subject returns the subject an event kind is published on.
func Subject(kind domain.ExplorerEventKind) string {
	return SubjectPrefix + string(kind)
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := ensureStream(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	cfg := &nats.StreamConfig{
		Name:      StreamExplorerEvents,
		Subjects:  []string{subjectAll},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, event *domain.ExplorerEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(Subject(event.Kind))
	msg.Data = data
	// Redeliveries of the same event are dropped by the stream.
	msg.Header.Set(nats.MsgIdHdr, event.ID)
	_, err = p.js.PublishMsg(msg, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishPlaceSelected(ctx context.Context, event *domain.ExplorerEvent) error {
	return p.publish(ctx, event)
}

func (p *Publisher) PublishRouteDrawn(ctx context.Context, event *domain.ExplorerEvent) error {
	return p.publish(ctx, event)
}

func (p *Publisher) PublishGeolocationFailed(ctx context.Context, event *domain.ExplorerEvent) error {
	return p.publish(ctx, event)
}

// Connected reports whether the underlying connection is up.
func (p *Publisher) Connected() bool {
	return p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// Connect opens a NATS connection that keeps reconnecting forever.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}
