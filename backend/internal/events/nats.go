package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"matchwise/backend/internal/config"
	"matchwise/backend/internal/logger"

	"github.com/nats-io/nats.go"
)

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes match events as JSON on NATS subjects.
type NATSPublisher struct {
	conn conn
}

// NewNATSPublisher connects to NATS and returns a ready publisher. It returns
// an error if the initial connection fails.
func NewNATSPublisher(cfg config.NATSConfig) (*NATSPublisher, error) {
	log := logger.Component("nats")

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("Disconnected from NATS")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("Reconnected to NATS")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	log.Info().Str("url", nc.ConnectedUrl()).Msg("Connected to NATS")
	return &NATSPublisher{conn: nc}, nil
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(_ context.Context, subject string, event MatchEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: marshal %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("events: publish %s: %w", subject, err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		logger.Warn().Err(err).Msg("NATS drain failed")
	}
}
