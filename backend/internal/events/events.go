// Package events publishes match lifecycle notifications over NATS so other
// services can react to new and changed matches.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NATS subjects for match lifecycle events.
const (
	SubjectMatchCreated       = "match.created"
	SubjectMatchStatusChanged = "match.status_changed"
)

// MatchEvent is the payload published for every lifecycle event.
type MatchEvent struct {
	MatchID          uuid.UUID  `json:"match_id"`
	RequestListingID uuid.UUID  `json:"request_listing_id"`
	OfferListingID   uuid.UUID  `json:"offer_listing_id"`
	Status           string     `json:"status"`
	PreviousStatus   string     `json:"previous_status,omitempty"`
	Score            float64    `json:"score"`
	ActingUserID     *uuid.UUID `json:"acting_user_id,omitempty"`
	OccurredAt       time.Time  `json:"occurred_at"`
}

// Publisher delivers match events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, subject string, event MatchEvent) error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(context.Context, string, MatchEvent) error {
	return nil
}
