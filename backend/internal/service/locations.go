package service

import (
	"context"
	"strings"

	"matchwise/backend/internal/logger"
	"matchwise/backend/internal/matching"
	"matchwise/backend/internal/repository"

	"github.com/google/uuid"
)

// locationBook resolves where a listing takes place. A listing without its
// own location inherits its owner's profile location. Owner lookups are
// remembered for the lifetime of the book.
type locationBook struct {
	listings listingStore
	owners   map[uuid.UUID]string
}

func newLocationBook(listings listingStore) *locationBook {
	return &locationBook{listings: listings, owners: make(map[uuid.UUID]string)}
}

func (b *locationBook) location(ctx context.Context, l repository.Listing) string {
	if strings.TrimSpace(l.Location) != "" {
		return l.Location
	}
	if loc, ok := b.owners[l.OwnerID]; ok {
		return loc
	}

	loc, err := b.listings.GetUserLocation(ctx, l.OwnerID)
	if err != nil {
		logger.Debug().
			Err(err).
			Str("user_id", l.OwnerID.String()).
			Msg("No profile location for listing owner")
		loc = ""
	}
	b.owners[l.OwnerID] = loc
	return loc
}

// collect returns the effective locations of listings.
func (b *locationBook) collect(ctx context.Context, listings []repository.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, b.location(ctx, l))
	}
	return out
}

func (b *locationBook) profile(ctx context.Context, l repository.Listing) matching.Profile {
	return matching.Profile{
		Skill:    l.Skill,
		Slots:    matching.ParseAvailability(l.Availability),
		Location: b.location(ctx, l),
	}
}
