package repository

import (
	"context"
	"os"
	"testing"

	"matchwise/backend/internal/config"
	"matchwise/backend/internal/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMatchRepository_Integration runs the live-pair rules against a real
// database. It requires DATABASE_URL to point at a disposable PostgreSQL.
func TestMatchRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg := config.TestConfig().Database
	cfg.URL = databaseURL

	if err := db.RunMigrations(cfg.URL, cfg.MigrationsPath); err != nil {
		t.Skipf("Could not migrate database: %v", err)
	}

	ctx := context.Background()
	database, err := db.NewDatabase(ctx, cfg)
	if err != nil {
		t.Skipf("Could not connect to database: %v", err)
	}
	defer database.Close()

	var requester, offerer uuid.UUID
	require.NoError(t, database.Pool.QueryRow(ctx,
		`INSERT INTO users (full_name, email, location) VALUES ('Requester', $1, 'Manila, Philippines') RETURNING id`,
		uuid.NewString()+"@example.com").Scan(&requester))
	require.NoError(t, database.Pool.QueryRow(ctx,
		`INSERT INTO users (full_name, email, location) VALUES ('Offerer', $1, 'Quezon City, Philippines') RETURNING id`,
		uuid.NewString()+"@example.com").Scan(&offerer))
	defer func() {
		for _, id := range []uuid.UUID{requester, offerer} {
			_, _ = database.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		}
	}()

	var requestID, offerID uuid.UUID
	require.NoError(t, database.Pool.QueryRow(ctx,
		`INSERT INTO listings (user_id, skill, type, availability) VALUES ($1, 'Accounting', 'request', 'Mon 14-16') RETURNING id`,
		requester).Scan(&requestID))
	require.NoError(t, database.Pool.QueryRow(ctx,
		`INSERT INTO listings (user_id, skill, type, availability) VALUES ($1, 'Accounting', 'offer', 'Mon 15-17') RETURNING id`,
		offerer).Scan(&offerID))

	matches := NewMatchRepository(database.Pool)
	listings := NewListingRepository(database.Pool)
	params := CreateMatchParams{RequestListingID: requestID, OfferListingID: offerID, Score: 80}

	t.Run("ActiveListingsFilter", func(t *testing.T) {
		offer := ListingTypeOffer
		skill := "Accounting"
		found, err := listings.GetActiveListings(ctx, ListingFilter{UserID: &offerer, Type: &offer, Skill: &skill})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, offerID, found[0].ID)
	})

	t.Run("LivePairIsUnique", func(t *testing.T) {
		first, err := matches.CreateMatch(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, MatchStatusPending, first.Status)

		_, err = matches.CreateMatch(ctx, params)
		assert.ErrorIs(t, err, db.ErrConflict)

		// A stale compare-and-set loses.
		_, err = matches.UpdateMatchStatus(ctx, first.ID, MatchStatusAccepted, MatchStatusCompleted)
		assert.ErrorIs(t, err, db.ErrConflict)

		declined, err := matches.UpdateMatchStatus(ctx, first.ID, MatchStatusPending, MatchStatusDeclined)
		require.NoError(t, err)
		assert.Equal(t, MatchStatusDeclined, declined.Status)

		second, err := matches.CreateMatch(ctx, params)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)

		listed, err := matches.ListMatchesForUser(ctx, requester)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, second.ID, listed[0].ID)
	})
}
