package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"matchwise/backend/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MatchStatus is the lifecycle state of a match.
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusAccepted  MatchStatus = "accepted"
	MatchStatusDeclined  MatchStatus = "declined"
	MatchStatusCompleted MatchStatus = "completed"
)

// Valid reports whether s is a known match status.
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPending, MatchStatusAccepted, MatchStatusDeclined, MatchStatusCompleted:
		return true
	}
	return false
}

// ParseMatchStatus parses a case-insensitive match status.
func ParseMatchStatus(s string) (MatchStatus, error) {
	status := MatchStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown match status %q", s)
	}
	return status, nil
}

// CanTransitionTo reports whether a match may move from s to next. The legal
// moves are pending to accepted or declined, and accepted to completed.
func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	switch s {
	case MatchStatusPending:
		return next == MatchStatusAccepted || next == MatchStatusDeclined
	case MatchStatusAccepted:
		return next == MatchStatusCompleted
	case MatchStatusDeclined, MatchStatusCompleted:
		return false
	default:
		return false
	}
}

// IsTerminal reports whether no transition leaves s.
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusDeclined || s == MatchStatusCompleted
}

type Match struct {
	ID               uuid.UUID   `json:"id"`
	RequestListingID uuid.UUID   `json:"request_listing_id"`
	OfferListingID   uuid.UUID   `json:"offer_listing_id"`
	Score            float64     `json:"match_score"`
	Status           MatchStatus `json:"status"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

type CreateMatchParams struct {
	RequestListingID uuid.UUID
	OfferListingID   uuid.UUID
	Score            float64
}

type MatchRepository struct {
	db DBTX
}

func NewMatchRepository(conn DBTX) *MatchRepository {
	return &MatchRepository{db: conn}
}

const matchColumns = `id, request_listing_id, offer_listing_id, score, status, created_at, updated_at`

func scanMatch(row pgx.Row) (Match, error) {
	var (
		m      Match
		status string
	)
	if err := row.Scan(
		&m.ID,
		&m.RequestListingID,
		&m.OfferListingID,
		&m.Score,
		&status,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return Match{}, err
	}
	m.Status = MatchStatus(status)
	return m, nil
}

// CreateMatch inserts a pending match. The insert and the uniqueness check
// are one statement; if a non-declined match already exists for the pair,
// db.ErrConflict is returned and nothing is written.
func (r *MatchRepository) CreateMatch(ctx context.Context, p CreateMatchParams) (*Match, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO matches (request_listing_id, offer_listing_id, score, status)
		VALUES ($1, $2, $3, 'pending')
		ON CONFLICT (request_listing_id, offer_listing_id) WHERE status <> 'declined' DO NOTHING
		RETURNING `+matchColumns,
		p.RequestListingID, p.OfferListingID, p.Score,
	)
	match, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || db.IsUniqueViolation(err) {
			return nil, db.ErrConflict
		}
		return nil, fmt.Errorf("create match: %w", err)
	}
	return &match, nil
}

// GetMatch returns a match by id.
func (r *MatchRepository) GetMatch(ctx context.Context, id uuid.UUID) (*Match, error) {
	row := r.db.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	match, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("get match: %w", err)
	}
	return &match, nil
}

// UpdateMatchStatus moves a match from one status to another. The write only
// happens if the stored status still equals from; otherwise db.ErrConflict
// is returned.
func (r *MatchRepository) UpdateMatchStatus(ctx context.Context, id uuid.UUID, from, to MatchStatus) (*Match, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE matches
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+matchColumns,
		id, string(from), string(to),
	)
	match, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || db.IsUniqueViolation(err) {
			return nil, db.ErrConflict
		}
		return nil, fmt.Errorf("update match status: %w", err)
	}
	return &match, nil
}

// ListMatchesForUser returns every match in which the user owns the request
// or the offer listing, newest first.
func (r *MatchRepository) ListMatchesForUser(ctx context.Context, userID uuid.UUID) ([]Match, error) {
	rows, err := r.db.Query(ctx, `
		SELECT m.id, m.request_listing_id, m.offer_listing_id, m.score, m.status, m.created_at, m.updated_at
		FROM matches m
		JOIN listings rl ON rl.id = m.request_listing_id
		JOIN listings ol ON ol.id = m.offer_listing_id
		WHERE rl.user_id = $1 OR ol.user_id = $1
		ORDER BY m.created_at DESC, m.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	matches := []Match{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return matches, nil
}
