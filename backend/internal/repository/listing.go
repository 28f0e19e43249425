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
	"github.com/jackc/pgx/v5/pgtype"
)

// ListingType says whether a listing offers or requests a skill.
type ListingType string

const (
	ListingTypeOffer   ListingType = "offer"
	ListingTypeRequest ListingType = "request"
)

// Valid reports whether t is a known listing type.
func (t ListingType) Valid() bool {
	switch t {
	case ListingTypeOffer, ListingTypeRequest:
		return true
	}
	return false
}

// Opposite returns the type a listing of type t is matched against.
func (t ListingType) Opposite() ListingType {
	if t == ListingTypeRequest {
		return ListingTypeOffer
	}
	return ListingTypeRequest
}

// ParseListingType parses a case-insensitive listing type.
func ParseListingType(s string) (ListingType, error) {
	t := ListingType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown listing type %q", s)
	}
	return t, nil
}

// ListingStatus is the lifecycle state of a listing. Only active listings
// take part in matching.
type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "active"
	ListingStatusCompleted ListingStatus = "completed"
	ListingStatusCancelled ListingStatus = "cancelled"
)

// Valid reports whether s is a known listing status.
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingStatusActive, ListingStatusCompleted, ListingStatusCancelled:
		return true
	}
	return false
}

type Listing struct {
	ID           uuid.UUID     `json:"id"`
	OwnerID      uuid.UUID     `json:"owner_id"`
	Skill        string        `json:"skill"`
	Type         ListingType   `json:"type"`
	Description  string        `json:"description"`
	Availability string        `json:"availability"`
	Location     string        `json:"location"`
	RadiusKM     *int          `json:"radius_km,omitempty"`
	Status       ListingStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
}

// ListingFilter narrows GetActiveListings. Nil fields do not filter.
type ListingFilter struct {
	UserID *uuid.UUID
	Type   *ListingType
	Skill  *string
}

type ListingRepository struct {
	db DBTX
}

func NewListingRepository(conn DBTX) *ListingRepository {
	return &ListingRepository{db: conn}
}

const listingColumns = `id, user_id, skill, type, description, availability, location, radius_km, status, created_at`

// scanListing reads one row selected with listingColumns.
func scanListing(row pgx.Row) (Listing, error) {
	var (
		l        Listing
		radiusKM pgtype.Int4
		typ      string
		status   string
	)
	if err := row.Scan(
		&l.ID,
		&l.OwnerID,
		&l.Skill,
		&typ,
		&l.Description,
		&l.Availability,
		&l.Location,
		&radiusKM,
		&status,
		&l.CreatedAt,
	); err != nil {
		return Listing{}, err
	}
	l.Type = ListingType(typ)
	l.Status = ListingStatus(status)
	l.RadiusKM = pgInt4ToInt(radiusKM)
	return l, nil
}

// GetListing returns a listing in any status.
func (r *ListingRepository) GetListing(ctx context.Context, id uuid.UUID) (*Listing, error) {
	row := r.db.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return &listing, nil
}

// GetActiveListings returns active listings matching the filter, oldest
// first.
func (r *ListingRepository) GetActiveListings(ctx context.Context, filter ListingFilter) ([]Listing, error) {
	conds := []string{"status = 'active'"}
	var args []any

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, string(*filter.Type))
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Skill != nil {
		args = append(args, *filter.Skill)
		conds = append(conds, fmt.Sprintf("skill = $%d", len(args)))
	}

	query := `SELECT ` + listingColumns + ` FROM listings WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active listings: %w", err)
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active listings: %w", err)
	}
	return listings, nil
}

// GetUserLocation returns the profile location of a user.
func (r *ListingRepository) GetUserLocation(ctx context.Context, userID uuid.UUID) (string, error) {
	var location string
	err := r.db.QueryRow(ctx, `SELECT location FROM users WHERE id = $1`, userID).Scan(&location)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", db.ErrNotFound
		}
		return "", fmt.Errorf("get user location: %w", err)
	}
	return location, nil
}
