package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"matchwise/backend/internal/db"
	"matchwise/backend/internal/events"
	"matchwise/backend/internal/logger"
	"matchwise/backend/internal/matching"
	"matchwise/backend/internal/metrics"
	"matchwise/backend/internal/repository"

	"github.com/google/uuid"
)

type listingStore interface {
	GetActiveListings(ctx context.Context, filter repository.ListingFilter) ([]repository.Listing, error)
	GetListing(ctx context.Context, id uuid.UUID) (*repository.Listing, error)
	GetUserLocation(ctx context.Context, userID uuid.UUID) (string, error)
}

type matchStore interface {
	CreateMatch(ctx context.Context, p repository.CreateMatchParams) (*repository.Match, error)
	GetMatch(ctx context.Context, id uuid.UUID) (*repository.Match, error)
	UpdateMatchStatus(ctx context.Context, id uuid.UUID, from, to repository.MatchStatus) (*repository.Match, error)
	ListMatchesForUser(ctx context.Context, userID uuid.UUID) ([]repository.Match, error)
}

// MatchCandidate is a scored request/offer pair proposed to a user.
type MatchCandidate struct {
	RequestListing      repository.Listing `json:"request_listing"`
	OfferListing        repository.Listing `json:"offer_listing"`
	MatchScore          float64            `json:"match_score"`
	DistanceKM          *float64           `json:"distance_km"`
	AvailabilityOverlap []string           `json:"availability_overlap"`
	Explanation         string             `json:"explanation"`
	MatchQuality        string             `json:"match_quality"`
	Breakdown           matching.Breakdown `json:"breakdown"`

	// counterpart is the listing not owned by the searching user.
	counterpart *repository.Listing
}

// FindMatchesResult is the ranked outcome of a candidate search. Note
// explains an empty result.
type FindMatchesResult struct {
	Matches []MatchCandidate `json:"matches"`
	Note    string           `json:"note,omitempty"`
}

// MatchServiceConfig tunes scoring and geocoding for a MatchService.
type MatchServiceConfig struct {
	Scoring        matching.ScoringConfig
	GeocodeTimeout time.Duration
	Concurrency    int
}

// MatchService finds candidate pairs and runs the match lifecycle.
type MatchService struct {
	listings  listingStore
	matches   matchStore
	geocoder  matching.Geocoder
	publisher events.Publisher
	cfg       MatchServiceConfig
}

// NewMatchService creates a match service. A nil geocoder scores every
// distance in degraded mode; a nil publisher drops lifecycle events.
func NewMatchService(listings listingStore, matches matchStore, geocoder matching.Geocoder, publisher events.Publisher, cfg MatchServiceConfig) *MatchService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &MatchService{
		listings:  listings,
		matches:   matches,
		geocoder:  geocoder,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *MatchService) newScorer() (*matching.Scorer, *matching.DistanceResolver) {
	resolver := matching.NewDistanceResolver(s.geocoder, s.cfg.Scoring.FallbackDistanceKM, s.cfg.GeocodeTimeout)
	return matching.NewScorer(s.cfg.Scoring, resolver), resolver
}

// FindMatches ranks the active listings of the opposite type that share a
// skill with the user's own active listings of listingType. An empty
// listingType means request. Pairs below the minimum score are dropped and
// at most MaxResults candidates are returned.
func (s *MatchService) FindMatches(ctx context.Context, userID uuid.UUID, listingType repository.ListingType) (*FindMatchesResult, error) {
	start := time.Now()
	defer func() {
		metrics.FindMatchesDuration.Observe(time.Since(start).Seconds())
	}()

	if listingType == "" {
		listingType = repository.ListingTypeRequest
	}
	if !listingType.Valid() {
		return nil, newError(ErrInvalidArgument, "type", "oneof", "listing type must be offer or request, got %q", listingType)
	}

	own, err := s.listings.GetActiveListings(ctx, repository.ListingFilter{UserID: &userID, Type: &listingType})
	if err != nil {
		return nil, fmt.Errorf("failed to load user listings: %w", err)
	}
	if len(own) == 0 {
		metrics.CandidatesReturned.Observe(0)
		return &FindMatchesResult{
			Matches: []MatchCandidate{},
			Note:    fmt.Sprintf("No active %s listings found for this user", listingType),
		}, nil
	}

	target := listingType.Opposite()
	bySkill := make(map[string][]repository.Listing)
	for _, l := range own {
		if _, ok := bySkill[l.Skill]; ok {
			continue
		}
		skill := l.Skill
		found, err := s.listings.GetActiveListings(ctx, repository.ListingFilter{Type: &target, Skill: &skill})
		if err != nil {
			return nil, fmt.Errorf("failed to load %s listings for skill %q: %w", target, skill, err)
		}
		var others []repository.Listing
		for _, c := range found {
			if c.OwnerID != userID {
				others = append(others, c)
			}
		}
		bySkill[skill] = others
	}

	locations := newLocationBook(s.listings)
	var toPrefetch []string
	toPrefetch = append(toPrefetch, locations.collect(ctx, own)...)
	for _, others := range bySkill {
		toPrefetch = append(toPrefetch, locations.collect(ctx, others)...)
	}

	scorer, resolver := s.newScorer()
	resolver.Prefetch(ctx, toPrefetch, s.cfg.Concurrency)

	var candidates []MatchCandidate
	for i := range own {
		mine := own[i]
		others := bySkill[mine.Skill]
		for j := range others {
			other := others[j]

			request, offer := mine, other
			if listingType == repository.ListingTypeOffer {
				request, offer = other, mine
			}

			b := scorer.Score(ctx, locations.profile(ctx, request), locations.profile(ctx, offer))
			if b.Total < s.cfg.Scoring.MinScore {
				continue
			}

			c := s.candidate(request, offer, b)
			c.counterpart = &other
			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].MatchScore != candidates[j].MatchScore {
			return candidates[i].MatchScore > candidates[j].MatchScore
		}
		return candidates[i].counterpart.CreatedAt.Before(candidates[j].counterpart.CreatedAt)
	})

	if limit := s.cfg.Scoring.MaxResults; limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	result := &FindMatchesResult{Matches: candidates}
	if len(candidates) == 0 {
		result.Matches = []MatchCandidate{}
		result.Note = "No compatible matches found"
	}

	metrics.CandidatesReturned.Observe(float64(len(result.Matches)))
	logger.Debug().
		Str("user_id", userID.String()).
		Str("listing_type", string(listingType)).
		Int("own_listings", len(own)).
		Int("candidates", len(result.Matches)).
		Msg("Candidate search finished")

	return result, nil
}

func (s *MatchService) candidate(request, offer repository.Listing, b matching.Breakdown) MatchCandidate {
	c := MatchCandidate{
		RequestListing:      request,
		OfferListing:        offer,
		MatchScore:          b.Total,
		AvailabilityOverlap: make([]string, 0, len(b.Overlaps)),
		Explanation:         b.TimeNote,
		MatchQuality:        s.cfg.Scoring.Quality(b.Total),
		Breakdown:           b,
	}
	if b.Distance.Known() {
		km := math.Round(b.Distance.KM*10) / 10
		c.DistanceKM = &km
	}
	for _, w := range b.Overlaps {
		c.AvailabilityOverlap = append(c.AvailabilityOverlap, w.String())
	}
	return c
}

// CreateMatch validates a request/offer pair, freezes its score and stores a
// pending match. A live match for the same pair is a conflict.
func (s *MatchService) CreateMatch(ctx context.Context, requestListingID, offerListingID uuid.UUID) (*repository.Match, error) {
	request, err := s.loadListing(ctx, requestListingID, "request_listing_id")
	if err != nil {
		return nil, err
	}
	offer, err := s.loadListing(ctx, offerListingID, "offer_listing_id")
	if err != nil {
		return nil, err
	}

	if err := validatePair(request, offer); err != nil {
		return nil, err
	}

	locations := newLocationBook(s.listings)
	scorer, _ := s.newScorer()
	b := scorer.Score(ctx, locations.profile(ctx, *request), locations.profile(ctx, *offer))

	match, err := s.matches.CreateMatch(ctx, repository.CreateMatchParams{
		RequestListingID: request.ID,
		OfferListingID:   offer.ID,
		Score:            b.Total,
	})
	if err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, newError(ErrConflict, "offer_listing_id", "unique_pair", "an active match already exists for this request and offer")
		}
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	logger.Info().
		Str("match_id", match.ID.String()).
		Float64("score", match.Score).
		Msg("Match created")

	s.publish(ctx, events.SubjectMatchCreated, match, "", nil)
	return match, nil
}

func (s *MatchService) loadListing(ctx context.Context, id uuid.UUID, field string) (*repository.Listing, error) {
	listing, err := s.listings.GetListing(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, newError(ErrNotFound, field, "exists", "listing %s not found", id)
		}
		return nil, fmt.Errorf("failed to load listing %s: %w", id, err)
	}
	return listing, nil
}

func validatePair(request, offer *repository.Listing) error {
	if request.Status != repository.ListingStatusActive {
		return newError(ErrInvalidArgument, "request_listing_id", "active", "request listing is %s, not active", request.Status)
	}
	if offer.Status != repository.ListingStatusActive {
		return newError(ErrInvalidArgument, "offer_listing_id", "active", "offer listing is %s, not active", offer.Status)
	}
	if request.Type != repository.ListingTypeRequest {
		return newError(ErrInvalidArgument, "request_listing_id", "type", "listing %s is a %s, not a request", request.ID, request.Type)
	}
	if offer.Type != repository.ListingTypeOffer {
		return newError(ErrInvalidArgument, "offer_listing_id", "type", "listing %s is a %s, not an offer", offer.ID, offer.Type)
	}
	if request.Skill != offer.Skill {
		return newError(ErrInvalidArgument, "skill", "skill_match", "request skill %q does not match offer skill %q", request.Skill, offer.Skill)
	}
	if request.OwnerID == offer.OwnerID {
		return newError(ErrInvalidArgument, "offer_listing_id", "distinct_owners", "a user cannot match their own listings")
	}
	return nil
}

var transitionTargets = map[repository.MatchStatus]bool{
	repository.MatchStatusAccepted:  true,
	repository.MatchStatusDeclined:  true,
	repository.MatchStatusCompleted: true,
}

// UpdateMatchStatus moves a match to newStatus on behalf of actingUserID,
// who must own one of the two listings. Only pending to accepted or
// declined, and accepted to completed, are allowed.
func (s *MatchService) UpdateMatchStatus(ctx context.Context, matchID uuid.UUID, newStatus repository.MatchStatus, actingUserID uuid.UUID) (*repository.Match, error) {
	if !transitionTargets[newStatus] {
		return nil, newError(ErrInvalidArgument, "status", "target_status", "status must be accepted, declined or completed, got %q", newStatus)
	}

	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, newError(ErrNotFound, "match_id", "exists", "match %s not found", matchID)
		}
		return nil, fmt.Errorf("failed to load match: %w", err)
	}

	participant, err := s.isParticipant(ctx, match, actingUserID)
	if err != nil {
		return nil, err
	}
	if !participant {
		return nil, newError(ErrForbidden, "acting_user_id", "participant", "user %s is not a participant in match %s", actingUserID, matchID)
	}

	if !match.Status.CanTransitionTo(newStatus) {
		return nil, newError(ErrInvalidArgument, "status", "transition", "cannot move match from %s to %s", match.Status, newStatus)
	}

	previous := match.Status
	updated, err := s.matches.UpdateMatchStatus(ctx, matchID, previous, newStatus)
	if err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, newError(ErrConflict, "status", "concurrent_update", "match %s changed while updating", matchID)
		}
		return nil, fmt.Errorf("failed to update match status: %w", err)
	}

	metrics.MatchTransitions.WithLabelValues(string(newStatus)).Inc()
	logger.Info().
		Str("match_id", matchID.String()).
		Str("from", string(previous)).
		Str("to", string(newStatus)).
		Str("acting_user_id", actingUserID.String()).
		Msg("Match status changed")

	s.publish(ctx, events.SubjectMatchStatusChanged, updated, previous, &actingUserID)
	return updated, nil
}

func (s *MatchService) isParticipant(ctx context.Context, match *repository.Match, userID uuid.UUID) (bool, error) {
	for _, id := range []uuid.UUID{match.RequestListingID, match.OfferListingID} {
		listing, err := s.listings.GetListing(ctx, id)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				continue
			}
			return false, fmt.Errorf("failed to load listing %s: %w", id, err)
		}
		if listing.OwnerID == userID {
			return true, nil
		}
	}
	return false, nil
}

// ListMatches returns every match involving one of the user's listings,
// newest first.
func (s *MatchService) ListMatches(ctx context.Context, userID uuid.UUID) ([]repository.Match, error) {
	matches, err := s.matches.ListMatchesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

func (s *MatchService) publish(ctx context.Context, subject string, match *repository.Match, previous repository.MatchStatus, actor *uuid.UUID) {
	event := events.MatchEvent{
		MatchID:          match.ID,
		RequestListingID: match.RequestListingID,
		OfferListingID:   match.OfferListingID,
		Status:           string(match.Status),
		PreviousStatus:   string(previous),
		Score:            match.Score,
		ActingUserID:     actor,
		OccurredAt:       time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		logger.Warn().
			Err(err).
			Str("subject", subject).
			Str("match_id", match.ID.String()).
			Msg("Failed to publish match event")
	}
}
