package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"matchwise/backend/internal/api"
	"matchwise/backend/internal/auth"
	"matchwise/backend/internal/logger"
	"matchwise/backend/internal/repository"
	"matchwise/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type matchService interface {
	FindMatches(ctx context.Context, userID uuid.UUID, listingType repository.ListingType) (*service.FindMatchesResult, error)
	CreateMatch(ctx context.Context, requestListingID, offerListingID uuid.UUID) (*repository.Match, error)
	UpdateMatchStatus(ctx context.Context, matchID uuid.UUID, newStatus repository.MatchStatus, actingUserID uuid.UUID) (*repository.Match, error)
	ListMatches(ctx context.Context, userID uuid.UUID) ([]repository.Match, error)
}

// MatchHandler handles match discovery and lifecycle HTTP requests
type MatchHandler struct {
	matchService matchService
	validator    *validator.Validate
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matchService matchService) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
		validator:    validator.New(),
	}
}

// CreateMatchRequest represents the request to create a match
// @Description Create match request
type CreateMatchRequest struct {
	RequestListingID string `json:"request_listing_id" validate:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	OfferListingID   string `json:"offer_listing_id" validate:"required,uuid" example:"6ba7b810-9dad-11d1-80b4-00c04fd430c8"`
}

// UpdateMatchStatusRequest represents the request to move a match to a new status
// @Description Update match status request
type UpdateMatchStatusRequest struct {
	Status string `json:"status" validate:"required" example:"accepted" enums:"accepted,declined,completed"`
}

// FindCandidatesQuery represents query parameters for a candidate search.
// Type is matched case-insensitively.
type FindCandidatesQuery struct {
	Type string `form:"type" validate:"omitempty,oneof=offer request" example:"request"`
}

// FindCandidates ranks potential matches for a user's listings
// @Summary Find match candidates
// @Description Score the user's active listings of the given type against active listings of the opposite type with the same skill
// @Tags matches
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Param type query string false "Type of the user's own listings" Enums(request, offer) default(request)
// @Success 200 {object} api.APIResponse{data=service.FindMatchesResult,meta=api.Meta} "Candidates ranked by score"
// @Failure 400 {object} api.APIResponse{error=api.APIError} "Invalid user ID or type"
// @Failure 500 {object} api.APIResponse{error=api.APIError} "Internal server error"
// @Router /users/{id}/matches/candidates [get]
func (h *MatchHandler) FindCandidates(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		api.SendValidationError(c, "Invalid user ID", "ID must be a valid UUID")
		return
	}

	var query FindCandidatesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		api.SendValidationError(c, "Invalid query parameters", err.Error())
		return
	}
	query.Type = strings.ToLower(strings.TrimSpace(query.Type))
	if err := h.validator.Struct(query); err != nil {
		api.SendValidationError(c, "Validation failed", err.Error())
		return
	}

	var listingType repository.ListingType
	if query.Type != "" {
		listingType, err = repository.ParseListingType(query.Type)
		if err != nil {
			api.SendValidationError(c, "Validation failed", err.Error())
			return
		}
	}

	result, err := h.matchService.FindMatches(c.Request.Context(), userID, listingType)
	if err != nil {
		sendServiceError(c, err, "Failed to find matches")
		return
	}

	api.SendSuccess(c, http.StatusOK, result, &api.Meta{Count: len(result.Matches)})
}

// CreateMatch proposes a match between a request and an offer
// @Summary Create a match
// @Description Validate a request/offer pair, score it and store it as pending
// @Tags matches
// @Accept json
// @Produce json
// @Param match body CreateMatchRequest true "Listings to match"
// @Success 201 {object} api.APIResponse{data=repository.Match} "Match created"
// @Failure 400 {object} api.APIResponse{error=api.APIError} "Invalid pair"
// @Failure 404 {object} api.APIResponse{error=api.APIError} "Listing not found"
// @Failure 409 {object} api.APIResponse{error=api.APIError} "Pair already matched"
// @Failure 500 {object} api.APIResponse{error=api.APIError} "Internal server error"
// @Router /matches [post]
func (h *MatchHandler) CreateMatch(c *gin.Context) {
	var req CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		api.SendValidationError(c, "Validation failed", err.Error())
		return
	}

	match, err := h.matchService.CreateMatch(
		c.Request.Context(),
		uuid.MustParse(req.RequestListingID),
		uuid.MustParse(req.OfferListingID),
	)
	if err != nil {
		sendServiceError(c, err, "Failed to create match")
		return
	}

	api.SendSuccess(c, http.StatusCreated, match, nil)
}

// UpdateMatchStatus moves a match through its lifecycle
// @Summary Update match status
// @Description Accept, decline or complete a match on behalf of one of its participants
// @Tags matches
// @Accept json
// @Produce json
// @Param id path string true "Match ID" format(uuid)
// @Param X-User-ID header string true "Acting user ID" format(uuid)
// @Param status body UpdateMatchStatusRequest true "New status"
// @Success 200 {object} api.APIResponse{data=repository.Match} "Match updated"
// @Failure 400 {object} api.APIResponse{error=api.APIError} "Invalid status or transition"
// @Failure 403 {object} api.APIResponse{error=api.APIError} "Acting user is not a participant"
// @Failure 404 {object} api.APIResponse{error=api.APIError} "Match not found"
// @Failure 409 {object} api.APIResponse{error=api.APIError} "Match changed concurrently"
// @Failure 500 {object} api.APIResponse{error=api.APIError} "Internal server error"
// @Router /matches/{id}/status [patch]
func (h *MatchHandler) UpdateMatchStatus(c *gin.Context) {
	matchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		api.SendValidationError(c, "Invalid match ID", "ID must be a valid UUID")
		return
	}

	actingUserID, ok := auth.ActingUser(c)
	if !ok {
		api.SendUnauthorized(c, "Acting user is required")
		return
	}

	var req UpdateMatchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		api.SendValidationError(c, "Validation failed", err.Error())
		return
	}

	status, err := repository.ParseMatchStatus(req.Status)
	if err != nil {
		api.SendValidationError(c, "Validation failed", err.Error())
		return
	}

	match, err := h.matchService.UpdateMatchStatus(c.Request.Context(), matchID, status, actingUserID)
	if err != nil {
		sendServiceError(c, err, "Failed to update match status")
		return
	}

	api.SendSuccess(c, http.StatusOK, match, nil)
}

// ListMatches lists every match involving a user's listings
// @Summary List a user's matches
// @Description Matches where the user owns the request or the offer listing, newest first
// @Tags matches
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Success 200 {object} api.APIResponse{data=[]repository.Match,meta=api.Meta} "Matches retrieved"
// @Failure 400 {object} api.APIResponse{error=api.APIError} "Invalid user ID"
// @Failure 500 {object} api.APIResponse{error=api.APIError} "Internal server error"
// @Router /users/{id}/matches [get]
func (h *MatchHandler) ListMatches(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		api.SendValidationError(c, "Invalid user ID", "ID must be a valid UUID")
		return
	}

	matches, err := h.matchService.ListMatches(c.Request.Context(), userID)
	if err != nil {
		sendServiceError(c, err, "Failed to list matches")
		return
	}

	api.SendSuccess(c, http.StatusOK, matches, &api.Meta{Count: len(matches)})
}

// sendServiceError maps service error kinds onto the API envelope.
func sendServiceError(c *gin.Context, err error, fallback string) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		api.SendInternalError(c, fallback)
		return
	}

	details := ""
	if svcErr.Field != "" {
		details = fmt.Sprintf("field=%s rule=%s", svcErr.Field, svcErr.Rule)
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		api.SendError(c, http.StatusNotFound, api.ErrCodeNotFound, svcErr.Message, details)
	case errors.Is(err, service.ErrInvalidArgument):
		api.SendError(c, http.StatusBadRequest, api.ErrCodeValidation, svcErr.Message, details)
	case errors.Is(err, service.ErrConflict):
		api.SendError(c, http.StatusConflict, api.ErrCodeConflict, svcErr.Message, details)
	case errors.Is(err, service.ErrForbidden):
		api.SendError(c, http.StatusForbidden, api.ErrCodeForbidden, svcErr.Message, details)
	default:
		api.SendInternalError(c, fallback)
	}
}

// RegisterRoutes mounts the match endpoints on an API group.
func (h *MatchHandler) RegisterRoutes(v1 *gin.RouterGroup) {
	users := v1.Group("/users")
	{
		users.GET("/:id/matches/candidates", h.FindCandidates)
		users.GET("/:id/matches", h.ListMatches)
	}

	matches := v1.Group("/matches")
	{
		matches.POST("", h.CreateMatch)
		matches.PATCH("/:id/status", auth.ActingUserMiddleware(), h.UpdateMatchStatus)
	}
}
