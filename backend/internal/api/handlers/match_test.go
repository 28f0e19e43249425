package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"matchwise/backend/internal/api"
	"matchwise/backend/internal/auth"
	"matchwise/backend/internal/repository"
	"matchwise/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockMatchService is a mock implementation of matchService
type MockMatchService struct {
	FindMatchesFunc       func(ctx context.Context, userID uuid.UUID, listingType repository.ListingType) (*service.FindMatchesResult, error)
	CreateMatchFunc       func(ctx context.Context, requestListingID, offerListingID uuid.UUID) (*repository.Match, error)
	UpdateMatchStatusFunc func(ctx context.Context, matchID uuid.UUID, newStatus repository.MatchStatus, actingUserID uuid.UUID) (*repository.Match, error)
	ListMatchesFunc       func(ctx context.Context, userID uuid.UUID) ([]repository.Match, error)
}

func (m *MockMatchService) FindMatches(ctx context.Context, userID uuid.UUID, listingType repository.ListingType) (*service.FindMatchesResult, error) {
	if m.FindMatchesFunc != nil {
		return m.FindMatchesFunc(ctx, userID, listingType)
	}
	return &service.FindMatchesResult{}, nil
}

func (m *MockMatchService) CreateMatch(ctx context.Context, requestListingID, offerListingID uuid.UUID) (*repository.Match, error) {
	if m.CreateMatchFunc != nil {
		return m.CreateMatchFunc(ctx, requestListingID, offerListingID)
	}
	return nil, errors.New("not implemented")
}

func (m *MockMatchService) UpdateMatchStatus(ctx context.Context, matchID uuid.UUID, newStatus repository.MatchStatus, actingUserID uuid.UUID) (*repository.Match, error) {
	if m.UpdateMatchStatusFunc != nil {
		return m.UpdateMatchStatusFunc(ctx, matchID, newStatus, actingUserID)
	}
	return nil, errors.New("not implemented")
}

func (m *MockMatchService) ListMatches(ctx context.Context, userID uuid.UUID) ([]repository.Match, error) {
	if m.ListMatchesFunc != nil {
		return m.ListMatchesFunc(ctx, userID)
	}
	return nil, nil
}

func setupMatchRouter(svc *MockMatchService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewMatchHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func doRequest(router *gin.Engine, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, api.APIResponse) {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp api.APIResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestMatchHandler_FindCandidates(t *testing.T) {
	userID := uuid.New()

	t.Run("defaults to request listings", func(t *testing.T) {
		var gotType repository.ListingType
		var gotUser uuid.UUID
		svc := &MockMatchService{
			FindMatchesFunc: func(ctx context.Context, id uuid.UUID, lt repository.ListingType) (*service.FindMatchesResult, error) {
				gotUser, gotType = id, lt
				return &service.FindMatchesResult{
					Matches: []service.MatchCandidate{{MatchScore: 80, MatchQuality: "Excellent match with high compatibility"}},
				}, nil
			},
		}
		router := setupMatchRouter(svc)

		w, resp := doRequest(router, http.MethodGet, "/api/v1/users/"+userID.String()+"/matches/candidates", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)
		assert.Equal(t, userID, gotUser)
		assert.Equal(t, repository.ListingType(""), gotType)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, 1, resp.Meta.Count)

		data, ok := resp.Data.(map[string]interface{})
		require.True(t, ok)
		matches, ok := data["matches"].([]interface{})
		require.True(t, ok)
		require.Len(t, matches, 1)
		assert.NotContains(t, data, "note")
		first := matches[0].(map[string]interface{})
		assert.Equal(t, 80.0, first["match_score"])
		assert.Nil(t, first["distance_km"])
	})

	typeTests := []struct {
		query string
		want  repository.ListingType
	}{
		{query: "Offer", want: repository.ListingTypeOffer},
		{query: "offer", want: repository.ListingTypeOffer},
		{query: "REQUEST", want: repository.ListingTypeRequest},
		{query: "rEquest", want: repository.ListingTypeRequest},
		{query: "oFfEr", want: repository.ListingTypeOffer},
	}

	for _, tt := range typeTests {
		t.Run("type "+tt.query, func(t *testing.T) {
			var gotType repository.ListingType
			svc := &MockMatchService{
				FindMatchesFunc: func(ctx context.Context, id uuid.UUID, lt repository.ListingType) (*service.FindMatchesResult, error) {
					gotType = lt
					return &service.FindMatchesResult{}, nil
				},
			}
			router := setupMatchRouter(svc)

			w, _ := doRequest(router, http.MethodGet, "/api/v1/users/"+userID.String()+"/matches/candidates?type="+tt.query, nil, nil)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, gotType)
		})
	}

	t.Run("empty result carries note", func(t *testing.T) {
		svc := &MockMatchService{
			FindMatchesFunc: func(ctx context.Context, id uuid.UUID, lt repository.ListingType) (*service.FindMatchesResult, error) {
				return &service.FindMatchesResult{Note: "No active request listings found for this user"}, nil
			},
		}
		router := setupMatchRouter(svc)

		w, resp := doRequest(router, http.MethodGet, "/api/v1/users/"+userID.String()+"/matches/candidates", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, 0, resp.Meta.Count)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "No active request listings found for this user", data["note"])
	})

	tests := []struct {
		name string
		path string
	}{
		{name: "invalid user id", path: "/api/v1/users/not-a-uuid/matches/candidates"},
		{name: "unknown type", path: "/api/v1/users/" + userID.String() + "/matches/candidates?type=barter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &MockMatchService{
				FindMatchesFunc: func(ctx context.Context, id uuid.UUID, lt repository.ListingType) (*service.FindMatchesResult, error) {
					called = true
					return &service.FindMatchesResult{}, nil
				},
			}
			router := setupMatchRouter(svc)

			w, resp := doRequest(router, http.MethodGet, tt.path, nil, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, called)
			require.NotNil(t, resp.Error)
			assert.Equal(t, api.ErrCodeValidation, resp.Error.Code)
		})
	}

	t.Run("store failure is internal error", func(t *testing.T) {
		svc := &MockMatchService{
			FindMatchesFunc: func(ctx context.Context, id uuid.UUID, lt repository.ListingType) (*service.FindMatchesResult, error) {
				return nil, errors.New("connection refused")
			},
		}
		router := setupMatchRouter(svc)

		w, resp := doRequest(router, http.MethodGet, "/api/v1/users/"+userID.String()+"/matches/candidates", nil, nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, api.ErrCodeInternal, resp.Error.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestMatchHandler_CreateMatch(t *testing.T) {
	requestID := uuid.New()
	offerID := uuid.New()

	t.Run("created", func(t *testing.T) {
		svc := &MockMatchService{
			CreateMatchFunc: func(ctx context.Context, req, off uuid.UUID) (*repository.Match, error) {
				assert.Equal(t, requestID, req)
				assert.Equal(t, offerID, off)
				return &repository.Match{
					ID:               uuid.New(),
					RequestListingID: req,
					OfferListingID:   off,
					Score:            80,
					Status:           repository.MatchStatusPending,
					CreatedAt:        time.Now(),
					UpdatedAt:        time.Now(),
				}, nil
			},
		}
		router := setupMatchRouter(svc)

		w, resp := doRequest(router, http.MethodPost, "/api/v1/matches", CreateMatchRequest{
			RequestListingID: requestID.String(),
			OfferListingID:   offerID.String(),
		}, nil)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "pending", data["status"])
		assert.Equal(t, 80.0, data["match_score"])
	})

	t.Run("invalid body", func(t *testing.T) {
		router := setupMatchRouter(&MockMatchService{})

		w, resp := doRequest(router, http.MethodPost, "/api/v1/matches", map[string]string{
			"request_listing_id": "nope",
			"offer_listing_id":   offerID.String(),
		}, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, api.ErrCodeValidation, resp.Error.Code)
	})

	errorTests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantDetail string
	}{
		{
			name:       "listing not found",
			err:        &service.Error{Kind: service.ErrNotFound, Field: "offer_listing_id", Rule: "exists", Message: "listing not found"},
			wantStatus: http.StatusNotFound,
			wantCode:   api.ErrCodeNotFound,
			wantDetail: "field=offer_listing_id rule=exists",
		},
		{
			name:       "invalid pair",
			err:        &service.Error{Kind: service.ErrInvalidArgument, Field: "offer_listing_id", Rule: "skill_match", Message: "skills differ"},
			wantStatus: http.StatusBadRequest,
			wantCode:   api.ErrCodeValidation,
			wantDetail: "field=offer_listing_id rule=skill_match",
		},
		{
			name:       "duplicate pair",
			err:        &service.Error{Kind: service.ErrConflict, Field: "offer_listing_id", Rule: "unique_pair", Message: "pair already matched"},
			wantStatus: http.StatusConflict,
			wantCode:   api.ErrCodeConflict,
			wantDetail: "field=offer_listing_id rule=unique_pair",
		},
		{
			name:       "unexpected error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   api.ErrCodeInternal,
			wantDetail: "Failed to create match",
		},
	}

	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockMatchService{
				CreateMatchFunc: func(ctx context.Context, req, off uuid.UUID) (*repository.Match, error) {
					return nil, tt.err
				},
			}
			router := setupMatchRouter(svc)

			w, resp := doRequest(router, http.MethodPost, "/api/v1/matches", CreateMatchRequest{
				RequestListingID: requestID.String(),
				OfferListingID:   offerID.String(),
			}, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantDetail, resp.Error.Details)
		})
	}
}

func TestMatchHandler_UpdateMatchStatus(t *testing.T) {
	matchID := uuid.New()
	actor := uuid.New()
	path := "/api/v1/matches/" + matchID.String() + "/status"
	headers := map[string]string{auth.ActingUserHeader: actor.String()}

	t.Run("accepted", func(t *testing.T) {
		svc := &MockMatchService{
			UpdateMatchStatusFunc: func(ctx context.Context, id uuid.UUID, status repository.MatchStatus, acting uuid.UUID) (*repository.Match, error) {
				assert.Equal(t, matchID, id)
				assert.Equal(t, repository.MatchStatusAccepted, status)
				assert.Equal(t, actor, acting)
				return &repository.Match{ID: id, Status: status}, nil
			},
		}
		router := setupMatchRouter(svc)

		w, resp := doRequest(router, http.MethodPatch, path, UpdateMatchStatusRequest{Status: "ACCEPTED"}, headers)

		assert.Equal(t, http.StatusOK, w.Code)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "accepted", data["status"])
	})

	t.Run("missing acting user", func(t *testing.T) {
		router := setupMatchRouter(&MockMatchService{})

		w, _ := doRequest(router, http.MethodPatch, path, UpdateMatchStatusRequest{Status: "accepted"}, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "MISSING_ACTING_USER")
	})

	inputTests := []struct {
		name string
		path string
		body interface{}
	}{
		{name: "invalid match id", path: "/api/v1/matches/xyz/status", body: UpdateMatchStatusRequest{Status: "accepted"}},
		{name: "missing status", path: path, body: map[string]string{}},
		{name: "unknown status", path: path, body: UpdateMatchStatusRequest{Status: "archived"}},
	}

	for _, tt := range inputTests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupMatchRouter(&MockMatchService{})

			w, resp := doRequest(router, http.MethodPatch, tt.path, tt.body, headers)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, api.ErrCodeValidation, resp.Error.Code)
		})
	}

	errorTests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not a participant",
			err:        &service.Error{Kind: service.ErrForbidden, Field: "acting_user_id", Rule: "participant", Message: "not a participant"},
			wantStatus: http.StatusForbidden,
			wantCode:   api.ErrCodeForbidden,
		},
		{
			name:       "illegal transition",
			err:        &service.Error{Kind: service.ErrInvalidArgument, Field: "status", Rule: "transition", Message: "cannot move"},
			wantStatus: http.StatusBadRequest,
			wantCode:   api.ErrCodeValidation,
		},
		{
			name:       "match not found",
			err:        &service.Error{Kind: service.ErrNotFound, Field: "match_id", Rule: "exists", Message: "match not found"},
			wantStatus: http.StatusNotFound,
			wantCode:   api.ErrCodeNotFound,
		},
		{
			name:       "concurrent change",
			err:        &service.Error{Kind: service.ErrConflict, Field: "status", Rule: "current_status", Message: "changed"},
			wantStatus: http.StatusConflict,
			wantCode:   api.ErrCodeConflict,
		},
	}

	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockMatchService{
				UpdateMatchStatusFunc: func(ctx context.Context, id uuid.UUID, status repository.MatchStatus, acting uuid.UUID) (*repository.Match, error) {
					return nil, tt.err
				},
			}
			router := setupMatchRouter(svc)

			w, resp := doRequest(router, http.MethodPatch, path, UpdateMatchStatusRequest{Status: "declined"}, headers)

			assert.Equal(t, tt.wantStatus, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestMatchHandler_ListMatches(t *testing.T) {
	userID := uuid.New()

	t.Run("lists matches", func(t *testing.T) {
		svc := &MockMatchService{
			ListMatchesFunc: func(ctx context.Context, id uuid.UUID) ([]repository.Match, error) {
				assert.Equal(t, userID, id)
				return []repository.Match{
					{ID: uuid.New(), Status: repository.MatchStatusPending},
					{ID: uuid.New(), Status: repository.MatchStatusCompleted},
				}, nil
			},
		}
		router := setupMatchRouter(svc)

		w, resp := doRequest(router, http.MethodGet, "/api/v1/users/"+userID.String()+"/matches", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, 2, resp.Meta.Count)
	})

	t.Run("invalid user id", func(t *testing.T) {
		router := setupMatchRouter(&MockMatchService{})

		w, _ := doRequest(router, http.MethodGet, "/api/v1/users/123/matches", nil, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
