package handlers

import (
	"errors"
	"net/http"
	"time"

	authsvc "github.com/raydius-app/backend/internal/services/auth"
	matchessvc "github.com/raydius-app/backend/internal/services/matches"
	"github.com/raydius-app/backend/internal/transport/http/dto"
	httperrors "github.com/raydius-app/backend/internal/transport/http/errors"
)

type MatchesHandler struct {
	service *matchessvc.Service
}

func NewMatchesHandler(service *matchessvc.Service) *MatchesHandler {
	return &MatchesHandler{service: service}
}

func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 0)
	items, err := h.service.List(r.Context(), identity.UserID, limit)
	if err != nil {
		if errors.Is(err, matchessvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid matches request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load matches")
		return
	}

	matches := make([]dto.MatchResponse, 0, len(items))
	for _, item := range items {
		matches = append(matches, dto.MatchResponse{
			ID:          item.ID,
			UserID:      item.OtherUserID,
			DisplayName: item.DisplayName,
			Age:         item.Age,
			Program:     item.Program,
			Photos:      item.Photos,
			MatchedAt:   item.MatchedAt.UTC().Format(time.RFC3339),
		})
	}

	httperrors.Write(w, http.StatusOK, dto.MatchesResponse{Matches: matches})
}
