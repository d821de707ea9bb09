package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	authsvc "github.com/raydius-app/backend/internal/services/auth"
	feedsvc "github.com/raydius-app/backend/internal/services/feed"
	"github.com/raydius-app/backend/internal/transport/http/dto"
	httperrors "github.com/raydius-app/backend/internal/transport/http/errors"
)

type FeedHandler struct {
	service *feedsvc.Service
}

func NewFeedHandler(service *feedsvc.Service) *FeedHandler {
	return &FeedHandler{service: service}
}

func (h *FeedHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "FEED_SERVICE_UNAVAILABLE", "feed service is unavailable")
		return
	}

	cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 0)

	result, err := h.service.GetNextPage(r.Context(), identity.UserID, cursor, limit)
	if err != nil {
		switch {
		case errors.Is(err, feedsvc.ErrInvalidCursor):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid cursor")
		case errors.Is(err, feedsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid feed request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load feed")
		}
		return
	}

	profiles := make([]dto.FeedProfileResponse, 0, len(result.Candidates))
	for _, candidate := range result.Candidates {
		prompts := make([]dto.FeedPromptResponse, 0, len(candidate.Prompts))
		for _, p := range candidate.Prompts {
			prompts = append(prompts, dto.FeedPromptResponse{Question: p.Question, Answer: p.Answer})
		}
		profiles = append(profiles, dto.FeedProfileResponse{
			UserID:      candidate.UserID,
			DisplayName: candidate.DisplayName,
			Age:         candidate.Age,
			Program:     candidate.Program,
			Year:        candidate.Year,
			Interests:   candidate.Interests,
			Prompts:     prompts,
			Photos:      candidate.Photos,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.FeedResponse{
		Profiles:   profiles,
		NextCursor: result.NextCursor,
		HasMore:    result.HasMore,
	})
}

func parseIntOrDefault(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}
