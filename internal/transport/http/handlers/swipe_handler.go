package handlers

import (
	"errors"
	"net/http"
	"strings"

	authsvc "github.com/raydius-app/backend/internal/services/auth"
	swipesvc "github.com/raydius-app/backend/internal/services/swipes"
	"github.com/raydius-app/backend/internal/transport/http/dto"
	httperrors "github.com/raydius-app/backend/internal/transport/http/errors"
)

type SwipeHandler struct {
	service *swipesvc.Service
}

func NewSwipeHandler(service *swipesvc.Service) *SwipeHandler {
	return &SwipeHandler{service: service}
}

// Handle records one swipe. A repeated swipe on the same target is not
// an error: the stored decision stands and the response is a plain
// is_match false, indistinguishable from a fresh non-matching swipe.
func (h *SwipeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	var req dto.SwipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.TargetID <= 0 || strings.TrimSpace(req.Action) == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id and action are required")
		return
	}

	result, err := h.service.Record(r.Context(), identity.UserID, req.TargetID, req.Action)
	if err != nil {
		switch {
		case errors.Is(err, swipesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid swipe request")
		case errors.Is(err, swipesvc.ErrUnsupportedAction):
			writeBadRequest(w, "VALIDATION_ERROR", "unsupported action")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to process swipe")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SwipeResponse{
		OK:      true,
		IsMatch: result.MatchCreated,
	})
}
