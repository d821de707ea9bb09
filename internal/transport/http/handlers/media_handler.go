package handlers

import (
	"errors"
	"net/http"
	"time"

	authsvc "github.com/raydius-app/backend/internal/services/auth"
	mediasvc "github.com/raydius-app/backend/internal/services/media"
	"github.com/raydius-app/backend/internal/transport/http/dto"
	httperrors "github.com/raydius-app/backend/internal/transport/http/errors"
)

type MediaHandler struct {
	service *mediasvc.Service
}

func NewMediaHandler(service *mediasvc.Service) *MediaHandler {
	return &MediaHandler{service: service}
}

func (h *MediaHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}

	ticket, err := h.service.NewPhotoUploadURL(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, mediasvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid upload request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to issue upload url")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UploadURLResponse{
		URL:       ticket.URL,
		Key:       ticket.Key,
		ExpiresAt: ticket.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
