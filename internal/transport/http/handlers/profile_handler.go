package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/raydius-app/backend/internal/services/auth"
	profilesvc "github.com/raydius-app/backend/internal/services/profiles"
	"github.com/raydius-app/backend/internal/transport/http/dto"
	httperrors "github.com/raydius-app/backend/internal/transport/http/errors"
)

type ProfileHandler struct {
	service *profilesvc.Service
}

func NewProfileHandler(service *profilesvc.Service) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Get returns the caller's profile, or a JSON null body when
// onboarding has not produced one yet.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	profile, err := h.service.GetMine(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, profilesvc.ErrProfileNotFound) {
			httperrors.Write(w, http.StatusOK, nil)
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load profile")
		return
	}

	httperrors.Write(w, http.StatusOK, toProfileResponse(profile))
}

func (h *ProfileHandler) Put(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	var req dto.ProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	prompts := make([]profilesvc.Prompt, 0, len(req.Prompts))
	for _, p := range req.Prompts {
		prompts = append(prompts, profilesvc.Prompt{Question: p.Question, Answer: p.Answer})
	}

	profile, err := h.service.UpsertMine(r.Context(), identity.UserID, profilesvc.UpsertInput{
		DisplayName:  req.DisplayName,
		Age:          req.Age,
		Program:      req.Program,
		Year:         req.Year,
		Interests:    req.Interests,
		Prompts:      prompts,
		Photos:       req.Photos,
		Discoverable: req.Discoverable,
	})
	if err != nil {
		if errors.Is(err, profilesvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid profile payload")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to save profile")
		return
	}

	httperrors.Write(w, http.StatusOK, toProfileResponse(profile))
}

func toProfileResponse(profile profilesvc.Profile) dto.ProfileResponse {
	prompts := make([]dto.ProfilePrompt, 0, len(profile.Prompts))
	for _, p := range profile.Prompts {
		prompts = append(prompts, dto.ProfilePrompt{Question: p.Question, Answer: p.Answer})
	}

	return dto.ProfileResponse{
		UserID:       profile.UserID,
		DisplayName:  profile.DisplayName,
		Age:          profile.Age,
		Program:      profile.Program,
		Year:         profile.Year,
		Interests:    profile.Interests,
		Prompts:      prompts,
		Photos:       profile.Photos,
		Discoverable: profile.Discoverable,
	}
}
