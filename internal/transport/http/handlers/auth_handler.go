package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	authsvc "github.com/raydius-app/backend/internal/services/auth"
	"github.com/raydius-app/backend/internal/transport/http/dto"
	httperrors "github.com/raydius-app/backend/internal/transport/http/errors"
)

type AuthHandler struct {
	service *authsvc.Service
}

func NewAuthHandler(service *authsvc.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// RequestCode sends a one-time login code to a campus email. The
// response is the same whether or not mail went out, so the endpoint
// does not leak which addresses exist.
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.RequestCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	if err := h.service.RequestLoginCode(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, authsvc.ErrInvalidInput):
			writeBadRequest(w, "INVALID_REQUEST", "a valid email is required")
		case errors.Is(err, authsvc.ErrDomainNotAllowed):
			httperrors.Write(w, http.StatusForbidden, httperrors.APIError{
				Code:    "DOMAIN_NOT_ALLOWED",
				Message: "email domain is not eligible for signup",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to send login code")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.RequestCodeResponse{OK: true})
}

func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.VerifyCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.service.VerifyLoginCode(r.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrInvalidInput):
			writeBadRequest(w, "INVALID_REQUEST", "email and a 6-digit code are required")
		case errors.Is(err, authsvc.ErrCodeInvalid):
			writeUnauthorized(w, "CODE_INVALID", "login code is incorrect")
		case errors.Is(err, authsvc.ErrCodeExpired):
			writeUnauthorized(w, "CODE_EXPIRED", "login code expired, request a new one")
		case errors.Is(err, authsvc.ErrTooManyAttempts):
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.APIError{
				Code:    "TOO_MANY_ATTEMPTS",
				Message: "too many attempts, request a new code",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to verify login code")
		}
		return
	}

	writeTokens(w, res)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleAuthError(w, err)
		return
	}

	writeTokens(w, res)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	if err := h.service.Logout(r.Context(), identity.SID); err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.LogoutResponse{OK: true})
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	if err := h.service.LogoutAll(r.Context(), identity.UserID); err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.LogoutResponse{OK: true})
}

func writeTokens(w http.ResponseWriter, res authsvc.AuthResult) {
	httperrors.Write(w, http.StatusOK, dto.AuthTokensResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresInSec: maxInt64(0, int64(time.Until(res.AccessExpires).Seconds())),
		Me: dto.AuthMeResponse{
			ID:    res.Me.ID,
			Email: res.Me.Email,
		},
	})
}

func handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authsvc.ErrInvalidInput):
		writeBadRequest(w, "INVALID_REQUEST", "request validation failed")
	case errors.Is(err, authsvc.ErrUnauthorized):
		writeUnauthorized(w, "UNAUTHORIZED", "authentication failed")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
