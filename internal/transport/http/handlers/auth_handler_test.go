package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	pgrepo "github.com/raydius-app/backend/internal/repo/postgres"
	redisrepo "github.com/raydius-app/backend/internal/repo/redis"
	authsvc "github.com/raydius-app/backend/internal/services/auth"
)

type memoryUsers struct {
	byEmail map[string]pgrepo.UserRecord
	nextID  int64
}

func (m *memoryUsers) UpsertByEmail(_ context.Context, email, emailDomain string) (pgrepo.UserRecord, error) {
	if user, ok := m.byEmail[email]; ok {
		return user, nil
	}
	m.nextID++
	user := pgrepo.UserRecord{ID: m.nextID, Email: email, EmailDomain: emailDomain, CreatedAt: time.Now().UTC()}
	m.byEmail[email] = user
	return user, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (pgrepo.UserRecord, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return pgrepo.UserRecord{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

func (m *memoryUsers) MarkVerified(_ context.Context, userID int64) error {
	for email, user := range m.byEmail {
		if user.ID == userID {
			user.Verified = true
			m.byEmail[email] = user
		}
	}
	return nil
}

type capturingSender struct {
	lastCode string
}

func (c *capturingSender) SendLoginCode(_ context.Context, _, code string) error {
	c.lastCode = code
	return nil
}

func newAuthHandlerFixture(t *testing.T) (*AuthHandler, *capturingSender) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redisrepo.NewClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })

	sender := &capturingSender{}
	svc := authsvc.NewService(authsvc.Dependencies{
		JWT:      authsvc.NewJWTManager("test-secret", 15*time.Minute),
		Sessions: redisrepo.NewSessionRepo(client),
		Codes:    redisrepo.NewLoginCodeRepo(client),
		Users:    &memoryUsers{byEmail: make(map[string]pgrepo.UserRecord)},
		Sender:   sender,
	}, authsvc.Config{
		AllowedDomains: []string{"campus.edu"},
	})

	return NewAuthHandler(svc), sender
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func TestAuthHandlerOTPFlow(t *testing.T) {
	h, sender := newAuthHandlerFixture(t)

	rr := postJSON(t, h.RequestCode, "/v1/auth/otp/request", map[string]string{"email": "dana@campus.edu"})
	if rr.Code != http.StatusOK {
		t.Fatalf("request code status: got %d want %d", rr.Code, http.StatusOK)
	}
	if len(sender.lastCode) != 6 {
		t.Fatalf("code = %q, want 6 digits", sender.lastCode)
	}

	rr = postJSON(t, h.VerifyCode, "/v1/auth/otp/verify", map[string]string{
		"email": "dana@campus.edu",
		"code":  sender.lastCode,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("verify status: got %d want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresInSec int64  `json:"expires_in_sec"`
		Me           struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
		} `json:"me"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &tokens); err != nil {
		t.Fatalf("decode tokens: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" || tokens.ExpiresInSec <= 0 {
		t.Fatalf("incomplete token response: %+v", tokens)
	}
	if tokens.Me.Email != "dana@campus.edu" {
		t.Fatalf("me.email = %q", tokens.Me.Email)
	}

	rr = postJSON(t, h.Refresh, "/v1/auth/refresh", map[string]string{"refresh_token": tokens.RefreshToken})
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh status: got %d want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthHandlerRejectsForeignDomain(t *testing.T) {
	h, _ := newAuthHandlerFixture(t)

	rr := postJSON(t, h.RequestCode, "/v1/auth/otp/request", map[string]string{"email": "dana@gmail.com"})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status: got %d want %d", rr.Code, http.StatusForbidden)
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if apiErr.Code != "DOMAIN_NOT_ALLOWED" {
		t.Fatalf("code = %q, want DOMAIN_NOT_ALLOWED", apiErr.Code)
	}
}

func TestAuthHandlerRejectsWrongCode(t *testing.T) {
	h, sender := newAuthHandlerFixture(t)

	rr := postJSON(t, h.RequestCode, "/v1/auth/otp/request", map[string]string{"email": "dana@campus.edu"})
	if rr.Code != http.StatusOK {
		t.Fatalf("request code status: got %d", rr.Code)
	}

	wrong := "000000"
	if wrong == sender.lastCode {
		wrong = "000001"
	}

	rr = postJSON(t, h.VerifyCode, "/v1/auth/otp/verify", map[string]string{
		"email": "dana@campus.edu",
		"code":  wrong,
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthHandlerRejectsMalformedBody(t *testing.T) {
	h, _ := newAuthHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/otp/request", bytes.NewReader([]byte(`{"email":`)))
	rr := httptest.NewRecorder()
	h.RequestCode(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}
