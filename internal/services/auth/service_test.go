package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	pgrepo "github.com/raydius-app/backend/internal/repo/postgres"
	redisrepo "github.com/raydius-app/backend/internal/repo/redis"
	"github.com/raydius-app/backend/internal/services/auth"
)

type stubUserStore struct {
	users  map[string]pgrepo.UserRecord
	nextID int64
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: make(map[string]pgrepo.UserRecord), nextID: 1}
}

func (s *stubUserStore) UpsertByEmail(_ context.Context, email, emailDomain string) (pgrepo.UserRecord, error) {
	if user, ok := s.users[email]; ok {
		return user, nil
	}
	user := pgrepo.UserRecord{
		ID:          s.nextID,
		Email:       email,
		EmailDomain: emailDomain,
		CreatedAt:   time.Now().UTC(),
	}
	s.nextID++
	s.users[email] = user
	return user, nil
}

func (s *stubUserStore) GetByEmail(_ context.Context, email string) (pgrepo.UserRecord, error) {
	user, ok := s.users[email]
	if !ok {
		return pgrepo.UserRecord{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

func (s *stubUserStore) MarkVerified(_ context.Context, userID int64) error {
	for email, user := range s.users {
		if user.ID == userID {
			user.Verified = true
			s.users[email] = user
		}
	}
	return nil
}

type stubSender struct {
	lastEmail string
	lastCode  string
	sent      int
}

func (s *stubSender) SendLoginCode(_ context.Context, email, code string) error {
	s.lastEmail = email
	s.lastCode = code
	s.sent++
	return nil
}

func newTestService(t *testing.T) (*auth.Service, *stubSender, *stubUserStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redisrepo.NewClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })

	sender := &stubSender{}
	users := newStubUserStore()
	svc := auth.NewService(auth.Dependencies{
		JWT:      auth.NewJWTManager("test-secret", 15*time.Minute),
		Sessions: redisrepo.NewSessionRepo(client),
		Codes:    redisrepo.NewLoginCodeRepo(client),
		Users:    users,
		Sender:   sender,
	}, auth.Config{
		AllowedDomains: []string{"campus.edu"},
	})

	return svc, sender, users
}

func TestLoginCodeRoundTrip(t *testing.T) {
	svc, sender, users := newTestService(t)
	ctx := context.Background()

	if err := svc.RequestLoginCode(ctx, "Dana@Campus.edu"); err != nil {
		t.Fatalf("RequestLoginCode: %v", err)
	}
	if sender.lastEmail != "dana@campus.edu" {
		t.Fatalf("mail recipient = %q, want normalized email", sender.lastEmail)
	}
	if len(sender.lastCode) != 6 {
		t.Fatalf("code = %q, want 6 digits", sender.lastCode)
	}

	result, err := svc.VerifyLoginCode(ctx, "dana@campus.edu", sender.lastCode)
	if err != nil {
		t.Fatalf("VerifyLoginCode: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if result.Me.Email != "dana@campus.edu" {
		t.Fatalf("me.email = %q", result.Me.Email)
	}
	if !users.users["dana@campus.edu"].Verified {
		t.Fatal("user must be marked verified after first login")
	}

	claims, err := svc.ValidateAccessToken(ctx, result.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != result.Me.ID {
		t.Fatalf("claims.UserID = %d, want %d", claims.UserID, result.Me.ID)
	}
}

func TestLoginCodeIsSingleUse(t *testing.T) {
	svc, sender, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.RequestLoginCode(ctx, "dana@campus.edu"); err != nil {
		t.Fatalf("RequestLoginCode: %v", err)
	}
	if _, err := svc.VerifyLoginCode(ctx, "dana@campus.edu", sender.lastCode); err != nil {
		t.Fatalf("first verify: %v", err)
	}

	if _, err := svc.VerifyLoginCode(ctx, "dana@campus.edu", sender.lastCode); !errors.Is(err, auth.ErrCodeExpired) {
		t.Fatalf("err = %v, want ErrCodeExpired", err)
	}
}

func TestVerifyWrongCode(t *testing.T) {
	svc, sender, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.RequestLoginCode(ctx, "dana@campus.edu"); err != nil {
		t.Fatalf("RequestLoginCode: %v", err)
	}

	wrong := "000000"
	if wrong == sender.lastCode {
		wrong = "000001"
	}

	if _, err := svc.VerifyLoginCode(ctx, "dana@campus.edu", wrong); !errors.Is(err, auth.ErrCodeInvalid) {
		t.Fatalf("err = %v, want ErrCodeInvalid", err)
	}

	result, err := svc.VerifyLoginCode(ctx, "dana@campus.edu", sender.lastCode)
	if err != nil {
		t.Fatalf("correct code after one miss: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("expected access token")
	}
}

func TestVerifyBurnsCodeAfterTooManyAttempts(t *testing.T) {
	svc, sender, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.RequestLoginCode(ctx, "dana@campus.edu"); err != nil {
		t.Fatalf("RequestLoginCode: %v", err)
	}

	wrong := "000000"
	if wrong == sender.lastCode {
		wrong = "000001"
	}

	var lastErr error
	for i := 0; i < 5; i++ {
		_, lastErr = svc.VerifyLoginCode(ctx, "dana@campus.edu", wrong)
	}
	if !errors.Is(lastErr, auth.ErrTooManyAttempts) {
		t.Fatalf("err = %v, want ErrTooManyAttempts", lastErr)
	}

	// The real code is burned with the attempts budget.
	if _, err := svc.VerifyLoginCode(ctx, "dana@campus.edu", sender.lastCode); !errors.Is(err, auth.ErrCodeExpired) {
		t.Fatalf("err = %v, want ErrCodeExpired", err)
	}
}

func TestVerifyWithoutOutstandingCode(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.VerifyLoginCode(context.Background(), "dana@campus.edu", "123456"); !errors.Is(err, auth.ErrCodeExpired) {
		t.Fatalf("err = %v, want ErrCodeExpired", err)
	}
}

func TestRequestLoginCodeRejectsForeignDomain(t *testing.T) {
	svc, sender, _ := newTestService(t)

	if err := svc.RequestLoginCode(context.Background(), "dana@gmail.com"); !errors.Is(err, auth.ErrDomainNotAllowed) {
		t.Fatalf("err = %v, want ErrDomainNotAllowed", err)
	}
	if sender.sent != 0 {
		t.Fatal("no mail may be sent for a rejected domain")
	}
}

func TestRequestLoginCodeRejectsMalformedEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, email := range []string{"", "not-an-email", "@campus.edu"} {
		if err := svc.RequestLoginCode(context.Background(), email); !errors.Is(err, auth.ErrInvalidInput) {
			t.Fatalf("email %q: err = %v, want ErrInvalidInput", email, err)
		}
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, sender, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.RequestLoginCode(ctx, "dana@campus.edu"); err != nil {
		t.Fatalf("RequestLoginCode: %v", err)
	}
	initial, err := svc.VerifyLoginCode(ctx, "dana@campus.edu", sender.lastCode)
	if err != nil {
		t.Fatalf("VerifyLoginCode: %v", err)
	}

	refreshed, err := svc.Refresh(ctx, initial.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.RefreshToken == initial.RefreshToken {
		t.Fatal("refresh token must rotate")
	}
	if refreshed.AccessToken == "" {
		t.Fatal("expected a new access token")
	}

	if _, err := svc.Refresh(ctx, initial.RefreshToken); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("stale refresh token: err = %v, want ErrUnauthorized", err)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc, sender, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.RequestLoginCode(ctx, "dana@campus.edu"); err != nil {
		t.Fatalf("RequestLoginCode: %v", err)
	}
	result, err := svc.VerifyLoginCode(ctx, "dana@campus.edu", sender.lastCode)
	if err != nil {
		t.Fatalf("VerifyLoginCode: %v", err)
	}

	claims, err := svc.ValidateAccessToken(ctx, result.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}

	if err := svc.Logout(ctx, claims.SID); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, err := svc.ValidateAccessToken(ctx, result.AccessToken); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Refresh(ctx, result.RefreshToken); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("refresh after logout: err = %v, want ErrUnauthorized", err)
	}
}

func TestLogoutAllInvalidatesEverySession(t *testing.T) {
	svc, sender, _ := newTestService(t)
	ctx := context.Background()

	sessions := make([]auth.AuthResult, 0, 2)
	for i := 0; i < 2; i++ {
		if err := svc.RequestLoginCode(ctx, "dana@campus.edu"); err != nil {
			t.Fatalf("RequestLoginCode: %v", err)
		}
		result, err := svc.VerifyLoginCode(ctx, "dana@campus.edu", sender.lastCode)
		if err != nil {
			t.Fatalf("VerifyLoginCode: %v", err)
		}
		sessions = append(sessions, result)
	}

	if err := svc.LogoutAll(ctx, sessions[0].Me.ID); err != nil {
		t.Fatalf("LogoutAll: %v", err)
	}

	for i, session := range sessions {
		if _, err := svc.ValidateAccessToken(ctx, session.AccessToken); !errors.Is(err, auth.ErrUnauthorized) {
			t.Fatalf("session %d still valid: %v", i, err)
		}
	}
}
