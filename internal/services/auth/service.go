package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	pgrepo "github.com/raydius-app/backend/internal/repo/postgres"
)

const (
	MinRefreshTTL = 30 * 24 * time.Hour
	MaxRefreshTTL = 90 * 24 * time.Hour

	defaultLoginCodeTTL = 10 * time.Minute
	maxVerifyAttempts   = 5
)

type SessionStore interface {
	Create(ctx context.Context, session SessionRecord, refreshToken string) error
	GetSession(ctx context.Context, sid string) (SessionRecord, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (SessionRecord, error)
	RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, sid string) error
	DeleteAllForUser(ctx context.Context, userID int64) error
}

type LoginCodeStore interface {
	Save(ctx context.Context, email, codeHash string, ttl time.Duration) error
	GetHash(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
	IncrementAttempts(ctx context.Context, email string, ttl time.Duration) (int64, error)
}

type UserStore interface {
	UpsertByEmail(ctx context.Context, email, emailDomain string) (pgrepo.UserRecord, error)
	GetByEmail(ctx context.Context, email string) (pgrepo.UserRecord, error)
	MarkVerified(ctx context.Context, userID int64) error
}

type CodeSender interface {
	SendLoginCode(ctx context.Context, email, code string) error
}

type Config struct {
	RefreshTTL     time.Duration
	LoginCodeTTL   time.Duration
	AllowedDomains []string
}

type Service struct {
	jwt      *JWTManager
	sessions SessionStore
	codes    LoginCodeStore
	users    UserStore
	sender   CodeSender
	cfg      Config
	now      func() time.Time
}

type Dependencies struct {
	JWT      *JWTManager
	Sessions SessionStore
	Codes    LoginCodeStore
	Users    UserStore
	Sender   CodeSender
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.RefreshTTL < MinRefreshTTL {
		cfg.RefreshTTL = MinRefreshTTL
	}
	if cfg.RefreshTTL > MaxRefreshTTL {
		cfg.RefreshTTL = MaxRefreshTTL
	}
	if cfg.LoginCodeTTL <= 0 {
		cfg.LoginCodeTTL = defaultLoginCodeTTL
	}

	return &Service{
		jwt:      deps.JWT,
		sessions: deps.Sessions,
		codes:    deps.Codes,
		users:    deps.Users,
		sender:   deps.Sender,
		cfg:      cfg,
		now:      time.Now,
	}
}

// RequestLoginCode issues a one-time code for a campus email: the
// domain must be on the allowlist, the code is stored hashed with a
// TTL, and only the mail recipient ever sees the cleartext.
func (s *Service) RequestLoginCode(ctx context.Context, email string) error {
	email, domain, err := normalizeEmail(email)
	if err != nil {
		return ErrInvalidInput
	}
	if !s.domainAllowed(domain) {
		return ErrDomainNotAllowed
	}
	if s.codes == nil || s.users == nil || s.sender == nil {
		return fmt.Errorf("auth dependencies are not configured")
	}

	if _, err := s.users.UpsertByEmail(ctx, email, domain); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	code, err := NewLoginCode()
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash login code: %w", err)
	}

	if err := s.codes.Save(ctx, email, string(hash), s.cfg.LoginCodeTTL); err != nil {
		return err
	}

	if err := s.sender.SendLoginCode(ctx, email, code); err != nil {
		return fmt.Errorf("send login code: %w", err)
	}

	return nil
}

// VerifyLoginCode exchanges a valid code for an access token and a
// refresh-token-backed session. The code is single use.
func (s *Service) VerifyLoginCode(ctx context.Context, email, code string) (AuthResult, error) {
	email, _, err := normalizeEmail(email)
	if err != nil {
		return AuthResult{}, ErrInvalidInput
	}
	code = strings.TrimSpace(code)
	if len(code) != 6 {
		return AuthResult{}, ErrInvalidInput
	}
	if s.codes == nil || s.users == nil {
		return AuthResult{}, fmt.Errorf("auth dependencies are not configured")
	}

	hash, err := s.codes.GetHash(ctx, email)
	if err != nil {
		if errors.Is(err, ErrCodeExpired) {
			return AuthResult{}, ErrCodeExpired
		}
		return AuthResult{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		attempts, attemptErr := s.codes.IncrementAttempts(ctx, email, s.cfg.LoginCodeTTL)
		if attemptErr != nil {
			return AuthResult{}, attemptErr
		}
		if attempts >= maxVerifyAttempts {
			_ = s.codes.Delete(ctx, email)
			return AuthResult{}, ErrTooManyAttempts
		}
		return AuthResult{}, ErrCodeInvalid
	}

	if err := s.codes.Delete(ctx, email); err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return AuthResult{}, ErrCodeExpired
		}
		return AuthResult{}, fmt.Errorf("load user: %w", err)
	}
	if !user.Verified {
		if err := s.users.MarkVerified(ctx, user.ID); err != nil {
			return AuthResult{}, fmt.Errorf("mark verified: %w", err)
		}
	}

	return s.issueForUser(ctx, user.ID, user.Email)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return AuthResult{}, ErrInvalidInput
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("get refresh token session: %w", err)
	}
	if s.now().After(session.ExpiresAt) {
		return AuthResult{}, ErrUnauthorized
	}

	newRefreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	newExpiresAt := s.now().Add(s.cfg.RefreshTTL)
	if err := s.sessions.RotateRefresh(ctx, session.SID, refreshToken, newRefreshToken, newExpiresAt); err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(session.UserID, session.SID, session.Email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  newRefreshToken,
		AccessExpires: accessExpires,
		Me: Me{
			ID:    session.UserID,
			Email: session.Email,
		},
	}, nil
}

func (s *Service) Logout(ctx context.Context, sid string) error {
	if strings.TrimSpace(sid) == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteSession(ctx, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete all sessions: %w", err)
	}
	return nil
}

func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (AccessClaims, error) {
	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return AccessClaims{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return AccessClaims{}, ErrUnauthorized
		}
		return AccessClaims{}, fmt.Errorf("get session: %w", err)
	}

	if session.UserID != claims.UserID {
		return AccessClaims{}, ErrUnauthorized
	}
	if s.now().After(session.ExpiresAt) {
		return AccessClaims{}, ErrUnauthorized
	}

	return claims, nil
}

func (s *Service) issueForUser(ctx context.Context, userID int64, email string) (AuthResult, error) {
	sessionID, err := NewSessionID()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate session id: %w", err)
	}
	refreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	sessionExpiresAt := s.now().Add(s.cfg.RefreshTTL)
	session := SessionRecord{
		SID:       sessionID,
		UserID:    userID,
		Email:     email,
		ExpiresAt: sessionExpiresAt,
	}
	if err := s.sessions.Create(ctx, session, refreshToken); err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(userID, sessionID, email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpires: accessExpires,
		Me: Me{
			ID:    userID,
			Email: email,
		},
	}, nil
}

func (s *Service) domainAllowed(domain string) bool {
	for _, allowed := range s.cfg.AllowedDomains {
		if strings.EqualFold(strings.TrimSpace(allowed), domain) {
			return true
		}
	}
	return false
}

func normalizeEmail(raw string) (email, domain string, err error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", "", err
	}

	email = strings.ToLower(addr.Address)
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", "", fmt.Errorf("malformed email")
	}

	return email, email[at+1:], nil
}
