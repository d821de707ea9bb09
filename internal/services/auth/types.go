package auth

import (
	"errors"
	"time"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrDomainNotAllowed = errors.New("email domain is not allowed")
	ErrCodeInvalid      = errors.New("login code is invalid")
	ErrCodeExpired      = errors.New("login code is expired or missing")
	ErrTooManyAttempts  = errors.New("too many login code attempts")
	ErrSessionNotFound  = errors.New("session not found")
	ErrRefreshNotFound  = errors.New("refresh token not found")
)

type SessionRecord struct {
	SID       string
	UserID    int64
	Email     string
	ExpiresAt time.Time
}

type AccessClaims struct {
	UserID    int64
	SID       string
	Email     string
	ExpiresAt time.Time
}

type Me struct {
	ID    int64
	Email string
}

type AuthResult struct {
	AccessToken   string
	RefreshToken  string
	AccessExpires time.Time
	Me            Me
}
