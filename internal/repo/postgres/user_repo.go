package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

type UserRecord struct {
	ID          int64
	Email       string
	EmailDomain string
	Verified    bool
	CreatedAt   time.Time
}

// UpsertByEmail creates the user row on first login-code request and
// returns the existing one afterwards.
func (r *UserRepo) UpsertByEmail(ctx context.Context, email, emailDomain string) (UserRecord, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	emailDomain = strings.ToLower(strings.TrimSpace(emailDomain))
	if email == "" || emailDomain == "" {
		return UserRecord{}, fmt.Errorf("invalid user payload")
	}
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var rec UserRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO users (
	email,
	email_domain,
	verified,
	created_at
) VALUES ($1, $2, FALSE, NOW())
ON CONFLICT (email) DO UPDATE SET
	email_domain = EXCLUDED.email_domain
RETURNING id, email, email_domain, verified, created_at
`, email, emailDomain).Scan(
		&rec.ID,
		&rec.Email,
		&rec.EmailDomain,
		&rec.Verified,
		&rec.CreatedAt,
	)
	if err != nil {
		return UserRecord{}, fmt.Errorf("upsert user by email: %w", err)
	}

	return rec, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (UserRecord, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return UserRecord{}, fmt.Errorf("invalid email")
	}
	if r.pool == nil {
		return UserRecord{}, ErrUserNotFound
	}

	var rec UserRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, email, email_domain, verified, created_at
FROM users
WHERE email = $1
LIMIT 1
`, email).Scan(
		&rec.ID,
		&rec.Email,
		&rec.EmailDomain,
		&rec.Verified,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, fmt.Errorf("get user by email: %w", err)
	}

	return rec, nil
}

func (r *UserRepo) MarkVerified(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE users
SET verified = TRUE
WHERE id = $1
`, userID)
	if err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}
