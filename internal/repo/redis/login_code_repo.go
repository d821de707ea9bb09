package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/raydius-app/backend/internal/services/auth"
)

const (
	loginCodePrefix         = "login_code:"
	loginCodeAttemptsPrefix = "login_code_attempts:"
)

// LoginCodeRepo stores bcrypt hashes of one-time login codes. The TTL
// on the key is the expiry; a missing key means no outstanding code.
type LoginCodeRepo struct {
	client *goredis.Client
}

func NewLoginCodeRepo(client *goredis.Client) *LoginCodeRepo {
	return &LoginCodeRepo{client: client}
}

func (r *LoginCodeRepo) Save(ctx context.Context, email, codeHash string, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	email = normalizeEmailKey(email)
	if email == "" || strings.TrimSpace(codeHash) == "" || ttl <= 0 {
		return fmt.Errorf("invalid login code payload")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, loginCodeKey(email), codeHash, ttl)
	pipe.Del(ctx, loginCodeAttemptsKey(email))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save login code: %w", err)
	}

	return nil
}

func (r *LoginCodeRepo) GetHash(ctx context.Context, email string) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("redis client is nil")
	}

	hash, err := r.client.Get(ctx, loginCodeKey(normalizeEmailKey(email))).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", authsvc.ErrCodeExpired
		}
		return "", fmt.Errorf("get login code hash: %w", err)
	}

	return hash, nil
}

func (r *LoginCodeRepo) Delete(ctx context.Context, email string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	email = normalizeEmailKey(email)
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, loginCodeKey(email))
	pipe.Del(ctx, loginCodeAttemptsKey(email))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete login code: %w", err)
	}

	return nil
}

// IncrementAttempts counts failed verifications for the outstanding
// code so a brute-force loop burns the code instead of guessing it.
func (r *LoginCodeRepo) IncrementAttempts(ctx context.Context, email string, ttl time.Duration) (int64, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}

	key := loginCodeAttemptsKey(normalizeEmailKey(email))
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("increment login code attempts: %w", err)
	}
	if count == 1 && ttl > 0 {
		if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
			return count, fmt.Errorf("expire login code attempts: %w", err)
		}
	}

	return count, nil
}

func normalizeEmailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func loginCodeKey(email string) string {
	return loginCodePrefix + email
}

func loginCodeAttemptsKey(email string) string {
	return loginCodeAttemptsPrefix + email
}
