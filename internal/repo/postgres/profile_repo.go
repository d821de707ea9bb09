package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

type PromptRecord struct {
	Question string `json:"q"`
	Answer   string `json:"a"`
}

type ProfileRecord struct {
	UserID       int64
	DisplayName  string
	Age          int
	Program      string
	Year         string
	Interests    []string
	Prompts      []PromptRecord
	Photos       []string
	Discoverable bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (r *ProfileRepo) Upsert(ctx context.Context, p ProfileRecord) (ProfileRecord, error) {
	if p.UserID <= 0 {
		return ProfileRecord{}, fmt.Errorf("invalid profile payload")
	}
	if r.pool == nil {
		return ProfileRecord{}, fmt.Errorf("postgres pool is nil")
	}

	prompts, err := json.Marshal(p.Prompts)
	if err != nil {
		return ProfileRecord{}, fmt.Errorf("marshal profile prompts: %w", err)
	}

	var rec ProfileRecord
	var rawPrompts []byte
	err = r.pool.QueryRow(ctx, `
INSERT INTO profiles (
	user_id,
	display_name,
	age,
	program,
	year,
	interests,
	prompts,
	photos,
	discoverable,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
ON CONFLICT (user_id) DO UPDATE SET
	display_name = EXCLUDED.display_name,
	age = EXCLUDED.age,
	program = EXCLUDED.program,
	year = EXCLUDED.year,
	interests = EXCLUDED.interests,
	prompts = EXCLUDED.prompts,
	photos = EXCLUDED.photos,
	discoverable = EXCLUDED.discoverable,
	updated_at = NOW()
RETURNING
	user_id, display_name, age, program, year,
	interests, prompts, photos, discoverable, created_at, updated_at
`,
		p.UserID,
		strings.TrimSpace(p.DisplayName),
		p.Age,
		strings.TrimSpace(p.Program),
		strings.TrimSpace(p.Year),
		p.Interests,
		prompts,
		p.Photos,
		p.Discoverable,
	).Scan(
		&rec.UserID,
		&rec.DisplayName,
		&rec.Age,
		&rec.Program,
		&rec.Year,
		&rec.Interests,
		&rawPrompts,
		&rec.Photos,
		&rec.Discoverable,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return ProfileRecord{}, fmt.Errorf("upsert profile: %w", err)
	}

	if err := unmarshalPrompts(rawPrompts, &rec.Prompts); err != nil {
		return ProfileRecord{}, err
	}

	return rec, nil
}

func (r *ProfileRepo) GetByUserID(ctx context.Context, userID int64) (ProfileRecord, error) {
	if userID <= 0 {
		return ProfileRecord{}, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return ProfileRecord{}, ErrProfileNotFound
	}

	var rec ProfileRecord
	var rawPrompts []byte
	err := r.pool.QueryRow(ctx, `
SELECT
	user_id, display_name, age, program, year,
	interests, prompts, photos, discoverable, created_at, updated_at
FROM profiles
WHERE user_id = $1
LIMIT 1
`, userID).Scan(
		&rec.UserID,
		&rec.DisplayName,
		&rec.Age,
		&rec.Program,
		&rec.Year,
		&rec.Interests,
		&rawPrompts,
		&rec.Photos,
		&rec.Discoverable,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProfileRecord{}, ErrProfileNotFound
		}
		return ProfileRecord{}, fmt.Errorf("get profile: %w", err)
	}

	if err := unmarshalPrompts(rawPrompts, &rec.Prompts); err != nil {
		return ProfileRecord{}, err
	}

	return rec, nil
}

func unmarshalPrompts(raw []byte, target *[]PromptRecord) error {
	if len(raw) == 0 {
		*target = nil
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("unmarshal profile prompts: %w", err)
	}
	return nil
}
