package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pgrepo "github.com/raydius-app/backend/internal/repo/postgres"
)

const (
	minAge     = 18
	maxAge     = 100
	maxPhotos  = 6
	maxPrompts = 5
)

var (
	ErrValidation      = errors.New("validation error")
	ErrProfileNotFound = errors.New("profile not found")
)

type ProfileStore interface {
	Upsert(ctx context.Context, p pgrepo.ProfileRecord) (pgrepo.ProfileRecord, error)
	GetByUserID(ctx context.Context, userID int64) (pgrepo.ProfileRecord, error)
}

type Service struct {
	store ProfileStore
}

func NewService(store ProfileStore) *Service {
	return &Service{store: store}
}

type Prompt struct {
	Question string
	Answer   string
}

type Profile struct {
	UserID       int64
	DisplayName  string
	Age          int
	Program      string
	Year         string
	Interests    []string
	Prompts      []Prompt
	Photos       []string
	Discoverable bool
}

type UpsertInput struct {
	DisplayName  string
	Age          int
	Program      string
	Year         string
	Interests    []string
	Prompts      []Prompt
	Photos       []string
	Discoverable bool
}

// GetMine returns the caller's own profile, or ErrProfileNotFound when
// they have not completed onboarding yet.
func (s *Service) GetMine(ctx context.Context, userID int64) (Profile, error) {
	if userID <= 0 {
		return Profile{}, ErrValidation
	}
	if s.store == nil {
		return Profile{}, fmt.Errorf("profile store is not configured")
	}

	rec, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}

	return fromRecord(rec), nil
}

// UpsertMine creates or replaces the caller's profile in full.
func (s *Service) UpsertMine(ctx context.Context, userID int64, in UpsertInput) (Profile, error) {
	if userID <= 0 {
		return Profile{}, ErrValidation
	}
	if s.store == nil {
		return Profile{}, fmt.Errorf("profile store is not configured")
	}
	if err := validateInput(in); err != nil {
		return Profile{}, err
	}

	prompts := make([]pgrepo.PromptRecord, 0, len(in.Prompts))
	for _, p := range in.Prompts {
		prompts = append(prompts, pgrepo.PromptRecord{
			Question: strings.TrimSpace(p.Question),
			Answer:   strings.TrimSpace(p.Answer),
		})
	}

	rec, err := s.store.Upsert(ctx, pgrepo.ProfileRecord{
		UserID:       userID,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Age:          in.Age,
		Program:      strings.TrimSpace(in.Program),
		Year:         strings.TrimSpace(in.Year),
		Interests:    cleanStrings(in.Interests),
		Prompts:      prompts,
		Photos:       cleanStrings(in.Photos),
		Discoverable: in.Discoverable,
	})
	if err != nil {
		return Profile{}, fmt.Errorf("upsert profile: %w", err)
	}

	return fromRecord(rec), nil
}

func validateInput(in UpsertInput) error {
	if strings.TrimSpace(in.DisplayName) == "" {
		return ErrValidation
	}
	if in.Age < minAge || in.Age > maxAge {
		return ErrValidation
	}
	if len(in.Photos) > maxPhotos {
		return ErrValidation
	}
	if len(in.Prompts) > maxPrompts {
		return ErrValidation
	}
	for _, p := range in.Prompts {
		if strings.TrimSpace(p.Question) == "" || strings.TrimSpace(p.Answer) == "" {
			return ErrValidation
		}
	}
	return nil
}

func cleanStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func fromRecord(rec pgrepo.ProfileRecord) Profile {
	prompts := make([]Prompt, 0, len(rec.Prompts))
	for _, p := range rec.Prompts {
		prompts = append(prompts, Prompt{Question: p.Question, Answer: p.Answer})
	}

	return Profile{
		UserID:       rec.UserID,
		DisplayName:  rec.DisplayName,
		Age:          rec.Age,
		Program:      rec.Program,
		Year:         rec.Year,
		Interests:    rec.Interests,
		Prompts:      prompts,
		Photos:       rec.Photos,
		Discoverable: rec.Discoverable,
	}
}
