package matches

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pgrepo "github.com/raydius-app/backend/internal/repo/postgres"
)

const defaultListLimit = 100

var ErrValidation = errors.New("validation error")

type MatchStore interface {
	ListForUser(ctx context.Context, userID int64, limit int) ([]pgrepo.MatchRecord, error)
}

type PhotoURLSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Service struct {
	store     MatchStore
	photoSign PhotoURLSigner
}

type Match struct {
	ID          int64
	OtherUserID int64
	DisplayName string
	Age         int
	Program     string
	Photos      []string
	MatchedAt   time.Time
}

func NewService(store MatchStore, photoSign PhotoURLSigner) *Service {
	return &Service{store: store, photoSign: photoSign}
}

// List returns the user's matches, newest first, with the counterpart
// profile card attached.
func (s *Service) List(ctx context.Context, userID int64, limit int) ([]Match, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.store == nil {
		return nil, fmt.Errorf("match store is not configured")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	records, err := s.store.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	items := make([]Match, 0, len(records))
	for _, rec := range records {
		items = append(items, Match{
			ID:          rec.ID,
			OtherUserID: rec.OtherUserID,
			DisplayName: rec.DisplayName,
			Age:         rec.Age,
			Program:     rec.Program,
			Photos:      s.photoURLs(ctx, rec.Photos),
			MatchedAt:   rec.CreatedAt,
		})
	}

	return items, nil
}

func (s *Service) photoURLs(ctx context.Context, photos []string) []string {
	out := make([]string, 0, len(photos))
	for _, photo := range photos {
		trimmed := strings.TrimSpace(photo)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
			out = append(out, trimmed)
			continue
		}
		if s.photoSign == nil {
			continue
		}
		if url, err := s.photoSign.PresignGet(ctx, trimmed, 5*time.Minute); err == nil {
			out = append(out, url)
		}
	}
	return out
}
