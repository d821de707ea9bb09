package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const uploadURLTTL = 60 * time.Second

var ErrValidation = errors.New("validation error")

type Presigner interface {
	PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Service struct {
	storage Presigner
	now     func() time.Time
}

func NewService(storage Presigner) *Service {
	return &Service{
		storage: storage,
		now:     time.Now,
	}
}

type UploadTicket struct {
	URL       string
	Key       string
	ExpiresAt time.Time
}

// NewPhotoUploadURL issues a short-lived presigned PUT for one photo.
// Keys are namespaced per user with a random name, so uploads can never
// collide or touch another user's objects.
func (s *Service) NewPhotoUploadURL(ctx context.Context, userID int64) (UploadTicket, error) {
	if userID <= 0 {
		return UploadTicket{}, ErrValidation
	}
	if s.storage == nil {
		return UploadTicket{}, fmt.Errorf("media storage is not configured")
	}

	key := fmt.Sprintf("photos/%d/%s.jpg", userID, uuid.NewString())
	url, err := s.storage.PresignPut(ctx, key, uploadURLTTL)
	if err != nil {
		return UploadTicket{}, fmt.Errorf("presign photo upload: %w", err)
	}

	return UploadTicket{
		URL:       url,
		Key:       key,
		ExpiresAt: s.now().UTC().Add(uploadURLTTL),
	}, nil
}
