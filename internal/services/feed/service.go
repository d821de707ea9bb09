package feed

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pgrepo "github.com/raydius-app/backend/internal/repo/postgres"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
	photoURLTTL     = 5 * time.Minute
)

var (
	ErrValidation    = errors.New("validation error")
	ErrInvalidCursor = errors.New("invalid cursor")
)

type CandidateStore interface {
	ListDiscoverable(ctx context.Context, q pgrepo.CandidateQuery) ([]pgrepo.CandidateRecord, error)
}

type ActionStore interface {
	ListDecidedTargets(ctx context.Context, viewerUserID int64, targetIDs []int64) (map[int64]struct{}, error)
}

type PhotoURLSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Config struct {
	DefaultPageSize int
	MaxPageSize     int
}

type Service struct {
	candidates CandidateStore
	actions    ActionStore
	photoSign  PhotoURLSigner
	cfg        Config
}

type Prompt struct {
	Question string
	Answer   string
}

type Candidate struct {
	UserID      int64
	DisplayName string
	Age         int
	Program     string
	Year        string
	Interests   []string
	Prompts     []Prompt
	Photos      []string
}

type Result struct {
	Candidates []Candidate
	NextCursor string
	HasMore    bool
}

// pageCursor pins the resume position to the stable
// (created_at, user_id) sort key of the last store row consumed, which
// keeps pagination gap- and repeat-free while new profiles appear.
// CreatedAt carries full nanosecond precision: the store compares the
// decoded time against its sort key exactly, so rows sharing a coarser
// timestamp bucket with the cursor row are never lost on resume.
type pageCursor struct {
	CreatedAt int64 `json:"t"`
	UserID    int64 `json:"i"`
}

func NewService(candidates CandidateStore, actions ActionStore, cfg Config) *Service {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = defaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = maxPageSize
	}

	return &Service{
		candidates: candidates,
		actions:    actions,
		cfg:        cfg,
	}
}

func (s *Service) AttachPhotoSigner(signer PhotoURLSigner) {
	s.photoSign = signer
}

// GetNextPage assembles one feed page. The store is read in overfetched
// batches and already-decided targets are dropped; reading continues
// until the page fills or the store runs out, so a viewer who has
// swiped through a long prefix still gets full pages. HasMore turns
// false only on store exhaustion, never because a batch happened to be
// mostly filtered.
func (s *Service) GetNextPage(ctx context.Context, viewerID int64, cursor string, pageSize int) (Result, error) {
	if viewerID <= 0 {
		return Result{}, ErrValidation
	}
	if s.candidates == nil || s.actions == nil {
		return Result{}, fmt.Errorf("feed dependencies are not configured")
	}
	if pageSize <= 0 {
		pageSize = s.cfg.DefaultPageSize
	}
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}

	decoded, hasCursor, err := decodeCursor(cursor)
	if err != nil {
		return Result{}, err
	}

	query := pgrepo.CandidateQuery{
		ViewerUserID: viewerID,
		HasCursor:    hasCursor,
		// One extra row per batch distinguishes "page full, more
		// behind it" from "store exhausted" without a second read.
		Limit: pageSize + 1,
	}
	if hasCursor {
		query.CursorCreatedAt = time.Unix(0, decoded.CreatedAt).UTC()
		query.CursorUserID = decoded.UserID
	}

	collected := make([]Candidate, 0, pageSize)
	var lastConsumed pgrepo.CandidateRecord
	hasMore := false

	for {
		batch, err := s.candidates.ListDiscoverable(ctx, query)
		if err != nil {
			return Result{}, err
		}
		exhausted := len(batch) < query.Limit

		decided, err := s.decidedSet(ctx, viewerID, batch)
		if err != nil {
			return Result{}, err
		}

		pageDone := false
		for i, record := range batch {
			lastConsumed = record
			if _, acted := decided[record.UserID]; !acted {
				collected = append(collected, s.toCandidate(ctx, record))
			}
			if len(collected) == pageSize {
				// Anything left in this batch, or a full batch behind
				// it, means the store still has rows past the cursor.
				hasMore = i < len(batch)-1 || !exhausted
				pageDone = true
				break
			}
		}
		if pageDone || exhausted {
			break
		}

		query.HasCursor = true
		query.CursorCreatedAt = lastConsumed.CreatedAt.UTC()
		query.CursorUserID = lastConsumed.UserID
	}

	result := Result{
		Candidates: collected,
		HasMore:    hasMore,
	}
	if hasMore {
		next, err := encodeCursor(pageCursor{
			CreatedAt: lastConsumed.CreatedAt.UTC().UnixNano(),
			UserID:    lastConsumed.UserID,
		})
		if err != nil {
			return Result{}, err
		}
		result.NextCursor = next
	}

	return result, nil
}

func (s *Service) decidedSet(ctx context.Context, viewerID int64, batch []pgrepo.CandidateRecord) (map[int64]struct{}, error) {
	if len(batch) == 0 {
		return map[int64]struct{}{}, nil
	}

	ids := make([]int64, 0, len(batch))
	for _, record := range batch {
		ids = append(ids, record.UserID)
	}

	decided, err := s.actions.ListDecidedTargets(ctx, viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("filter decided targets: %w", err)
	}
	return decided, nil
}

func (s *Service) toCandidate(ctx context.Context, record pgrepo.CandidateRecord) Candidate {
	prompts := make([]Prompt, 0, len(record.Prompts))
	for _, p := range record.Prompts {
		prompts = append(prompts, Prompt{Question: p.Question, Answer: p.Answer})
	}

	photos := make([]string, 0, len(record.Photos))
	for _, photo := range record.Photos {
		if url := s.buildPhotoURL(ctx, photo); url != "" {
			photos = append(photos, url)
		}
	}

	return Candidate{
		UserID:      record.UserID,
		DisplayName: record.DisplayName,
		Age:         record.Age,
		Program:     record.Program,
		Year:        record.Year,
		Interests:   append([]string(nil), record.Interests...),
		Prompts:     prompts,
		Photos:      photos,
	}
}

func (s *Service) buildPhotoURL(ctx context.Context, value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	// Absolute URLs pass through, bare object keys get a signed GET.
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	if s.photoSign == nil {
		return ""
	}

	url, err := s.photoSign.PresignGet(ctx, trimmed, photoURLTTL)
	if err != nil {
		return ""
	}
	return url
}

func decodeCursor(raw string) (pageCursor, bool, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return pageCursor{}, false, nil
	}

	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return pageCursor{}, false, ErrInvalidCursor
	}

	var cursor pageCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return pageCursor{}, false, ErrInvalidCursor
	}
	if cursor.CreatedAt <= 0 || cursor.UserID <= 0 {
		return pageCursor{}, false, ErrInvalidCursor
	}

	return cursor, true, nil
}

func encodeCursor(cursor pageCursor) (string, error) {
	payload, err := json.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("marshal feed cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}
