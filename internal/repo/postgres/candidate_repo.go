package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CandidateRepo struct {
	pool *pgxpool.Pool
}

func NewCandidateRepo(pool *pgxpool.Pool) *CandidateRepo {
	return &CandidateRepo{pool: pool}
}

type CandidateQuery struct {
	ViewerUserID    int64
	HasCursor       bool
	CursorCreatedAt time.Time
	CursorUserID    int64
	Limit           int
}

type CandidateRecord struct {
	UserID      int64
	DisplayName string
	Age         int
	Program     string
	Year        string
	Interests   []string
	Prompts     []PromptRecord
	Photos      []string
	CreatedAt   time.Time
}

// ListDiscoverable returns discoverable profiles other than the viewer
// in (created_at, user_id) descending order. The ordering key is total,
// so a cursor taken from the last row resumes without skips or repeats
// even while new profiles are being created.
func (r *CandidateRepo) ListDiscoverable(ctx context.Context, q CandidateQuery) ([]CandidateRecord, error) {
	if q.ViewerUserID <= 0 {
		return nil, fmt.Errorf("invalid viewer id")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("invalid limit")
	}
	if r.pool == nil {
		return []CandidateRecord{}, nil
	}

	cursorCreatedAt := q.CursorCreatedAt.UTC()
	if cursorCreatedAt.IsZero() {
		cursorCreatedAt = time.Unix(0, 0).UTC()
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	p.user_id,
	p.display_name,
	p.age,
	COALESCE(p.program, ''),
	COALESCE(p.year, ''),
	p.interests,
	p.prompts,
	p.photos,
	p.created_at
FROM profiles p
WHERE
	p.discoverable = TRUE
	AND p.user_id <> $1
	AND (
		$2::boolean = FALSE
		OR p.created_at < $3::timestamptz
		OR (p.created_at = $3::timestamptz AND p.user_id < $4::bigint)
	)
ORDER BY p.created_at DESC, p.user_id DESC
LIMIT $5
`,
		q.ViewerUserID,   // $1
		q.HasCursor,      // $2
		cursorCreatedAt,  // $3
		q.CursorUserID,   // $4
		q.Limit,          // $5
	)
	if err != nil {
		return nil, fmt.Errorf("list discoverable candidates: %w", err)
	}
	defer rows.Close()

	items := make([]CandidateRecord, 0, q.Limit)
	for rows.Next() {
		var item CandidateRecord
		var rawPrompts []byte
		if err := rows.Scan(
			&item.UserID,
			&item.DisplayName,
			&item.Age,
			&item.Program,
			&item.Year,
			&item.Interests,
			&rawPrompts,
			&item.Photos,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if len(rawPrompts) > 0 {
			if err := json.Unmarshal(rawPrompts, &item.Prompts); err != nil {
				return nil, fmt.Errorf("unmarshal candidate prompts: %w", err)
			}
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate candidates: %w", rows.Err())
	}

	return items, nil
}
