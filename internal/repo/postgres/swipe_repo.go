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

var ErrSwipeNotFound = errors.New("swipe not found")

type SwipeRepo struct {
	pool *pgxpool.Pool
}

func NewSwipeRepo(pool *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{pool: pool}
}

type SwipeRecord struct {
	ID           int64
	ViewerUserID int64
	TargetUserID int64
	Action       string
	CreatedAt    time.Time
}

// InsertOnce records a swipe for the ordered (viewer, target) pair at
// most once. The unique constraint on the pair makes the insert the
// serialization point for duplicates: exactly one caller gets
// inserted = true, everyone else observes the existing decision
// untouched. A repeated swipe never overwrites the stored action.
//
// Before inserting, the transaction takes an advisory lock on the
// unordered pair. The two directions of a pair live under different
// unique keys, so without the lock two concurrent reciprocal likes
// each read a snapshot taken before the other's insert and neither
// reports the match. Holding the pair lock until commit means the
// reciprocal check in the same transaction always sees the other
// side's committed row.
func (r *SwipeRepo) InsertOnce(ctx context.Context, tx pgx.Tx, viewerUserID, targetUserID int64, action string, now time.Time) (SwipeRecord, bool, error) {
	if viewerUserID <= 0 || targetUserID <= 0 || strings.TrimSpace(action) == "" {
		return SwipeRecord{}, false, fmt.Errorf("invalid swipe payload")
	}
	if tx == nil {
		return SwipeRecord{}, false, fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if _, err := tx.Exec(ctx, `
SELECT pg_advisory_xact_lock(
	hashtextextended(least($1::bigint, $2::bigint)::text || ':' || greatest($1::bigint, $2::bigint)::text, 0)
)
`, viewerUserID, targetUserID); err != nil {
		return SwipeRecord{}, false, fmt.Errorf("lock swipe pair: %w", err)
	}

	var rec SwipeRecord
	err := tx.QueryRow(ctx, `
INSERT INTO swipes (
	viewer_user_id,
	target_user_id,
	action,
	created_at
) VALUES ($1, $2, $3, $4)
ON CONFLICT (viewer_user_id, target_user_id) DO NOTHING
RETURNING id, viewer_user_id, target_user_id, action, created_at
`, viewerUserID, targetUserID, strings.ToUpper(strings.TrimSpace(action)), now.UTC()).Scan(
		&rec.ID,
		&rec.ViewerUserID,
		&rec.TargetUserID,
		&rec.Action,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SwipeRecord{}, false, nil
		}
		return SwipeRecord{}, false, fmt.Errorf("insert swipe: %w", err)
	}

	return rec, true, nil
}

func (r *SwipeRepo) Get(ctx context.Context, tx pgx.Tx, viewerUserID, targetUserID int64) (SwipeRecord, error) {
	if viewerUserID <= 0 || targetUserID <= 0 {
		return SwipeRecord{}, fmt.Errorf("invalid swipe lookup payload")
	}
	if tx == nil {
		return SwipeRecord{}, fmt.Errorf("transaction is required")
	}

	var rec SwipeRecord
	err := tx.QueryRow(ctx, `
SELECT id, viewer_user_id, target_user_id, action, created_at
FROM swipes
WHERE viewer_user_id = $1 AND target_user_id = $2
LIMIT 1
`, viewerUserID, targetUserID).Scan(
		&rec.ID,
		&rec.ViewerUserID,
		&rec.TargetUserID,
		&rec.Action,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SwipeRecord{}, ErrSwipeNotFound
		}
		return SwipeRecord{}, fmt.Errorf("get swipe: %w", err)
	}

	return rec, nil
}

// ListDecidedTargets reports which of the given targets the viewer has
// already swiped on. Used by the feed assembler to drop decided
// candidates from a fetched page.
func (r *SwipeRepo) ListDecidedTargets(ctx context.Context, viewerUserID int64, targetIDs []int64) (map[int64]struct{}, error) {
	if viewerUserID <= 0 {
		return nil, fmt.Errorf("invalid viewer id")
	}
	decided := make(map[int64]struct{}, len(targetIDs))
	if len(targetIDs) == 0 || r.pool == nil {
		return decided, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT target_user_id
FROM swipes
WHERE viewer_user_id = $1 AND target_user_id = ANY($2)
`, viewerUserID, targetIDs)
	if err != nil {
		return nil, fmt.Errorf("list decided targets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var targetID int64
		if err := rows.Scan(&targetID); err != nil {
			return nil, fmt.Errorf("scan decided target: %w", err)
		}
		decided[targetID] = struct{}{}
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate decided targets: %w", rows.Err())
	}

	return decided, nil
}
