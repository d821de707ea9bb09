package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MatchRepo struct {
	pool *pgxpool.Pool
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

type MatchRecord struct {
	ID          int64
	OtherUserID int64
	DisplayName string
	Age         int
	Program     string
	Photos      []string
	CreatedAt   time.Time
}

// CreateIfMutualLike checks the reciprocal swipe and, when both sides
// liked, inserts the match on the sorted pair. Transactions touching
// the same pair are serialized by the advisory lock SwipeRepo.InsertOnce
// takes earlier in the transaction, so the reciprocal lookup here sees
// the other side's committed swipe; the conditional insert on the
// sorted pair then guarantees at most one caller reports the match.
func (r *MatchRepo) CreateIfMutualLike(ctx context.Context, tx pgx.Tx, userID, targetID int64) (bool, error) {
	if userID <= 0 || targetID <= 0 {
		return false, fmt.Errorf("invalid match payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	var one int
	err := tx.QueryRow(ctx, `
SELECT 1
FROM swipes
WHERE viewer_user_id = $1
	AND target_user_id = $2
	AND action IN ('LIKE', 'SUPERLIKE')
LIMIT 1
`, targetID, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup reciprocal like: %w", err)
	}

	userA := userID
	userB := targetID
	if userA > userB {
		userA, userB = userB, userA
	}

	var matchID int64
	err = tx.QueryRow(ctx, `
INSERT INTO matches (
	user_a_id,
	user_b_id,
	created_at
) VALUES ($1, $2, NOW())
ON CONFLICT (user_a_id, user_b_id) DO NOTHING
RETURNING id
`, userA, userB).Scan(&matchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("create match: %w", err)
	}

	return matchID > 0, nil
}

func (r *MatchRepo) ListForUser(ctx context.Context, userID int64, limit int) ([]MatchRecord, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 100
	}
	if r.pool == nil {
		return []MatchRecord{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	m.id,
	CASE WHEN m.user_a_id = $1 THEN m.user_b_id ELSE m.user_a_id END AS other_user_id,
	COALESCE(p.display_name, ''),
	COALESCE(p.age, 0),
	COALESCE(p.program, ''),
	COALESCE(p.photos, '{}'),
	m.created_at
FROM matches m
JOIN profiles p ON p.user_id = CASE WHEN m.user_a_id = $1 THEN m.user_b_id ELSE m.user_a_id END
WHERE m.user_a_id = $1 OR m.user_b_id = $1
ORDER BY m.created_at DESC, m.id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	items := make([]MatchRecord, 0, limit)
	for rows.Next() {
		var item MatchRecord
		if err := rows.Scan(
			&item.ID,
			&item.OtherUserID,
			&item.DisplayName,
			&item.Age,
			&item.Program,
			&item.Photos,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate matches: %w", rows.Err())
	}

	return items, nil
}
