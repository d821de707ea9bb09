package swipes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/raydius-app/backend/internal/domain/enums"
	pgrepo "github.com/raydius-app/backend/internal/repo/postgres"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrUnsupportedAction = errors.New("unsupported action")
)

type ActionLedger interface {
	InsertOnce(ctx context.Context, tx pgx.Tx, viewerUserID, targetUserID int64, action string, now time.Time) (pgrepo.SwipeRecord, bool, error)
}

type MatchStore interface {
	CreateIfMutualLike(ctx context.Context, tx pgx.Tx, userID, targetID int64) (bool, error)
}

type Service struct {
	tx      pgrepo.TxRunner
	ledger  ActionLedger
	matches MatchStore
	now     func() time.Time
}

type Dependencies struct {
	Tx      pgrepo.TxRunner
	Ledger  ActionLedger
	Matches MatchStore
}

// SwipeResult describes the outcome of one recorded action.
// AlreadyActed means the pair had a prior decision and nothing changed;
// MatchCreated is true only on the single call that completed a mutual
// like.
type SwipeResult struct {
	Accepted     bool
	AlreadyActed bool
	MatchCreated bool
}

func NewService(deps Dependencies) *Service {
	return &Service{
		tx:      deps.Tx,
		ledger:  deps.Ledger,
		matches: deps.Matches,
		now:     time.Now,
	}
}

// Record writes the viewer's decision on a target. The ledger insert
// and the conditional match creation run in one transaction, so a
// reported match always has both like rows committed with it.
func (s *Service) Record(ctx context.Context, viewerID, targetID int64, action string) (SwipeResult, error) {
	if viewerID <= 0 || targetID <= 0 {
		return SwipeResult{}, ErrValidation
	}
	if viewerID == targetID {
		return SwipeResult{}, ErrValidation
	}

	kind := enums.SwipeAction(strings.ToUpper(strings.TrimSpace(action)))
	switch kind {
	case enums.SwipeActionPass, enums.SwipeActionLike, enums.SwipeActionSuperLike:
	default:
		return SwipeResult{}, ErrUnsupportedAction
	}

	if s.tx == nil || s.ledger == nil || s.matches == nil {
		return SwipeResult{}, fmt.Errorf("swipe dependencies are not configured")
	}

	var result SwipeResult
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, inserted, err := s.ledger.InsertOnce(ctx, tx, viewerID, targetID, string(kind), s.now().UTC())
		if err != nil {
			return fmt.Errorf("record swipe: %w", err)
		}
		if !inserted {
			// Duplicate for this pair: the stored decision stands and
			// no match check runs, so replays can never re-emit.
			result = SwipeResult{AlreadyActed: true}
			return nil
		}

		result.Accepted = true
		if !kind.Positive() {
			return nil
		}

		created, err := s.matches.CreateIfMutualLike(ctx, tx, viewerID, targetID)
		if err != nil {
			return fmt.Errorf("check mutual like: %w", err)
		}
		result.MatchCreated = created
		return nil
	})
	if err != nil {
		return SwipeResult{}, err
	}

	return result, nil
}
