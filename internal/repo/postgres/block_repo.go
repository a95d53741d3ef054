package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type BlockRepo struct {
	pool *pgxpool.Pool
}

func NewBlockRepo(pool *pgxpool.Pool) *BlockRepo {
	return &BlockRepo{pool: pool}
}

// IsBlocked checks both directions.
func (r *BlockRepo) IsBlocked(ctx context.Context, userA, userB int64) (bool, error) {
	if userA <= 0 || userB <= 0 {
		return false, fmt.Errorf("invalid block lookup payload")
	}
	if r.pool == nil {
		return false, nil
	}

	var blocked bool
	if err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM blocks
	WHERE (actor_user_id = $1 AND target_user_id = $2)
		OR (actor_user_id = $2 AND target_user_id = $1)
)
`, userA, userB).Scan(&blocked); err != nil {
		return false, fmt.Errorf("check block: %w", err)
	}
	return blocked, nil
}

// ListBlockedIDs returns users blocked by userID or blocking userID.
func (r *BlockRepo) ListBlockedIDs(ctx context.Context, userID int64) ([]int64, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return []int64{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT target_user_id FROM blocks WHERE actor_user_id = $1
UNION
SELECT actor_user_id FROM blocks WHERE target_user_id = $1
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list blocked users: %w", err)
	}
	return collectIDs(rows, "blocked users")
}
