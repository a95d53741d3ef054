package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PhotoRepo struct {
	pool *pgxpool.Pool
}

func NewPhotoRepo(pool *pgxpool.Pool) *PhotoRepo {
	return &PhotoRepo{pool: pool}
}

func (r *PhotoRepo) ListPhotoKeys(ctx context.Context, userID int64, limit int) ([]string, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 6
	}
	if r.pool == nil {
		return []string{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT s3_key
FROM photos
WHERE user_id = $1 AND status = 'active'
ORDER BY position ASC, created_at ASC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list photo keys: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0, limit)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan photo key: %w", err)
		}
		keys = append(keys, key)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate photo keys: %w", rows.Err())
	}
	return keys, nil
}
