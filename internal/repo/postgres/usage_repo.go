package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/kinmatch/internal/domain/model"
)

type UsageRepo struct {
	pool *pgxpool.Pool
}

func NewUsageRepo(pool *pgxpool.Pool) *UsageRepo {
	return &UsageRepo{pool: pool}
}

const usageColumns = `
	user_id,
	COALESCE(to_char(day_key, 'YYYY-MM-DD'), ''),
	COALESCE(to_char(week_key, 'YYYY-MM-DD'), ''),
	likes_used,
	superlikes_today,
	superlikes_week,
	ads_watched,
	bonus_likes,
	updated_at`

// LockForUpdate creates the counters row on first touch and holds its lock until tx ends.
func (r *UsageRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (model.UsageCounters, error) {
	if userID <= 0 {
		return model.UsageCounters{}, fmt.Errorf("invalid user id")
	}
	if tx == nil {
		return model.UsageCounters{}, fmt.Errorf("transaction is required")
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO usage_counters (user_id, updated_at)
VALUES ($1, NOW())
ON CONFLICT (user_id) DO NOTHING
`, userID); err != nil {
		return model.UsageCounters{}, fmt.Errorf("ensure usage counters: %w", err)
	}

	counters, err := scanCounters(tx.QueryRow(ctx, `SELECT`+usageColumns+`
FROM usage_counters
WHERE user_id = $1
FOR UPDATE
`, userID))
	if err != nil {
		return model.UsageCounters{}, fmt.Errorf("lock usage counters: %w", err)
	}
	return counters, nil
}

func (r *UsageRepo) Save(ctx context.Context, tx pgx.Tx, c model.UsageCounters) error {
	if c.UserID <= 0 {
		return fmt.Errorf("invalid user id")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	if _, err := tx.Exec(ctx, `
UPDATE usage_counters SET
	day_key = NULLIF($2, '')::date,
	week_key = NULLIF($3, '')::date,
	likes_used = $4,
	superlikes_today = $5,
	superlikes_week = $6,
	ads_watched = $7,
	bonus_likes = $8,
	updated_at = $9
WHERE user_id = $1
`, c.UserID, c.DayKey, c.WeekKey, c.LikesUsed, c.SuperLikesToday, c.SuperLikesWeek, c.AdsWatched, c.BonusLikes, c.UpdatedAt.UTC()); err != nil {
		return fmt.Errorf("save usage counters: %w", err)
	}
	return nil
}

// Get returns zero counters for users that never acted.
func (r *UsageRepo) Get(ctx context.Context, userID int64) (model.UsageCounters, error) {
	if userID <= 0 {
		return model.UsageCounters{}, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return model.UsageCounters{UserID: userID}, nil
	}

	counters, err := scanCounters(r.pool.QueryRow(ctx, `SELECT`+usageColumns+`
FROM usage_counters
WHERE user_id = $1
`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.UsageCounters{UserID: userID}, nil
		}
		return model.UsageCounters{}, fmt.Errorf("get usage counters: %w", err)
	}
	return counters, nil
}

func scanCounters(row pgx.Row) (model.UsageCounters, error) {
	var c model.UsageCounters
	err := row.Scan(
		&c.UserID,
		&c.DayKey,
		&c.WeekKey,
		&c.LikesUsed,
		&c.SuperLikesToday,
		&c.SuperLikesWeek,
		&c.AdsWatched,
		&c.BonusLikes,
		&c.UpdatedAt,
	)
	return c, err
}
