package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/kinmatch/internal/domain/enums"
	"github.com/ivankudzin/kinmatch/internal/domain/model"
)

type TierRepo struct {
	pool *pgxpool.Pool
}

func NewTierRepo(pool *pgxpool.Pool) *TierRepo {
	return &TierRepo{pool: pool}
}

// GetTier falls back to free when the user has no subscription row.
func (r *TierRepo) GetTier(ctx context.Context, userID int64) (model.Tier, error) {
	if userID <= 0 {
		return model.Tier{}, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return model.Tier{Kind: enums.TierKindFree}, nil
	}

	var (
		kind      string
		expiresAt *time.Time
	)
	err := r.pool.QueryRow(ctx, `
SELECT kind, expires_at
FROM subscriptions
WHERE user_id = $1
LIMIT 1
`, userID).Scan(&kind, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Tier{Kind: enums.TierKindFree}, nil
		}
		return model.Tier{}, fmt.Errorf("get tier: %w", err)
	}

	tier := model.Tier{Kind: enums.TierKindFree, ExpiresAt: expiresAt}
	if kind == string(enums.TierKindPremium) {
		tier.Kind = enums.TierKindPremium
	}
	return tier, nil
}
