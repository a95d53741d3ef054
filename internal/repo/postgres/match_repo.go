package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/kinmatch/internal/domain/model"
)

type MatchRepo struct {
	pool *pgxpool.Pool
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

// Create is idempotent on the canonical pair and returns the existing match on conflict.
func (r *MatchRepo) Create(ctx context.Context, tx pgx.Tx, userID, targetID int64, conversationID string, now time.Time) (model.Match, error) {
	if userID <= 0 || targetID <= 0 || userID == targetID {
		return model.Match{}, fmt.Errorf("invalid match payload")
	}
	if tx == nil {
		return model.Match{}, fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	userA, userB := model.CanonicalPair(userID, targetID)

	var match model.Match
	err := tx.QueryRow(ctx, `
INSERT INTO matches (
	user_a_id,
	user_b_id,
	conversation_id,
	created_at
) VALUES ($1, $2, $3::uuid, $4)
ON CONFLICT (user_a_id, user_b_id) DO NOTHING
RETURNING id, user_a_id, user_b_id, conversation_id::text, created_at
`, userA, userB, conversationID, now.UTC()).Scan(
		&match.ID,
		&match.UserAID,
		&match.UserBID,
		&match.ConversationID,
		&match.CreatedAt,
	)
	if err == nil {
		return match, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Match{}, fmt.Errorf("create match: %w", err)
	}

	err = tx.QueryRow(ctx, `
SELECT id, user_a_id, user_b_id, conversation_id::text, created_at
FROM matches
WHERE user_a_id = $1 AND user_b_id = $2
`, userA, userB).Scan(
		&match.ID,
		&match.UserAID,
		&match.UserBID,
		&match.ConversationID,
		&match.CreatedAt,
	)
	if err != nil {
		return model.Match{}, fmt.Errorf("load existing match: %w", err)
	}
	return match, nil
}
