package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/kinmatch/internal/domain/model"
)

type ConversationRepo struct {
	pool  *pgxpool.Pool
	newID func() string
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool, newID: uuid.NewString}
}

// CreateConversation returns the existing conversation when the pair already has one.
func (r *ConversationRepo) CreateConversation(ctx context.Context, tx pgx.Tx, userID, targetID int64) (string, error) {
	if userID <= 0 || targetID <= 0 || userID == targetID {
		return "", fmt.Errorf("invalid conversation payload")
	}
	if tx == nil {
		return "", fmt.Errorf("transaction is required")
	}

	userA, userB := model.CanonicalPair(userID, targetID)

	var id string
	err := tx.QueryRow(ctx, `
INSERT INTO conversations (
	id,
	user_a_id,
	user_b_id,
	created_at
) VALUES ($1::uuid, $2, $3, NOW())
ON CONFLICT (user_a_id, user_b_id) DO NOTHING
RETURNING id::text
`, r.newID(), userA, userB).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("create conversation: %w", err)
	}

	if err := tx.QueryRow(ctx, `
SELECT id::text
FROM conversations
WHERE user_a_id = $1 AND user_b_id = $2
`, userA, userB).Scan(&id); err != nil {
		return "", fmt.Errorf("load existing conversation: %w", err)
	}
	return id, nil
}
