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

var (
	ErrSwipeNotFound = errors.New("swipe not found")
	ErrSwipeExists   = errors.New("swipe already exists")
)

type SwipeRepo struct {
	pool *pgxpool.Pool
}

func NewSwipeRepo(pool *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{pool: pool}
}

func (r *SwipeRepo) Exists(ctx context.Context, tx pgx.Tx, actorUserID, targetUserID int64) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	var exists bool
	if err := tx.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM swipes
	WHERE actor_user_id = $1 AND target_user_id = $2
)
`, actorUserID, targetUserID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check swipe exists: %w", err)
	}
	return exists, nil
}

// Create maps the (actor, target) unique violation to ErrSwipeExists.
func (r *SwipeRepo) Create(ctx context.Context, tx pgx.Tx, actorUserID, targetUserID int64, kind enums.SwipeKind, now time.Time) (model.SwipeRecord, error) {
	if actorUserID <= 0 || targetUserID <= 0 || !kind.Valid() {
		return model.SwipeRecord{}, fmt.Errorf("invalid swipe payload")
	}
	if tx == nil {
		return model.SwipeRecord{}, fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	rec, err := scanSwipe(tx.QueryRow(ctx, `
INSERT INTO swipes (
	actor_user_id,
	target_user_id,
	kind,
	matched,
	created_at
) VALUES ($1, $2, $3, FALSE, $4)
RETURNING id, actor_user_id, target_user_id, kind, matched, created_at
`, actorUserID, targetUserID, string(kind), now.UTC()))
	if err != nil {
		if isUniqueViolation(err) {
			return model.SwipeRecord{}, ErrSwipeExists
		}
		return model.SwipeRecord{}, fmt.Errorf("create swipe: %w", err)
	}

	return rec, nil
}

// FindReciprocalLike looks up a like or superlike from target to actor and locks it.
func (r *SwipeRepo) FindReciprocalLike(ctx context.Context, tx pgx.Tx, actorUserID, targetUserID int64) (model.SwipeRecord, error) {
	if tx == nil {
		return model.SwipeRecord{}, fmt.Errorf("transaction is required")
	}

	rec, err := scanSwipe(tx.QueryRow(ctx, `
SELECT id, actor_user_id, target_user_id, kind, matched, created_at
FROM swipes
WHERE actor_user_id = $1
	AND target_user_id = $2
	AND kind IN ('like', 'superlike')
LIMIT 1
FOR UPDATE
`, targetUserID, actorUserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.SwipeRecord{}, ErrSwipeNotFound
		}
		return model.SwipeRecord{}, fmt.Errorf("lookup reciprocal like: %w", err)
	}
	return rec, nil
}

func (r *SwipeRepo) MarkMatched(ctx context.Context, tx pgx.Tx, swipeIDs ...int64) error {
	if len(swipeIDs) == 0 {
		return nil
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	if _, err := tx.Exec(ctx, `
UPDATE swipes
SET matched = TRUE
WHERE id = ANY($1::bigint[])
`, swipeIDs); err != nil {
		return fmt.Errorf("mark swipes matched: %w", err)
	}
	return nil
}

func (r *SwipeRepo) LastPassSince(ctx context.Context, tx pgx.Tx, actorUserID int64, since time.Time) (model.SwipeRecord, error) {
	if actorUserID <= 0 {
		return model.SwipeRecord{}, fmt.Errorf("invalid actor user id")
	}
	if tx == nil {
		return model.SwipeRecord{}, fmt.Errorf("transaction is required")
	}

	rec, err := scanSwipe(tx.QueryRow(ctx, `
SELECT id, actor_user_id, target_user_id, kind, matched, created_at
FROM swipes
WHERE actor_user_id = $1
	AND kind = 'pass'
	AND created_at >= $2
ORDER BY created_at DESC, id DESC
LIMIT 1
FOR UPDATE
`, actorUserID, since.UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.SwipeRecord{}, ErrSwipeNotFound
		}
		return model.SwipeRecord{}, fmt.Errorf("get last pass by actor: %w", err)
	}
	return rec, nil
}

func (r *SwipeRepo) DeleteByID(ctx context.Context, tx pgx.Tx, swipeID int64) error {
	if swipeID <= 0 {
		return fmt.Errorf("invalid swipe id")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	result, err := tx.Exec(ctx, `
DELETE FROM swipes
WHERE id = $1
`, swipeID)
	if err != nil {
		return fmt.Errorf("delete swipe: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSwipeNotFound
	}
	return nil
}

func (r *SwipeRepo) ListTargetIDs(ctx context.Context, actorUserID int64) ([]int64, error) {
	if actorUserID <= 0 {
		return nil, fmt.Errorf("invalid actor user id")
	}
	if r.pool == nil {
		return []int64{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT target_user_id
FROM swipes
WHERE actor_user_id = $1
`, actorUserID)
	if err != nil {
		return nil, fmt.Errorf("list swiped targets: %w", err)
	}
	return collectIDs(rows, "swiped targets")
}

func scanSwipe(row pgx.Row) (model.SwipeRecord, error) {
	var (
		rec  model.SwipeRecord
		kind string
	)
	if err := row.Scan(&rec.ID, &rec.ActorUserID, &rec.TargetUserID, &kind, &rec.Matched, &rec.CreatedAt); err != nil {
		return model.SwipeRecord{}, err
	}
	rec.Kind = enums.SwipeKind(kind)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

func collectIDs(rows pgx.Rows, what string) ([]int64, error) {
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, rows.Err())
	}
	return ids, nil
}
