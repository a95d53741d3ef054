package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/kinmatch/internal/domain/model"
)

func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(context.Context, pgx.Tx) error) error {
	if pool == nil {
		return errors.New("postgres pool is nil")
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

type TxManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

func (m *TxManager) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	return WithTx(ctx, m.pool, fn)
}

// LockPair serializes work on an unordered user pair until tx ends.
func (m *TxManager) LockPair(ctx context.Context, tx pgx.Tx, userA, userB int64) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, pairLockKey(userA, userB)); err != nil {
		return fmt.Errorf("lock user pair: %w", err)
	}
	return nil
}

func pairLockKey(userA, userB int64) string {
	low, high := model.CanonicalPair(userA, userB)
	return strconv.FormatInt(low, 10) + ":" + strconv.FormatInt(high, 10)
}
