package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ivankudzin/kinmatch/internal/domain/enums"
)

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if !isUniqueViolation(wrapped) {
		t.Fatalf("expected wrapped 23505 to be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation must not be treated as unique violation")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Fatalf("plain error must not be treated as unique violation")
	}
}

func TestTxBoundMethodsRequireTransaction(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	if _, err := NewSwipeRepo(nil).Create(ctx, nil, 1, 2, enums.SwipeKindLike, now); err == nil {
		t.Fatalf("expected error without transaction")
	}
	if _, err := NewUsageRepo(nil).LockForUpdate(ctx, nil, 1); err == nil {
		t.Fatalf("expected error without transaction")
	}
	if _, err := NewConversationRepo(nil).CreateConversation(ctx, nil, 1, 2); err == nil {
		t.Fatalf("expected error without transaction")
	}
	if _, err := NewMatchRepo(nil).Create(ctx, nil, 1, 2, "", now); err == nil {
		t.Fatalf("expected error without transaction")
	}
	if err := NewTxManager(nil).LockPair(ctx, nil, 1, 2); err == nil {
		t.Fatalf("expected error without transaction")
	}
}

func TestWithTxRequiresPool(t *testing.T) {
	if err := NewTxManager(nil).WithTx(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil pool")
	}
}

func TestNilPoolReadsDegrade(t *testing.T) {
	ctx := context.Background()

	tier, err := NewTierRepo(nil).GetTier(ctx, 7)
	if err != nil || tier.Kind != enums.TierKindFree {
		t.Fatalf("expected free tier without pool, got %+v err=%v", tier, err)
	}
	counters, err := NewUsageRepo(nil).Get(ctx, 7)
	if err != nil || counters.UserID != 7 || counters.LikesUsed != 0 {
		t.Fatalf("expected zero counters without pool, got %+v err=%v", counters, err)
	}
	if blocked, err := NewBlockRepo(nil).IsBlocked(ctx, 1, 2); err != nil || blocked {
		t.Fatalf("expected not blocked without pool, got %v err=%v", blocked, err)
	}
	if keys, err := NewPhotoRepo(nil).ListPhotoKeys(ctx, 7, 0); err != nil || len(keys) != 0 {
		t.Fatalf("expected no keys without pool, got %v err=%v", keys, err)
	}
}

type execRecorder struct {
	pgx.Tx
	sql  string
	args []any
}

func (r *execRecorder) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.sql = sql
	r.args = args
	return pgconn.NewCommandTag("SELECT 1"), nil
}

func TestLockPairSendsTextKey(t *testing.T) {
	forward := &execRecorder{}
	if err := NewTxManager(nil).LockPair(context.Background(), forward, 42, 7); err != nil {
		t.Fatalf("lock pair: %v", err)
	}
	backward := &execRecorder{}
	if err := NewTxManager(nil).LockPair(context.Background(), backward, 7, 42); err != nil {
		t.Fatalf("lock pair: %v", err)
	}

	if len(forward.args) != 1 {
		t.Fatalf("expected a single lock key argument, got %v", forward.args)
	}
	if forward.args[0] != "7:42" || backward.args[0] != forward.args[0] {
		t.Fatalf("unexpected lock keys: %v %v", forward.args, backward.args)
	}

	// hashtextextended takes text, so every argument must encode as text.
	types := pgtype.NewMap()
	for _, arg := range forward.args {
		if _, err := types.Encode(pgtype.TextOID, pgtype.TextFormatCode, arg, nil); err != nil {
			t.Fatalf("encode lock key %v as text: %v", arg, err)
		}
	}
}
