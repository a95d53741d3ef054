package swipes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/kinmatch/internal/domain/enums"
	"github.com/ivankudzin/kinmatch/internal/domain/model"
	"github.com/ivankudzin/kinmatch/internal/infra/metrics"
	pgrepo "github.com/ivankudzin/kinmatch/internal/repo/postgres"
	usagesvc "github.com/ivankudzin/kinmatch/internal/services/usage"
)

const DefaultUndoWindow = 5 * time.Minute

var (
	ErrValidation = errors.New("validation error")

	errAlreadyProcessed = errors.New("already processed")
)

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

type PairLocker interface {
	LockPair(ctx context.Context, tx pgx.Tx, userA, userB int64) error
}

type ProfileStore interface {
	GetProfile(ctx context.Context, userID int64) (model.Profile, error)
}

type BlockChecker interface {
	IsBlocked(ctx context.Context, userA, userB int64) (bool, error)
}

type SwipeStore interface {
	Exists(ctx context.Context, tx pgx.Tx, actorUserID, targetUserID int64) (bool, error)
	Create(ctx context.Context, tx pgx.Tx, actorUserID, targetUserID int64, kind enums.SwipeKind, now time.Time) (model.SwipeRecord, error)
	FindReciprocalLike(ctx context.Context, tx pgx.Tx, actorUserID, targetUserID int64) (model.SwipeRecord, error)
	MarkMatched(ctx context.Context, tx pgx.Tx, swipeIDs ...int64) error
	LastPassSince(ctx context.Context, tx pgx.Tx, actorUserID int64, since time.Time) (model.SwipeRecord, error)
	DeleteByID(ctx context.Context, tx pgx.Tx, swipeID int64) error
}

type MatchStore interface {
	Create(ctx context.Context, tx pgx.Tx, userA, userB int64, conversationID string, now time.Time) (model.Match, error)
}

type ConversationCreator interface {
	CreateConversation(ctx context.Context, tx pgx.Tx, userA, userB int64) (string, error)
}

type UsageLimiter interface {
	ConsumeTx(ctx context.Context, tx pgx.Tx, userID int64, action enums.UsageAction) (usagesvc.Limits, error)
	GetLimits(ctx context.Context, userID int64) (usagesvc.Limits, error)
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...int64) error
}

type Config struct {
	UndoWindow time.Duration
}

type Result struct {
	Outcome        enums.SwipeOutcome
	Kind           enums.SwipeKind
	TargetID       int64
	MatchID        int64
	ConversationID string
	Usage          usagesvc.Limits
}

type UndoResult struct {
	Outcome  enums.SwipeOutcome
	TargetID int64
	Usage    usagesvc.Limits
}

type Service struct {
	tx            Transactor
	locker        PairLocker
	profiles      ProfileStore
	blocks        BlockChecker
	swipeStore    SwipeStore
	matchStore    MatchStore
	conversations ConversationCreator
	usage         UsageLimiter
	cache         CacheInvalidator
	cfg           Config
	now           func() time.Time
}

type Dependencies struct {
	Tx            Transactor
	Locker        PairLocker
	Profiles      ProfileStore
	Blocks        BlockChecker
	SwipeStore    SwipeStore
	MatchStore    MatchStore
	Conversations ConversationCreator
	Usage         UsageLimiter
	Cache         CacheInvalidator
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.UndoWindow <= 0 {
		cfg.UndoWindow = DefaultUndoWindow
	}

	return &Service{
		tx:            deps.Tx,
		locker:        deps.Locker,
		profiles:      deps.Profiles,
		blocks:        deps.Blocks,
		swipeStore:    deps.SwipeStore,
		matchStore:    deps.MatchStore,
		conversations: deps.Conversations,
		usage:         deps.Usage,
		cache:         deps.Cache,
		cfg:           cfg,
		now:           time.Now,
	}
}

// Swipe records actor's decision on target. Expected business failures are reported
// through Result.Outcome; only infrastructure failures are returned as errors.
func (s *Service) Swipe(ctx context.Context, actorID, targetID int64, kind enums.SwipeKind) (Result, error) {
	if actorID <= 0 || targetID <= 0 || actorID == targetID {
		return Result{}, ErrValidation
	}
	if !kind.Valid() {
		return Result{}, ErrValidation
	}
	if s.tx == nil || s.profiles == nil || s.swipeStore == nil || s.matchStore == nil || s.conversations == nil || s.usage == nil {
		return Result{}, fmt.Errorf("swipe dependencies are not configured")
	}

	result := Result{Kind: kind, TargetID: targetID}

	target, err := s.profiles.GetProfile(ctx, targetID)
	if err != nil && !errors.Is(err, pgrepo.ErrProfileNotFound) {
		return Result{}, fmt.Errorf("load target profile: %w", err)
	}
	if err != nil || !target.Active {
		return s.finish(ctx, actorID, result, enums.SwipeOutcomeUserNotFound, nil)
	}

	if s.blocks != nil {
		blocked, err := s.blocks.IsBlocked(ctx, actorID, targetID)
		if err != nil {
			return Result{}, fmt.Errorf("check block: %w", err)
		}
		if blocked {
			return s.finish(ctx, actorID, result, enums.SwipeOutcomeUserBlocked, nil)
		}
	}

	now := s.now().UTC()
	var limits *usagesvc.Limits
	outcome := recordedOutcome(kind)

	err = s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		if s.locker != nil {
			if err := s.locker.LockPair(txCtx, tx, actorID, targetID); err != nil {
				return err
			}
		}

		exists, err := s.swipeStore.Exists(txCtx, tx, actorID, targetID)
		if err != nil {
			return err
		}
		if exists {
			return errAlreadyProcessed
		}

		if kind.IsLike() {
			consumed, err := s.usage.ConsumeTx(txCtx, tx, actorID, usageAction(kind))
			limits = &consumed
			if err != nil {
				return err
			}
		}

		record, err := s.swipeStore.Create(txCtx, tx, actorID, targetID, kind, now)
		if err != nil {
			if errors.Is(err, pgrepo.ErrSwipeExists) {
				// the consumed quota rolls back with the tx
				limits = nil
				return errAlreadyProcessed
			}
			return err
		}
		if !kind.IsLike() {
			return nil
		}

		reciprocal, err := s.swipeStore.FindReciprocalLike(txCtx, tx, actorID, targetID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrSwipeNotFound) {
				return nil
			}
			return err
		}
		if err := s.swipeStore.MarkMatched(txCtx, tx, record.ID, reciprocal.ID); err != nil {
			return err
		}

		conversationID, err := s.conversations.CreateConversation(txCtx, tx, actorID, targetID)
		if err != nil {
			return err
		}
		match, err := s.matchStore.Create(txCtx, tx, actorID, targetID, conversationID, now)
		if err != nil {
			return err
		}
		result.MatchID = match.ID
		result.ConversationID = match.ConversationID
		outcome = enums.SwipeOutcomeMatchCreated
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, errAlreadyProcessed):
		return s.finish(ctx, actorID, result, enums.SwipeOutcomeAlreadyProcessed, limits)
	case errors.Is(err, usagesvc.ErrLimitReached):
		return s.finish(ctx, actorID, result, enums.SwipeOutcomeLimitReached, limits)
	default:
		return Result{}, fmt.Errorf("record swipe: %w", err)
	}

	if outcome == enums.SwipeOutcomeMatchCreated {
		metrics.ObserveMatch()
		s.invalidate(ctx, actorID, targetID)
	} else {
		s.invalidate(ctx, actorID)
	}
	return s.finish(ctx, actorID, result, outcome, limits)
}

// UndoLastSwipe removes the actor's latest pass if it is younger than the undo window.
// Passes never consume quota, so nothing is refunded.
func (s *Service) UndoLastSwipe(ctx context.Context, actorID int64) (UndoResult, error) {
	if actorID <= 0 {
		return UndoResult{}, ErrValidation
	}
	if s.tx == nil || s.swipeStore == nil || s.usage == nil {
		return UndoResult{}, fmt.Errorf("swipe dependencies are not configured")
	}

	since := s.now().UTC().Add(-s.cfg.UndoWindow)
	out := UndoResult{Outcome: enums.SwipeOutcomeSwipeUndone}

	err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		last, err := s.swipeStore.LastPassSince(txCtx, tx, actorID, since)
		if err != nil {
			return err
		}
		if err := s.swipeStore.DeleteByID(txCtx, tx, last.ID); err != nil {
			return err
		}
		out.TargetID = last.TargetUserID
		return nil
	})
	switch {
	case err == nil:
		s.invalidate(ctx, actorID)
	case errors.Is(err, pgrepo.ErrSwipeNotFound):
		out = UndoResult{Outcome: enums.SwipeOutcomeNoRecentPassToUndo}
	default:
		return UndoResult{}, fmt.Errorf("undo swipe: %w", err)
	}

	metrics.ObserveSwipe("undo", string(out.Outcome))
	limits, err := s.usage.GetLimits(ctx, actorID)
	if err != nil {
		return UndoResult{}, fmt.Errorf("read usage snapshot: %w", err)
	}
	out.Usage = limits
	return out, nil
}

func (s *Service) finish(ctx context.Context, actorID int64, result Result, outcome enums.SwipeOutcome, limits *usagesvc.Limits) (Result, error) {
	result.Outcome = outcome
	metrics.ObserveSwipe(string(result.Kind), string(outcome))

	if limits != nil {
		result.Usage = *limits
		return result, nil
	}
	snapshot, err := s.usage.GetLimits(ctx, actorID)
	if err != nil {
		return Result{}, fmt.Errorf("read usage snapshot: %w", err)
	}
	result.Usage = snapshot
	return result, nil
}

func (s *Service) invalidate(ctx context.Context, userIDs ...int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, userIDs...)
}

func recordedOutcome(kind enums.SwipeKind) enums.SwipeOutcome {
	switch kind {
	case enums.SwipeKindSuperLike:
		return enums.SwipeOutcomeSuperLikeRecorded
	case enums.SwipeKindPass:
		return enums.SwipeOutcomePassRecorded
	default:
		return enums.SwipeOutcomeLikeRecorded
	}
}

func usageAction(kind enums.SwipeKind) enums.UsageAction {
	if kind == enums.SwipeKindSuperLike {
		return enums.UsageActionSuperLike
	}
	return enums.UsageActionLike
}
