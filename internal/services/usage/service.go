package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/kinmatch/internal/domain/enums"
	"github.com/ivankudzin/kinmatch/internal/domain/model"
	"github.com/ivankudzin/kinmatch/internal/domain/rules"
	"github.com/ivankudzin/kinmatch/internal/infra/metrics"
)

const Unlimited = -1

var (
	ErrValidation     = errors.New("validation error")
	ErrLimitReached   = errors.New("usage limit reached")
	ErrAdsUnavailable = errors.New("ads are not available for this tier")
	ErrAdLimitReached = errors.New("daily ad limit reached")
)

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

type CounterStore interface {
	// LockForUpdate creates the row on first touch and locks it for the rest of tx.
	LockForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (model.UsageCounters, error)
	Save(ctx context.Context, tx pgx.Tx, counters model.UsageCounters) error
	Get(ctx context.Context, userID int64) (model.UsageCounters, error)
}

type TierStore interface {
	GetTier(ctx context.Context, userID int64) (model.Tier, error)
}

type Config struct {
	FreeLikesPerDay          int
	FreeSuperLikesPerDay     int
	FreeSuperLikesPerWeek    int
	FreeAdsPerDay            int
	PremiumLikesPerDay       int
	PremiumSuperLikesPerDay  int
	PremiumSuperLikesPerWeek int
}

type Counter struct {
	Used      int `json:"used"`
	Max       int `json:"max"`
	Remaining int `json:"remaining"`
}

type Limits struct {
	Tier             enums.TierKind `json:"tier"`
	LikesDaily       Counter        `json:"likes_daily"`
	SuperLikesDaily  Counter        `json:"superlikes_daily"`
	SuperLikesWeekly Counter        `json:"superlikes_weekly"`
	AdsDaily         Counter        `json:"ads_daily"`
	BonusLikes       int            `json:"bonus_likes"`
	DayResetAt       time.Time      `json:"day_reset_at"`
	WeekResetAt      time.Time      `json:"week_reset_at"`
}

type Service struct {
	tx       Transactor
	counters CounterStore
	tiers    TierStore
	cfg      Config
	now      func() time.Time
}

type Dependencies struct {
	Tx       Transactor
	Counters CounterStore
	Tiers    TierStore
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.FreeLikesPerDay <= 0 {
		cfg.FreeLikesPerDay = 25
	}
	if cfg.FreeSuperLikesPerDay <= 0 {
		cfg.FreeSuperLikesPerDay = 1
	}
	if cfg.FreeSuperLikesPerWeek <= 0 {
		cfg.FreeSuperLikesPerWeek = 1
	}
	if cfg.FreeAdsPerDay <= 0 {
		cfg.FreeAdsPerDay = 5
	}
	if cfg.PremiumLikesPerDay < 0 {
		cfg.PremiumLikesPerDay = 0
	}
	if cfg.PremiumSuperLikesPerDay <= 0 {
		cfg.PremiumSuperLikesPerDay = 5
	}
	if cfg.PremiumSuperLikesPerWeek < 0 {
		cfg.PremiumSuperLikesPerWeek = 0
	}

	return &Service{
		tx:       deps.Tx,
		counters: deps.Counters,
		tiers:    deps.Tiers,
		cfg:      cfg,
		now:      time.Now,
	}
}

// CheckAndConsume runs ConsumeTx in its own transaction. A reached limit is reported as
// allowed=false rather than an error.
func (s *Service) CheckAndConsume(ctx context.Context, userID int64, action enums.UsageAction) (bool, Limits, error) {
	if s.tx == nil {
		return false, Limits{}, fmt.Errorf("usage dependencies are not configured")
	}
	var limits Limits
	err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		var err error
		limits, err = s.ConsumeTx(txCtx, tx, userID, action)
		return err
	})
	switch {
	case err == nil:
		return true, limits, nil
	case errors.Is(err, ErrLimitReached):
		return false, limits, nil
	default:
		return false, limits, err
	}
}

// ConsumeTx checks and increments the counter for action inside tx. On ErrLimitReached
// the returned limits describe the unchanged counters.
func (s *Service) ConsumeTx(ctx context.Context, tx pgx.Tx, userID int64, action enums.UsageAction) (Limits, error) {
	if userID <= 0 {
		return Limits{}, ErrValidation
	}
	if s.counters == nil || s.tiers == nil {
		return Limits{}, fmt.Errorf("usage dependencies are not configured")
	}

	now := s.now().UTC()
	tier, err := s.tiers.GetTier(ctx, userID)
	if err != nil {
		return Limits{}, fmt.Errorf("resolve tier: %w", err)
	}
	premium := tier.PremiumActive(now)

	counters, err := s.counters.LockForUpdate(ctx, tx, userID)
	if err != nil {
		return Limits{}, fmt.Errorf("lock usage counters: %w", err)
	}
	counters = Reset(counters, now)

	if err := s.apply(&counters, action, premium); err != nil {
		if errors.Is(err, ErrLimitReached) || errors.Is(err, ErrAdLimitReached) {
			metrics.ObserveQuotaRejection(string(action))
		}
		return s.limits(counters, premium, now), err
	}

	counters.UpdatedAt = now
	if err := s.counters.Save(ctx, tx, counters); err != nil {
		return Limits{}, fmt.Errorf("save usage counters: %w", err)
	}
	return s.limits(counters, premium, now), nil
}

func (s *Service) GetLimits(ctx context.Context, userID int64) (Limits, error) {
	if userID <= 0 {
		return Limits{}, ErrValidation
	}
	if s.counters == nil || s.tiers == nil {
		return Limits{}, fmt.Errorf("usage dependencies are not configured")
	}

	now := s.now().UTC()
	tier, err := s.tiers.GetTier(ctx, userID)
	if err != nil {
		return Limits{}, fmt.Errorf("resolve tier: %w", err)
	}
	counters, err := s.counters.Get(ctx, userID)
	if err != nil {
		return Limits{}, fmt.Errorf("read usage counters: %w", err)
	}
	return s.limits(Reset(counters, now), tier.PremiumActive(now), now), nil
}

// WatchAd grants one bonus like for the current day.
func (s *Service) WatchAd(ctx context.Context, userID int64) (Limits, error) {
	if s.tx == nil {
		return Limits{}, fmt.Errorf("usage dependencies are not configured")
	}
	var limits Limits
	err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		var err error
		limits, err = s.ConsumeTx(txCtx, tx, userID, enums.UsageActionAdWatch)
		return err
	})
	return limits, err
}

// Reset zeroes counters whose stored period is older than now.
func Reset(counters model.UsageCounters, now time.Time) model.UsageCounters {
	day := rules.DayKey(now)
	week := rules.WeekKey(now)
	if counters.DayKey < day {
		counters.DayKey = day
		counters.LikesUsed = 0
		counters.SuperLikesToday = 0
		counters.AdsWatched = 0
		counters.BonusLikes = 0
	}
	if counters.WeekKey < week {
		counters.WeekKey = week
		counters.SuperLikesWeek = 0
	}
	return counters
}

func (s *Service) apply(counters *model.UsageCounters, action enums.UsageAction, premium bool) error {
	switch action {
	case enums.UsageActionLike:
		if !within(counters.LikesUsed, s.likeCeiling(*counters, premium)) {
			return ErrLimitReached
		}
		counters.LikesUsed++
	case enums.UsageActionSuperLike:
		daily, weekly := s.superLikeCeilings(premium)
		if !within(counters.SuperLikesToday, daily) || !within(counters.SuperLikesWeek, weekly) {
			return ErrLimitReached
		}
		counters.SuperLikesToday++
		counters.SuperLikesWeek++
	case enums.UsageActionAdWatch:
		if premium {
			return ErrAdsUnavailable
		}
		if !within(counters.AdsWatched, s.cfg.FreeAdsPerDay) {
			return ErrAdLimitReached
		}
		counters.AdsWatched++
		counters.BonusLikes++
	default:
		return ErrValidation
	}
	return nil
}

func (s *Service) likeCeiling(counters model.UsageCounters, premium bool) int {
	if premium {
		return s.cfg.PremiumLikesPerDay
	}
	return s.cfg.FreeLikesPerDay + counters.BonusLikes
}

func (s *Service) superLikeCeilings(premium bool) (int, int) {
	if premium {
		return s.cfg.PremiumSuperLikesPerDay, s.cfg.PremiumSuperLikesPerWeek
	}
	return s.cfg.FreeSuperLikesPerDay, s.cfg.FreeSuperLikesPerWeek
}

func (s *Service) limits(counters model.UsageCounters, premium bool, now time.Time) Limits {
	daily, weekly := s.superLikeCeilings(premium)
	ads := counter(counters.AdsWatched, s.cfg.FreeAdsPerDay)
	tier := enums.TierKindFree
	if premium {
		tier = enums.TierKindPremium
		ads = Counter{Used: 0, Max: 0, Remaining: 0}
	}
	return Limits{
		Tier:             tier,
		LikesDaily:       counter(counters.LikesUsed, s.likeCeiling(counters, premium)),
		SuperLikesDaily:  counter(counters.SuperLikesToday, daily),
		SuperLikesWeekly: counter(counters.SuperLikesWeek, weekly),
		AdsDaily:         ads,
		BonusLikes:       counters.BonusLikes,
		DayResetAt:       rules.NextDayReset(now),
		WeekResetAt:      rules.NextWeekReset(now),
	}
}

// within treats a zero ceiling as unlimited.
func within(used, ceiling int) bool {
	return ceiling == 0 || used < ceiling
}

func counter(used, ceiling int) Counter {
	if ceiling == 0 {
		return Counter{Used: used, Max: Unlimited, Remaining: Unlimited}
	}
	remaining := ceiling - used
	if remaining < 0 {
		remaining = 0
	}
	return Counter{Used: used, Max: ceiling, Remaining: remaining}
}
