package discovery

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ivankudzin/kinmatch/internal/domain/model"
	"github.com/ivankudzin/kinmatch/internal/infra/metrics"
	pgrepo "github.com/ivankudzin/kinmatch/internal/repo/postgres"
	compatsvc "github.com/ivankudzin/kinmatch/internal/services/compat"
	"github.com/ivankudzin/kinmatch/internal/services/ranking"
)

const (
	DefaultCount = 10
	MaxCount     = 30
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

type ProfileStore interface {
	GetProfile(ctx context.Context, userID int64) (model.Profile, error)
}

type SwipeHistory interface {
	ListTargetIDs(ctx context.Context, actorUserID int64) ([]int64, error)
}

type BlockStore interface {
	ListBlockedIDs(ctx context.Context, userID int64) ([]int64, error)
	IsBlocked(ctx context.Context, userA, userB int64) (bool, error)
}

type CandidateFilter interface {
	Filter(ctx context.Context, requester *model.Profile, excluded map[int64]struct{}) ([]model.Profile, error)
}

type Ranker interface {
	Rank(requester model.Profile, candidates []model.Profile) []ranking.Ranked
}

type Explainer interface {
	Breakdown(a, b model.Profile) compatsvc.Breakdown
}

type PhotoURLProvider interface {
	PhotoURLs(ctx context.Context, userID int64) ([]string, error)
}

type Cache interface {
	GetDiscovery(ctx context.Context, userID int64) ([]model.CandidateSummary, bool, error)
	SetDiscovery(ctx context.Context, userID int64, items []model.CandidateSummary) error
}

type Config struct {
	DefaultCount int
	MaxCount     int
}

type Result struct {
	Items  []model.CandidateSummary
	Cached bool
}

type Service struct {
	profiles  ProfileStore
	swipes    SwipeHistory
	blocks    BlockStore
	filter    CandidateFilter
	ranker    Ranker
	explainer Explainer
	photos    PhotoURLProvider
	cache     Cache
	cfg       Config
	now       func() time.Time

	group singleflight.Group
}

type Dependencies struct {
	Profiles  ProfileStore
	Swipes    SwipeHistory
	Blocks    BlockStore
	Filter    CandidateFilter
	Ranker    Ranker
	Explainer Explainer
	Photos    PhotoURLProvider
	Cache     Cache
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = MaxCount
	}
	if cfg.DefaultCount <= 0 {
		cfg.DefaultCount = DefaultCount
	}
	if cfg.DefaultCount > cfg.MaxCount {
		cfg.DefaultCount = cfg.MaxCount
	}

	return &Service{
		profiles:  deps.Profiles,
		swipes:    deps.Swipes,
		blocks:    deps.Blocks,
		filter:    deps.Filter,
		ranker:    deps.Ranker,
		explainer: deps.Explainer,
		photos:    deps.Photos,
		cache:     deps.Cache,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Discover returns up to count ranked candidates. Identical concurrent requests share one
// computation and the full page is cached per requester.
func (s *Service) Discover(ctx context.Context, requesterID int64, count int) (Result, error) {
	if requesterID <= 0 {
		return Result{}, ErrValidation
	}
	if s.profiles == nil || s.filter == nil || s.ranker == nil {
		return Result{}, fmt.Errorf("discovery dependencies are not configured")
	}
	count = s.normalizeCount(count)

	if s.cache != nil {
		items, found, err := s.cache.GetDiscovery(ctx, requesterID)
		if err == nil {
			metrics.ObserveCache(found)
		}
		if err == nil && found {
			return Result{Items: s.withPhotos(ctx, truncate(items, count)), Cached: true}, nil
		}
	}

	v, err, _ := s.group.Do(strconv.FormatInt(requesterID, 10), func() (any, error) {
		return s.compute(ctx, requesterID)
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Items: s.withPhotos(ctx, truncate(v.([]model.CandidateSummary), count))}, nil
}

// Compatibility explains the score between requester and other.
func (s *Service) Compatibility(ctx context.Context, requesterID, otherID int64) (compatsvc.Breakdown, error) {
	if requesterID <= 0 || otherID <= 0 || requesterID == otherID {
		return compatsvc.Breakdown{}, ErrValidation
	}
	if s.profiles == nil || s.explainer == nil {
		return compatsvc.Breakdown{}, fmt.Errorf("discovery dependencies are not configured")
	}

	requester, err := s.loadProfile(ctx, requesterID)
	if err != nil {
		return compatsvc.Breakdown{}, err
	}
	other, err := s.loadProfile(ctx, otherID)
	if err != nil {
		return compatsvc.Breakdown{}, err
	}
	if !other.Active {
		return compatsvc.Breakdown{}, ErrNotFound
	}
	if s.blocks != nil {
		blocked, err := s.blocks.IsBlocked(ctx, requesterID, otherID)
		if err != nil {
			return compatsvc.Breakdown{}, fmt.Errorf("check block: %w", err)
		}
		if blocked {
			return compatsvc.Breakdown{}, ErrNotFound
		}
	}

	return s.explainer.Breakdown(requester, other), nil
}

func (s *Service) compute(ctx context.Context, requesterID int64) ([]model.CandidateSummary, error) {
	started := time.Now()

	requester, err := s.loadProfile(ctx, requesterID)
	if errors.Is(err, ErrNotFound) {
		return []model.CandidateSummary{}, nil
	}
	if err != nil {
		return nil, err
	}

	excluded, err := s.excluded(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.filter.Filter(ctx, &requester, excluded)
	if err != nil {
		return nil, fmt.Errorf("filter candidates: %w", err)
	}

	now := s.now().UTC()
	ranked := s.ranker.Rank(requester, candidates)
	items := make([]model.CandidateSummary, 0, len(ranked))
	for _, r := range ranked {
		metrics.ObserveScore(r.Score)
		items = append(items, summary(r, now))
	}
	metrics.ObserveDiscovery(started, len(items))

	if s.cache != nil {
		_ = s.cache.SetDiscovery(ctx, requesterID, items)
	}
	return items, nil
}

// excluded holds everyone the requester swiped on plus blocks in either direction.
func (s *Service) excluded(ctx context.Context, requesterID int64) (map[int64]struct{}, error) {
	out := map[int64]struct{}{requesterID: {}}

	if s.swipes != nil {
		ids, err := s.swipes.ListTargetIDs(ctx, requesterID)
		if err != nil {
			return nil, fmt.Errorf("list swiped users: %w", err)
		}
		for _, id := range ids {
			out[id] = struct{}{}
		}
	}
	if s.blocks != nil {
		ids, err := s.blocks.ListBlockedIDs(ctx, requesterID)
		if err != nil {
			return nil, fmt.Errorf("list blocked users: %w", err)
		}
		for _, id := range ids {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

// summary is cached, so photo URLs are attached per request by withPhotos.
func summary(r ranking.Ranked, now time.Time) model.CandidateSummary {
	p := r.Profile
	return model.CandidateSummary{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Age:         p.Age(now),
		Gender:      p.Gender,
		HeightCM:    p.HeightCM,
		Heritage:    p.Heritage,
		Religion:    p.Religion,
		Languages:   p.Languages,
		Photos:      []string{},
		DistanceKM:  roundDistance(r.DistanceKM),
		Score:       r.Score,
	}
}

// withPhotos presigns URLs for the page; a signing failure leaves the card without photos.
func (s *Service) withPhotos(ctx context.Context, items []model.CandidateSummary) []model.CandidateSummary {
	if s.photos == nil {
		return items
	}
	for i := range items {
		urls, err := s.photos.PhotoURLs(ctx, items[i].UserID)
		if err != nil || urls == nil {
			items[i].Photos = []string{}
			continue
		}
		items[i].Photos = urls
	}
	return items
}

func (s *Service) loadProfile(ctx context.Context, userID int64) (model.Profile, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

func (s *Service) normalizeCount(count int) int {
	if count <= 0 {
		return s.cfg.DefaultCount
	}
	if count > s.cfg.MaxCount {
		return s.cfg.MaxCount
	}
	return count
}

func truncate(items []model.CandidateSummary, count int) []model.CandidateSummary {
	if len(items) > count {
		items = items[:count]
	}
	out := make([]model.CandidateSummary, len(items))
	copy(out, items)
	return out
}

// roundDistance keeps one decimal so cards do not leak exact positions.
func roundDistance(d *float64) *float64 {
	if d == nil {
		return nil
	}
	v := float64(int64(*d*10+0.5)) / 10
	return &v
}
