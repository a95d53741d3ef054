package filter

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ivankudzin/kinmatch/internal/domain/model"
	"github.com/ivankudzin/kinmatch/internal/domain/rules"
)

const (
	DefaultFetchLimit    = 500
	DefaultPoolCap       = 100
	DefaultResultCap     = 30
	DefaultMaxDistanceKM = 100
)

type CandidateSource interface {
	ListCandidates(ctx context.Context, requesterID int64, excluded []int64, limit int) ([]model.Profile, error)
}

type Config struct {
	FetchLimit           int
	PoolCap              int
	ResultCap            int
	DefaultMaxDistanceKM int
}

type Service struct {
	source CandidateSource
	cfg    Config
	now    func() time.Time
}

func NewService(source CandidateSource, cfg Config) *Service {
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = DefaultFetchLimit
	}
	if cfg.PoolCap <= 0 {
		cfg.PoolCap = DefaultPoolCap
	}
	if cfg.ResultCap <= 0 {
		cfg.ResultCap = DefaultResultCap
	}
	if cfg.DefaultMaxDistanceKM <= 0 {
		cfg.DefaultMaxDistanceKM = DefaultMaxDistanceKM
	}
	return &Service{
		source: source,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (s *Service) ResultCap() int {
	return s.cfg.ResultCap
}

// Filter returns the eligible candidates for requester. The requester is always excluded.
func (s *Service) Filter(ctx context.Context, requester *model.Profile, excluded map[int64]struct{}) ([]model.Profile, error) {
	if requester == nil || requester.UserID <= 0 {
		return nil, nil
	}
	if s.source == nil {
		return nil, fmt.Errorf("candidate source is not configured")
	}

	skip := make(map[int64]struct{}, len(excluded)+1)
	for id := range excluded {
		skip[id] = struct{}{}
	}
	skip[requester.UserID] = struct{}{}

	ids := make([]int64, 0, len(skip))
	for id := range skip {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	pool, err := s.source.ListCandidates(ctx, requester.UserID, ids, s.cfg.FetchLimit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	remaining := make([]model.Profile, 0, len(pool))
	for _, candidate := range pool {
		if _, ok := skip[candidate.UserID]; ok {
			continue
		}
		remaining = append(remaining, candidate)
	}
	return s.Apply(*requester, remaining, s.now()), nil
}

// Apply runs the tier predicates and the geographic policy over pool.
func (s *Service) Apply(requester model.Profile, pool []model.Profile, now time.Time) []model.Profile {
	predicates := ResolveFilterSet(requester.Tier, now)

	survivors := make([]model.Profile, 0, len(pool))
	for _, candidate := range pool {
		if matchAll(predicates, requester, candidate) {
			survivors = append(survivors, candidate)
		}
	}

	if requester.GlobalDiscovery || !requester.HasLocation() {
		return capProfiles(survivors, s.cfg.ResultCap)
	}

	radius := float64(requester.MaxDistanceKM)
	if radius <= 0 {
		radius = float64(s.cfg.DefaultMaxDistanceKM)
	}
	nearby := make([]model.Profile, 0, s.cfg.ResultCap)
	for _, candidate := range capProfiles(survivors, s.cfg.PoolCap) {
		distance := rules.DistanceBetween(requester, candidate)
		if distance == nil || *distance > radius {
			continue
		}
		nearby = append(nearby, candidate)
		if len(nearby) == s.cfg.ResultCap {
			break
		}
	}
	return nearby
}

func matchAll(predicates []Predicate, requester, candidate model.Profile) bool {
	for _, p := range predicates {
		if !p.Match(requester, candidate) {
			return false
		}
	}
	return true
}

func capProfiles(items []model.Profile, limit int) []model.Profile {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
