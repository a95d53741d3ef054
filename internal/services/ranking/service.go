package ranking

import (
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/ivankudzin/kinmatch/internal/domain/model"
	"github.com/ivankudzin/kinmatch/internal/domain/rules"
)

type Scorer interface {
	Score(a, b model.Profile) float64
}

type Ranked struct {
	Profile    model.Profile
	Score      float64
	DistanceKM *float64
}

type Engine struct {
	scorer Scorer

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewEngine(scorer Scorer) *Engine {
	seed := uint64(time.Now().UnixNano())
	return NewEngineWithRand(scorer, rand.New(rand.NewPCG(seed, seed>>1|1)))
}

// NewEngineWithRand fixes the tie-break source, so global-mode order is reproducible.
func NewEngineWithRand(scorer Scorer, rnd *rand.Rand) *Engine {
	return &Engine{scorer: scorer, rnd: rnd}
}

// Rank orders candidates by score descending. Equal scores are shuffled in global mode
// and ordered by ascending distance otherwise, unknown distances last.
func (e *Engine) Rank(requester model.Profile, candidates []model.Profile) []Ranked {
	out := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Ranked{
			Profile:    c,
			Score:      e.scorer.Score(requester, c),
			DistanceKM: rules.DistanceBetween(requester, c),
		})
	}

	if requester.GlobalDiscovery {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
		e.shuffleTies(out)
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return closer(out[i].DistanceKM, out[j].DistanceKM)
	})
	return out
}

func (e *Engine) shuffleTies(items []Ranked) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for start := 0; start < len(items); {
		end := start + 1
		for end < len(items) && items[end].Score == items[start].Score {
			end++
		}
		if end-start > 1 {
			run := items[start:end]
			e.rnd.Shuffle(len(run), func(i, j int) { run[i], run[j] = run[j], run[i] })
		}
		start = end
	}
}

func closer(a, b *float64) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}
