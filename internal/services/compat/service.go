package compat

import (
	"github.com/ivankudzin/kinmatch/internal/domain/model"
)

const (
	WeightHeritage = 0.30
	WeightReligion = 0.25
	WeightLanguage = 0.25
	WeightRegional = 0.25

	NeutralScore = 50.0
	MaxScore     = 100.0
)

type Breakdown struct {
	Heritage float64 `json:"heritage"`
	Religion float64 `json:"religion"`
	Language float64 `json:"language"`
	Regional float64 `json:"regional"`
	Factors  int     `json:"factors"`
	RawTotal float64 `json:"raw_total"`
	Score    float64 `json:"score"`
	Neutral  bool    `json:"neutral"`
}

type Scorer struct {
	tables Tables
}

func NewScorer() *Scorer {
	return NewScorerWithTables(DefaultTables())
}

func NewScorerWithTables(tables Tables) *Scorer {
	return &Scorer{tables: tables}
}

// Score is in [0,100]. Profiles without preferences get the neutral score.
func (s *Scorer) Score(a, b model.Profile) float64 {
	return s.Breakdown(a, b).Score
}

func (s *Scorer) Breakdown(a, b model.Profile) Breakdown {
	if a.Preferences == nil || b.Preferences == nil {
		return Breakdown{
			Heritage: NeutralScore,
			Religion: NeutralScore,
			Language: NeutralScore,
			Regional: NeutralScore,
			RawTotal: NeutralScore,
			Score:    NeutralScore,
			Neutral:  true,
		}
	}

	aHeritage, bHeritage := normalizeTags(a.Heritage), normalizeTags(b.Heritage)

	out := Breakdown{
		Heritage: tiered(
			aHeritage, bHeritage,
			normalizeTags(a.Preferences.AcceptedHeritage), normalizeTags(b.Preferences.AcceptedHeritage),
			s.tables.RelatedHeritage, 30,
		),
		Religion: tiered(
			normalizeTags(a.Religion), normalizeTags(b.Religion),
			normalizeTags(a.Preferences.AcceptedReligion), normalizeTags(b.Preferences.AcceptedReligion),
			s.tables.CompatibleReligions, 40,
		),
		Language: s.languageScore(a, b),
		Regional: s.regionalScore(aHeritage, bHeritage),
		Factors:  4,
	}
	out.RawTotal = out.Heritage*WeightHeritage +
		out.Religion*WeightReligion +
		out.Language*WeightLanguage +
		out.Regional*WeightRegional
	out.Score = clamp(out.RawTotal)
	return out
}

// tiered scores heritage and religion: overlap, mutual acceptance, one-way acceptance,
// related group, fallback.
func tiered(aTags, bTags, aAccepted, bAccepted []string, groups map[string][]string, fallback float64) float64 {
	if len(aTags) == 0 || len(bTags) == 0 {
		return NeutralScore
	}
	if intersects(aTags, bTags) {
		return 100
	}

	aAcceptsB := intersects(aAccepted, bTags)
	bAcceptsA := intersects(bAccepted, aTags)
	switch {
	case aAcceptsB && bAcceptsA:
		return 90
	case aAcceptsB || bAcceptsA:
		return 70
	}

	for _, x := range aTags {
		for _, y := range bTags {
			if related(groups, x, y) {
				return 60
			}
		}
	}
	return fallback
}

func (s *Scorer) languageScore(a, b model.Profile) float64 {
	aLangs, bLangs := normalizeTags(a.Languages), normalizeTags(b.Languages)
	if len(aLangs) == 0 || len(bLangs) == 0 {
		return NeutralScore
	}
	common := intersect(aLangs, bLangs)
	if len(common) == 0 {
		return 20
	}

	score := 40.0
	score += minf(30, float64(len(common)-1)*10)

	significant := 0
	for _, lang := range common {
		if _, ok := s.tables.SignificantLanguage[lang]; ok {
			significant++
		}
	}
	score += minf(30, float64(significant)*15)

	family := 0.0
	for _, members := range s.tables.LanguageFamilies {
		switch shared := len(intersect(common, members)); {
		case shared >= 2:
			family += 10
		case shared == 1:
			family += 5
		}
	}
	score += minf(20, family)

	preference := 0.0
	if b.Preferences != nil && intersects(aLangs, normalizeTags(b.Preferences.AcceptedLanguages)) {
		preference += 5
	}
	if a.Preferences != nil && intersects(bLangs, normalizeTags(a.Preferences.AcceptedLanguages)) {
		preference += 5
	}
	score += minf(10, preference)

	return minf(MaxScore, score)
}

func (s *Scorer) regionalScore(aHeritage, bHeritage []string) float64 {
	if len(aHeritage) == 0 || len(bHeritage) == 0 {
		return NeutralScore
	}
	if intersects(aHeritage, bHeritage) {
		return 100
	}

	best := 0.0
	for _, x := range aHeritage {
		for _, y := range bHeritage {
			shared := len(intersect(s.tables.HeritageRegions[x], s.tables.HeritageRegions[y]))
			if v := minf(80, float64(shared)*20); v > best {
				best = v
			}
		}
	}
	if best < NeutralScore {
		return NeutralScore
	}
	return best
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return minf(MaxScore, v)
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
