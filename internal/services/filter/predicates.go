package filter

import (
	"strings"
	"time"

	"github.com/ivankudzin/kinmatch/internal/domain/model"
)

// Predicate reports whether candidate stays in the requester's pool.
type Predicate struct {
	Name  string
	Match func(requester, candidate model.Profile) bool
}

// ResolveFilterSet picks the predicate stack once per request. Subscriber predicates are
// included only while the tier is premium and unexpired.
func ResolveFilterSet(tier model.Tier, now time.Time) []Predicate {
	out := []Predicate{
		{Name: "eligible", Match: eligible},
		{Name: "gender", Match: matchGender},
		{Name: "age", Match: ageWindow(now)},
		{Name: "heritage", Match: matchHeritage},
		{Name: "religion", Match: matchReligion},
	}
	if !tier.PremiumActive(now) {
		return out
	}
	return append(out,
		Predicate{Name: "height", Match: matchHeight},
		valuePredicate("education", func(p *model.Preferences) []string { return p.Education }, func(c model.Profile) string { return c.Education }),
		valuePredicate("family_plan", func(p *model.Preferences) []string { return p.FamilyPlans }, func(c model.Profile) string { return c.FamilyPlan }),
		valuePredicate("children_status", func(p *model.Preferences) []string { return p.ChildrenStatus }, func(c model.Profile) string { return c.ChildrenStatus }),
		valuePredicate("drugs", func(p *model.Preferences) []string { return p.Drugs }, func(c model.Profile) string { return c.Drugs }),
		valuePredicate("smoking", func(p *model.Preferences) []string { return p.Smoking }, func(c model.Profile) string { return c.Smoking }),
		valuePredicate("marijuana", func(p *model.Preferences) []string { return p.Marijuana }, func(c model.Profile) string { return c.Marijuana }),
		valuePredicate("drinking", func(p *model.Preferences) []string { return p.Drinking }, func(c model.Profile) string { return c.Drinking }),
	)
}

func eligible(requester, candidate model.Profile) bool {
	return candidate.UserID != requester.UserID && candidate.Active && candidate.Discoverable
}

func matchGender(requester, candidate model.Profile) bool {
	if requester.Preferences == nil || len(requester.Preferences.Genders) == 0 {
		return true
	}
	return containsFold(requester.Preferences.Genders, candidate.Gender)
}

// ageWindow turns the age bounds into a birth date window anchored at now.
func ageWindow(now time.Time) func(requester, candidate model.Profile) bool {
	now = now.UTC()
	return func(requester, candidate model.Profile) bool {
		prefs := requester.Preferences
		if prefs == nil || (prefs.AgeMin <= 0 && prefs.AgeMax <= 0) {
			return true
		}
		if candidate.BirthDate == nil {
			return false
		}
		born := candidate.BirthDate.UTC()
		if prefs.AgeMin > 0 && born.After(now.AddDate(-prefs.AgeMin, 0, 0)) {
			return false
		}
		if prefs.AgeMax > 0 && !born.After(now.AddDate(-(prefs.AgeMax + 1), 0, 0)) {
			return false
		}
		return true
	}
}

func matchHeritage(requester, candidate model.Profile) bool {
	if requester.Preferences == nil {
		return true
	}
	return anyAccepted(requester.Preferences.AcceptedHeritage, candidate.Heritage)
}

func matchReligion(requester, candidate model.Profile) bool {
	if requester.Preferences == nil {
		return true
	}
	return anyAccepted(requester.Preferences.AcceptedReligion, candidate.Religion)
}

func matchHeight(requester, candidate model.Profile) bool {
	prefs := requester.Preferences
	if prefs == nil || (prefs.HeightMinCM <= 0 && prefs.HeightMaxCM <= 0) {
		return true
	}
	if candidate.HeightCM <= 0 {
		return false
	}
	if prefs.HeightMinCM > 0 && candidate.HeightCM < prefs.HeightMinCM {
		return false
	}
	if prefs.HeightMaxCM > 0 && candidate.HeightCM > prefs.HeightMaxCM {
		return false
	}
	return true
}

func valuePredicate(name string, accepted func(*model.Preferences) []string, value func(model.Profile) string) Predicate {
	return Predicate{
		Name: name,
		Match: func(requester, candidate model.Profile) bool {
			if requester.Preferences == nil {
				return true
			}
			set := accepted(requester.Preferences)
			if len(set) == 0 {
				return true
			}
			return containsFold(set, value(candidate))
		},
	}
}

// anyAccepted is a no-op for an empty accepted set.
func anyAccepted(accepted, tags []string) bool {
	if len(accepted) == 0 {
		return true
	}
	for _, tag := range tags {
		if containsFold(accepted, tag) {
			return true
		}
	}
	return false
}

func containsFold(values []string, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return false
	}
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), needle) {
			return true
		}
	}
	return false
}
