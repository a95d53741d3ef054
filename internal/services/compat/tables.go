package compat

import "strings"

// Tables holds the fixed relation data the scorer consults. Keys are lower-case tags.
type Tables struct {
	RelatedHeritage     map[string][]string
	CompatibleReligions map[string][]string
	SignificantLanguage map[string]struct{}
	LanguageFamilies    map[string][]string
	HeritageRegions     map[string][]string
}

func DefaultTables() Tables {
	return Tables{
		RelatedHeritage: map[string][]string{
			"himalayan_buddhist": {"tibetan", "ladakhi", "bhutanese", "sikkimese", "sherpa", "monpa", "spitian"},
			"hill_nepali":        {"nepali", "gurung", "tamang", "magar", "newar", "thakali", "sherpa"},
			"eastern_himalayan":  {"lepcha", "sikkimese", "bhutanese", "monpa"},
			"inner_asian":        {"mongolian", "buryat", "kalmyk", "tuvan"},
		},
		CompatibleReligions: map[string][]string{
			"tibetan_traditions": {"buddhism", "tibetan_buddhism", "bon", "vajrayana"},
			"buddhist":           {"buddhism", "tibetan_buddhism", "theravada", "zen", "mahayana", "vajrayana"},
			"dharmic":            {"hinduism", "buddhism", "jainism", "sikhism"},
			"abrahamic":          {"christianity", "catholicism", "protestantism", "orthodox_christianity"},
			"non_religious":      {"spiritual", "agnostic", "secular"},
		},
		SignificantLanguage: setOf("tibetan", "dzongkha", "ladakhi", "sherpa", "sikkimese", "nepali", "balti"),
		LanguageFamilies: map[string][]string{
			"tibetic":    {"tibetan", "dzongkha", "ladakhi", "sherpa", "sikkimese", "balti"},
			"indo_aryan": {"nepali", "hindi", "bengali", "punjabi", "urdu"},
			"sinitic":    {"mandarin", "cantonese"},
			"mongolic":   {"mongolian", "buryat", "kalmyk"},
			"germanic":   {"english", "german", "dutch", "swedish", "norwegian"},
			"romance":    {"french", "spanish", "italian", "portuguese"},
		},
		HeritageRegions: map[string][]string{
			"tibetan":   {"tibetan_plateau", "himalaya", "central_tibet", "tibetan_buddhist_sphere"},
			"ladakhi":   {"tibetan_plateau", "himalaya", "western_himalaya", "tibetan_buddhist_sphere"},
			"spitian":   {"tibetan_plateau", "himalaya", "western_himalaya", "tibetan_buddhist_sphere"},
			"bhutanese": {"himalaya", "eastern_himalaya", "tibetan_buddhist_sphere"},
			"sikkimese": {"himalaya", "eastern_himalaya", "tibetan_buddhist_sphere", "south_asia"},
			"monpa":     {"himalaya", "eastern_himalaya", "tibetan_buddhist_sphere", "south_asia"},
			"lepcha":    {"himalaya", "eastern_himalaya", "south_asia"},
			"sherpa":    {"himalaya", "central_himalaya", "tibetan_plateau", "tibetan_buddhist_sphere"},
			"nepali":    {"himalaya", "central_himalaya", "south_asia"},
			"gurung":    {"himalaya", "central_himalaya", "south_asia"},
			"tamang":    {"himalaya", "central_himalaya", "south_asia", "tibetan_buddhist_sphere"},
			"newar":     {"himalaya", "central_himalaya", "south_asia"},
			"mongolian": {"inner_asia", "central_asia", "tibetan_buddhist_sphere"},
			"buryat":    {"inner_asia", "siberia", "tibetan_buddhist_sphere"},
			"indian":    {"south_asia"},
		},
	}
}

// related reports whether a and b share a group in the relation table.
func related(groups map[string][]string, a, b string) bool {
	for _, members := range groups {
		var hasA, hasB bool
		for _, m := range members {
			if m == a {
				hasA = true
			}
			if m == b {
				hasB = true
			}
		}
		if hasA && hasB {
			return true
		}
	}
	return false
}

func setOf(values ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

func normalizeTags(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		tag := strings.ToLower(strings.TrimSpace(v))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	lookup := setOf(b...)
	out := make([]string, 0, len(a))
	for _, v := range a {
		if _, ok := lookup[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

func intersects(a, b []string) bool {
	return len(intersect(a, b)) > 0
}
