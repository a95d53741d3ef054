package model

import "time"

type Profile struct {
	UserID          int64        `json:"user_id"`
	DisplayName     string       `json:"display_name"`
	Gender          string       `json:"gender"`
	BirthDate       *time.Time   `json:"birth_date"`
	HeightCM        int          `json:"height_cm"`
	Heritage        []string     `json:"heritage"`
	Religion        []string     `json:"religion"`
	Languages       []string     `json:"languages"`
	Education       string       `json:"education"`
	FamilyPlan      string       `json:"family_plan"`
	ChildrenStatus  string       `json:"children_status"`
	Drugs           string       `json:"drugs"`
	Smoking         string       `json:"smoking"`
	Marijuana       string       `json:"marijuana"`
	Drinking        string       `json:"drinking"`
	Lat             *float64     `json:"lat"`
	Lon             *float64     `json:"lon"`
	GlobalDiscovery bool         `json:"global_discovery"`
	Discoverable    bool         `json:"discoverable"`
	Active          bool         `json:"active"`
	MaxDistanceKM   int          `json:"max_distance_km"`
	Preferences     *Preferences `json:"preferences"`
	Tier            Tier         `json:"tier"`
	LastActiveAt    time.Time    `json:"last_active_at"`
}

func (p Profile) HasLocation() bool {
	return p.Lat != nil && p.Lon != nil
}

// Age is computed in UTC; zero when the birth date is unknown.
func (p Profile) Age(at time.Time) int {
	if p.BirthDate == nil || p.BirthDate.IsZero() {
		return 0
	}
	born := p.BirthDate.UTC()
	at = at.UTC()
	age := at.Year() - born.Year()
	if at.Month() < born.Month() || (at.Month() == born.Month() && at.Day() < born.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

type Preferences struct {
	Genders           []string `json:"genders"`
	AgeMin            int      `json:"age_min"`
	AgeMax            int      `json:"age_max"`
	AcceptedHeritage  []string `json:"accepted_heritage"`
	AcceptedReligion  []string `json:"accepted_religion"`
	AcceptedLanguages []string `json:"accepted_languages"`

	HeightMinCM    int      `json:"height_min_cm"`
	HeightMaxCM    int      `json:"height_max_cm"`
	Education      []string `json:"education"`
	FamilyPlans    []string `json:"family_plans"`
	ChildrenStatus []string `json:"children_status"`
	Drugs          []string `json:"drugs"`
	Smoking        []string `json:"smoking"`
	Marijuana      []string `json:"marijuana"`
	Drinking       []string `json:"drinking"`
}
