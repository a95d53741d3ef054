package model

type CandidateSummary struct {
	UserID      int64    `json:"user_id"`
	DisplayName string   `json:"display_name"`
	Age         int      `json:"age"`
	Gender      string   `json:"gender"`
	HeightCM    int      `json:"height_cm"`
	Heritage    []string `json:"heritage"`
	Religion    []string `json:"religion"`
	Languages   []string `json:"languages"`
	Photos      []string `json:"photos"`
	DistanceKM  *float64 `json:"distance_km,omitempty"`
	Score       float64  `json:"score"`
}
