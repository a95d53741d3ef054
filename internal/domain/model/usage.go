package model

import "time"

type UsageCounters struct {
	UserID          int64     `json:"user_id"`
	DayKey          string    `json:"day_key"`
	WeekKey         string    `json:"week_key"`
	LikesUsed       int       `json:"likes_used"`
	SuperLikesToday int       `json:"superlikes_today"`
	SuperLikesWeek  int       `json:"superlikes_week"`
	AdsWatched      int       `json:"ads_watched"`
	BonusLikes      int       `json:"bonus_likes"`
	UpdatedAt       time.Time `json:"updated_at"`
}
