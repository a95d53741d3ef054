package model

import "time"

type Match struct {
	ID             int64     `json:"id"`
	UserAID        int64     `json:"user_a_id"`
	UserBID        int64     `json:"user_b_id"`
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// CanonicalPair orders a pair lower id first so lookups are symmetric.
func CanonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}
