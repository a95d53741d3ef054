package model

import (
	"time"

	"github.com/ivankudzin/kinmatch/internal/domain/enums"
)

type Tier struct {
	Kind      enums.TierKind `json:"kind"`
	ExpiresAt *time.Time     `json:"expires_at"`
}

// PremiumActive reports a premium tier without expiry or expiring after at.
func (t Tier) PremiumActive(at time.Time) bool {
	if t.Kind != enums.TierKindPremium {
		return false
	}
	if t.ExpiresAt == nil {
		return true
	}
	return t.ExpiresAt.After(at.UTC())
}
