package model

import (
	"testing"
	"time"

	"github.com/ivankudzin/kinmatch/internal/domain/enums"
)

func TestProfileAgeBeforeAndAfterBirthday(t *testing.T) {
	born := time.Date(1995, time.June, 15, 0, 0, 0, 0, time.UTC)
	p := Profile{BirthDate: &born}

	if got := p.Age(time.Date(2026, time.June, 14, 23, 0, 0, 0, time.UTC)); got != 30 {
		t.Fatalf("unexpected age before birthday: got %d want %d", got, 30)
	}
	if got := p.Age(time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)); got != 31 {
		t.Fatalf("unexpected age on birthday: got %d want %d", got, 31)
	}
	if got := (Profile{}).Age(time.Now()); got != 0 {
		t.Fatalf("unexpected age without birth date: got %d", got)
	}
}

func TestTierPremiumActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name string
		tier Tier
		want bool
	}{
		{name: "free", tier: Tier{Kind: enums.TierKindFree}, want: false},
		{name: "premium_no_expiry", tier: Tier{Kind: enums.TierKindPremium}, want: true},
		{name: "premium_future", tier: Tier{Kind: enums.TierKindPremium, ExpiresAt: &future}, want: true},
		{name: "premium_expired", tier: Tier{Kind: enums.TierKindPremium, ExpiresAt: &past}, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.tier.PremiumActive(now); got != tc.want {
				t.Fatalf("unexpected premium state: got %v want %v", got, tc.want)
			}
		})
	}
}

func TestCanonicalPair(t *testing.T) {
	a, b := CanonicalPair(9, 3)
	if a != 3 || b != 9 {
		t.Fatalf("unexpected canonical pair: got (%d, %d)", a, b)
	}
	a, b = CanonicalPair(3, 9)
	if a != 3 || b != 9 {
		t.Fatalf("unexpected canonical pair: got (%d, %d)", a, b)
	}
}
