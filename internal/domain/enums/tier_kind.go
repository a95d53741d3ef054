package enums

type TierKind string

const (
	TierKindFree    TierKind = "free"
	TierKindPremium TierKind = "premium"
)
