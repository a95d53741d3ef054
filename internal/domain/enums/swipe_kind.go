package enums

import "strings"

type SwipeKind string

const (
	SwipeKindLike      SwipeKind = "like"
	SwipeKindSuperLike SwipeKind = "superlike"
	SwipeKindPass      SwipeKind = "pass"
)

// ParseSwipeKind accepts the wire spellings used by clients ("LIKE", "super_like", "dislike").
func ParseSwipeKind(raw string) (SwipeKind, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	switch value {
	case "like":
		return SwipeKindLike, true
	case "superlike":
		return SwipeKindSuperLike, true
	case "pass", "dislike", "nope":
		return SwipeKindPass, true
	default:
		return "", false
	}
}

func (k SwipeKind) IsLike() bool {
	return k == SwipeKindLike || k == SwipeKindSuperLike
}

func (k SwipeKind) Valid() bool {
	switch k {
	case SwipeKindLike, SwipeKindSuperLike, SwipeKindPass:
		return true
	default:
		return false
	}
}
