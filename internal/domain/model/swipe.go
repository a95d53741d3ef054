package model

import (
	"time"

	"github.com/ivankudzin/kinmatch/internal/domain/enums"
)

type SwipeRecord struct {
	ID           int64           `json:"id"`
	ActorUserID  int64           `json:"actor_user_id"`
	TargetUserID int64           `json:"target_user_id"`
	Kind         enums.SwipeKind `json:"kind"`
	Matched      bool            `json:"matched"`
	CreatedAt    time.Time       `json:"created_at"`
}
