package dto

import usagesvc "github.com/ivankudzin/kinmatch/internal/services/usage"

type SwipeRequest struct {
	TargetID int64  `json:"target_id" validate:"required,gt=0"`
	Kind     string `json:"kind" validate:"required,max=16"`
}

type SwipeResponse struct {
	OK             bool            `json:"ok"`
	Outcome        string          `json:"outcome"`
	Kind           string          `json:"kind"`
	TargetID       int64           `json:"target_id"`
	MatchCreated   bool            `json:"match_created"`
	MatchID        int64           `json:"match_id,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Usage          usagesvc.Limits `json:"usage"`
}

type UndoResponse struct {
	OK       bool            `json:"ok"`
	Outcome  string          `json:"outcome"`
	TargetID int64           `json:"target_id,omitempty"`
	Usage    usagesvc.Limits `json:"usage"`
}
