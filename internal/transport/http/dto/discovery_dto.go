package dto

import (
	"github.com/ivankudzin/kinmatch/internal/domain/model"
	compatsvc "github.com/ivankudzin/kinmatch/internal/services/compat"
)

type DiscoveryQuery struct {
	Count int `validate:"min=0,max=100"`
}

type DiscoveryResponse struct {
	Items  []model.CandidateSummary `json:"items"`
	Count  int                      `json:"count"`
	Cached bool                     `json:"cached"`
}

type CompatibilityResponse struct {
	UserID    int64               `json:"user_id"`
	Breakdown compatsvc.Breakdown `json:"breakdown"`
}
