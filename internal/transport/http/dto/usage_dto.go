package dto

import usagesvc "github.com/ivankudzin/kinmatch/internal/services/usage"

type UsageResponse struct {
	Usage usagesvc.Limits `json:"usage"`
}
