package handlers

import (
	"context"
	"errors"
	"net/http"

	authsvc "github.com/ivankudzin/kinmatch/internal/services/auth"
	usagesvc "github.com/ivankudzin/kinmatch/internal/services/usage"
	"github.com/ivankudzin/kinmatch/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/kinmatch/internal/transport/http/errors"
)

type UsageService interface {
	GetLimits(ctx context.Context, userID int64) (usagesvc.Limits, error)
	WatchAd(ctx context.Context, userID int64) (usagesvc.Limits, error)
}

type UsageHandler struct {
	service UsageService
}

func NewUsageHandler(service UsageService) *UsageHandler {
	return &UsageHandler{service: service}
}

// Get serves GET /v1/usage.
func (h *UsageHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "USAGE_SERVICE_UNAVAILABLE", "usage service is unavailable")
		return
	}

	limits, err := h.service.GetLimits(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load usage")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.UsageResponse{Usage: limits})
}

// WatchAd serves POST /v1/ads/watch.
func (h *UsageHandler) WatchAd(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "USAGE_SERVICE_UNAVAILABLE", "usage service is unavailable")
		return
	}

	limits, err := h.service.WatchAd(r.Context(), identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, usagesvc.ErrAdsUnavailable):
			httperrors.Write(w, http.StatusConflict, httperrors.APIError{Code: "ADS_UNAVAILABLE", Message: "ads are not offered on this tier"})
		case errors.Is(err, usagesvc.ErrAdLimitReached):
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.APIError{Code: "AD_LIMIT_REACHED", Message: "daily ad limit reached"})
		case errors.Is(err, usagesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to record ad view")
		}
		return
	}
	httperrors.Write(w, http.StatusOK, dto.UsageResponse{Usage: limits})
}
