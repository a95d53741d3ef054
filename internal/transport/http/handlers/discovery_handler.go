package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/ivankudzin/kinmatch/internal/services/auth"
	compatsvc "github.com/ivankudzin/kinmatch/internal/services/compat"
	discoverysvc "github.com/ivankudzin/kinmatch/internal/services/discovery"
	"github.com/ivankudzin/kinmatch/internal/pkg/validate"
	"github.com/ivankudzin/kinmatch/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/kinmatch/internal/transport/http/errors"
)

type DiscoveryService interface {
	Discover(ctx context.Context, requesterID int64, count int) (discoverysvc.Result, error)
	Compatibility(ctx context.Context, requesterID, otherID int64) (compatsvc.Breakdown, error)
}

type DiscoveryHandler struct {
	service DiscoveryService
}

func NewDiscoveryHandler(service DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{service: service}
}

// Discover serves GET /v1/discover?count=N.
func (h *DiscoveryHandler) Discover(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "DISCOVERY_SERVICE_UNAVAILABLE", "discovery service is unavailable")
		return
	}

	query := dto.DiscoveryQuery{}
	if raw := strings.TrimSpace(r.URL.Query().Get("count")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "count must be an integer")
			return
		}
		query.Count = n
	}
	if err := validate.Struct(query); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
		return
	}

	result, err := h.service.Discover(r.Context(), identity.UserID, query.Count)
	if err != nil {
		if errors.Is(err, discoverysvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid discovery request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load candidates")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DiscoveryResponse{
		Items:  result.Items,
		Count:  len(result.Items),
		Cached: result.Cached,
	})
}

// Compatibility serves GET /v1/compatibility/{userID}.
func (h *DiscoveryHandler) Compatibility(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "DISCOVERY_SERVICE_UNAVAILABLE", "discovery service is unavailable")
		return
	}

	otherID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || otherID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "user id must be a positive integer")
		return
	}

	breakdown, err := h.service.Compatibility(r.Context(), identity.UserID, otherID)
	if err != nil {
		switch {
		case errors.Is(err, discoverysvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid compatibility request")
		case errors.Is(err, discoverysvc.ErrNotFound):
			writeNotFound(w, "USER_NOT_FOUND", "user not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to compute compatibility")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CompatibilityResponse{UserID: otherID, Breakdown: breakdown})
}
