package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ivankudzin/kinmatch/internal/domain/enums"
	"github.com/ivankudzin/kinmatch/internal/pkg/validate"
	authsvc "github.com/ivankudzin/kinmatch/internal/services/auth"
	swipesvc "github.com/ivankudzin/kinmatch/internal/services/swipes"
	"github.com/ivankudzin/kinmatch/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/kinmatch/internal/transport/http/errors"
)

type SwipeService interface {
	Swipe(ctx context.Context, actorID, targetID int64, kind enums.SwipeKind) (swipesvc.Result, error)
	UndoLastSwipe(ctx context.Context, actorID int64) (swipesvc.UndoResult, error)
}

type BurstLimiter interface {
	Allow(ctx context.Context, userID int64) (int64, bool, error)
}

type SwipeHandler struct {
	service SwipeService
	limiter BurstLimiter
	log     *zap.Logger
}

func NewSwipeHandler(service SwipeService, limiter BurstLimiter, log *zap.Logger) *SwipeHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SwipeHandler{service: service, limiter: limiter, log: log}
}

// Handle serves POST /v1/swipes.
func (h *SwipeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	var req dto.SwipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
		return
	}
	kind, ok := enums.ParseSwipeKind(req.Kind)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "unsupported swipe kind")
		return
	}

	if !h.allow(w, r, identity.UserID) {
		return
	}

	result, err := h.service.Swipe(r.Context(), identity.UserID, req.TargetID, kind)
	if err != nil {
		if errors.Is(err, swipesvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid swipe request")
			return
		}
		h.log.Error("swipe failed", zap.Int64("user_id", identity.UserID), zap.Int64("target_id", req.TargetID), zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "failed to process swipe")
		return
	}

	if status, code, message := swipeFailure(result.Outcome); status != 0 {
		httperrors.Write(w, status, httperrors.OutcomeError{
			Code:    code,
			Message: message,
			Outcome: string(result.Outcome),
			Usage:   result.Usage,
		})
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SwipeResponse{
		OK:             true,
		Outcome:        string(result.Outcome),
		Kind:           string(result.Kind),
		TargetID:       result.TargetID,
		MatchCreated:   result.Outcome == enums.SwipeOutcomeMatchCreated,
		MatchID:        result.MatchID,
		ConversationID: result.ConversationID,
		Usage:          result.Usage,
	})
}

// Undo serves POST /v1/swipes/undo.
func (h *SwipeHandler) Undo(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	result, err := h.service.UndoLastSwipe(r.Context(), identity.UserID)
	if err != nil {
		h.log.Error("undo swipe failed", zap.Int64("user_id", identity.UserID), zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "failed to undo swipe")
		return
	}
	if result.Outcome == enums.SwipeOutcomeNoRecentPassToUndo {
		httperrors.Write(w, http.StatusConflict, httperrors.OutcomeError{
			Code:    "NO_RECENT_PASS",
			Message: "no pass within the undo window",
			Outcome: string(result.Outcome),
			Usage:   result.Usage,
		})
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UndoResponse{
		OK:       true,
		Outcome:  string(result.Outcome),
		TargetID: result.TargetID,
		Usage:    result.Usage,
	})
}

// allow applies the burst throttle; a broken limiter store does not block swipes.
func (h *SwipeHandler) allow(w http.ResponseWriter, r *http.Request, userID int64) bool {
	if h.limiter == nil {
		return true
	}
	retryAfter, allowed, err := h.limiter.Allow(r.Context(), userID)
	if err != nil {
		h.log.Warn("swipe rate limiter unavailable", zap.Int64("user_id", userID), zap.Error(err))
		return true
	}
	if allowed {
		return true
	}
	httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
		Code:          "TOO_FAST",
		Message:       "too many swipes, slow down",
		RetryAfterSec: retryAfter,
	})
	return false
}

func swipeFailure(outcome enums.SwipeOutcome) (int, string, string) {
	switch outcome {
	case enums.SwipeOutcomeUserNotFound:
		return http.StatusNotFound, "USER_NOT_FOUND", "target user not found"
	case enums.SwipeOutcomeUserBlocked:
		return http.StatusForbidden, "USER_BLOCKED", "interaction with this user is blocked"
	case enums.SwipeOutcomeAlreadyProcessed:
		return http.StatusConflict, "ALREADY_PROCESSED", "user was already swiped"
	case enums.SwipeOutcomeLimitReached:
		return http.StatusTooManyRequests, "LIMIT_REACHED", "swipe limit reached"
	default:
		return 0, "", ""
	}
}
