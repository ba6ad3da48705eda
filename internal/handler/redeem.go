package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tmirzaev/signaldesk/internal/apperror"
	"github.com/tmirzaev/signaldesk/internal/auth"
	"github.com/tmirzaev/signaldesk/internal/service"
)

// RedeemHandler exposes VIP code redemption.
type RedeemHandler struct {
	redemption *service.RedemptionService
	logger     *slog.Logger
}

// NewRedeemHandler creates a RedeemHandler.
func NewRedeemHandler(redemption *service.RedemptionService, logger *slog.Logger) *RedeemHandler {
	return &RedeemHandler{redemption: redemption, logger: logger}
}

// HandleRedeem handles POST /api/redeem-code. Requires authentication;
// the target user is always the caller, never a request field.
func (h *RedeemHandler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	expiresAt, err := h.redemption.Redeem(r.Context(), identity.UserID, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "VIP activated successfully",
		"expiresAt": formatTime(expiresAt),
	})
}
