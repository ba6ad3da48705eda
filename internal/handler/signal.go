package handler

import (
	"log/slog"
	"net/http"

	"github.com/tmirzaev/signaldesk/internal/apperror"
	"github.com/tmirzaev/signaldesk/internal/auth"
	"github.com/tmirzaev/signaldesk/internal/service"
)

// SignalHandler exposes the public and VIP signal feeds.
type SignalHandler struct {
	signals *service.SignalService
	logger  *slog.Logger
}

// NewSignalHandler creates a SignalHandler.
func NewSignalHandler(signals *service.SignalService, logger *slog.Logger) *SignalHandler {
	return &SignalHandler{signals: signals, logger: logger}
}

// HandleListPublic handles GET /api/signals — active free signals,
// no authentication required.
func (h *SignalHandler) HandleListPublic(w http.ResponseWriter, r *http.Request) {
	signals, err := h.signals.ListPublic(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signals)
}

// HandleListVIP handles GET /api/signals/vip. The gate is the caller's
// stored entitlement (checked fresh against the DB), not token claims.
func (h *SignalHandler) HandleListVIP(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	signals, err := h.signals.ListVIP(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signals)
}
