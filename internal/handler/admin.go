package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tmirzaev/signaldesk/internal/apperror"
	"github.com/tmirzaev/signaldesk/internal/service"
)

// AdminHandler exposes the operator surfaces: signal CRUD, VIP code
// issuance, and settings. Routes using it must sit behind RequireAdmin.
type AdminHandler struct {
	signals  *service.SignalService
	codes    *service.CodeService
	settings *service.SettingsService
	logger   *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(
	signals *service.SignalService,
	codes *service.CodeService,
	settings *service.SettingsService,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{signals: signals, codes: codes, settings: settings, logger: logger}
}

// signalRequest is the admin create/update payload.
type signalRequest struct {
	Pair        string   `json:"pair"`
	EntryPrice  float64  `json:"entryPrice"`
	Target1     *float64 `json:"target1"`
	Target2     *float64 `json:"target2"`
	Target3     *float64 `json:"target3"`
	StopLoss    float64  `json:"stopLoss"`
	Type        string   `json:"type"`
	Status      string   `json:"status"`
	Description string   `json:"description"`
	ScheduledAt string   `json:"scheduledAt"` // timeFormat, optional
}

func (req *signalRequest) toInput() (service.SignalInput, error) {
	in := service.SignalInput{
		Pair:        req.Pair,
		EntryPrice:  req.EntryPrice,
		Target1:     req.Target1,
		Target2:     req.Target2,
		Target3:     req.Target3,
		StopLoss:    req.StopLoss,
		Type:        req.Type,
		Status:      req.Status,
		Description: req.Description,
	}
	if req.ScheduledAt != "" {
		t, err := time.ParseInLocation(timeFormat, req.ScheduledAt, time.UTC)
		if err != nil {
			return in, apperror.ValidationFailed("scheduledAt", "scheduledAt must be YYYY-MM-DD HH:MM:SS")
		}
		in.ScheduledAt = &t
	}
	return in, nil
}

// HandleListSignals handles GET /api/admin/signals — everything,
// including scheduled and closed rows.
func (h *AdminHandler) HandleListSignals(w http.ResponseWriter, r *http.Request) {
	signals, err := h.signals.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signals)
}

// HandleCreateSignal handles POST /api/admin/signals.
func (h *AdminHandler) HandleCreateSignal(w http.ResponseWriter, r *http.Request) {
	var req signalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeError(w, err)
		return
	}

	signal, err := h.signals.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, signal)
}

// HandleUpdateSignal handles PUT /api/admin/signals/{id}.
func (h *AdminHandler) HandleUpdateSignal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req signalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeError(w, err)
		return
	}

	signal, err := h.signals.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signal)
}

// HandleDeleteSignal handles DELETE /api/admin/signals/{id}.
func (h *AdminHandler) HandleDeleteSignal(w http.ResponseWriter, r *http.Request) {
	if err := h.signals.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Signal deleted successfully"})
}

// HandleListCodes handles GET /api/admin/vip-codes.
func (h *AdminHandler) HandleListCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.codes.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, codes)
}

// HandleGenerateCodes handles POST /api/admin/vip-codes.
func (h *AdminHandler) HandleGenerateCodes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DurationDays int `json:"durationDays"`
		Quantity     int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	codes, err := h.codes.Generate(r.Context(), req.DurationDays, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "VIP codes generated successfully",
		"codes":   codes,
	})
}

// HandleGetSettings handles GET /api/admin/settings.
func (h *AdminHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// HandleUpdateSettings handles PUT /api/admin/settings.
func (h *AdminHandler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if err := h.settings.Update(r.Context(), values); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Settings updated successfully"})
}
