package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tmirzaev/signaldesk/internal/apperror"
	"github.com/tmirzaev/signaldesk/internal/auth"
	"github.com/tmirzaev/signaldesk/internal/model"
	"github.com/tmirzaev/signaldesk/internal/service"
)

// InvestmentHandler exposes the investment sign-up flow and the
// investor dashboard list.
type InvestmentHandler struct {
	investments *service.InvestmentService
	settings    *service.SettingsService
	logger      *slog.Logger
}

// NewInvestmentHandler creates an InvestmentHandler.
func NewInvestmentHandler(investments *service.InvestmentService, settings *service.SettingsService, logger *slog.Logger) *InvestmentHandler {
	return &InvestmentHandler{investments: investments, settings: settings, logger: logger}
}

// investmentResponse flattens a position plus the derived cycle fields
// the dashboard renders.
type investmentResponse struct {
	model.Investment
	MaturesAt       string  `json:"maturesAt"`
	ProjectedProfit float64 `json:"projectedProfit"`
}

func toInvestmentResponse(inv model.Investment) investmentResponse {
	return investmentResponse{
		Investment:      inv,
		MaturesAt:       formatTime(inv.MaturesAt()),
		ProjectedProfit: inv.ProjectedProfit(),
	}
}

// HandleCreate handles POST /api/investment/create. Unauthenticated by
// design: the flow auto-provisions an account from email + password.
func (h *InvestmentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email         string  `json:"email"`
		Password      string  `json:"password"`
		Amount        float64 `json:"amount"`
		PaymentMethod string  `json:"paymentMethod"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	result, err := h.investments.Create(r.Context(), req.Email, req.Password, req.Amount, req.PaymentMethod)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "Investment account created",
		"token":       result.Token,
		"user":        toUserResponse(result.User),
		"investment":  toInvestmentResponse(*result.Investment),
		"paymentInfo": result.Payment,
	})
}

// HandleListMine handles GET /api/investments/my.
func (h *InvestmentHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	investments, err := h.investments.ListByUser(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]investmentResponse, 0, len(investments))
	for _, inv := range investments {
		resp = append(resp, toInvestmentResponse(inv))
	}
	writeJSON(w, http.StatusOK, map[string]any{"investments": resp})
}

// HandleListPaymentMethods handles GET /api/payment-methods.
func (h *InvestmentHandler) HandleListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.settings.PaymentMethodList(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"paymentMethods": methods})
}
