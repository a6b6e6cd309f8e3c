package handler

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/televizor/billing/internal/domain"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("write response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// requireAdminToken gates admin endpoints with a bearer token.
func (h *Handler) requireAdminToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if h.cfg.AdminAPIToken == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(h.cfg.AdminAPIToken)) != 1 {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type subscriptionResponse struct {
	UserID         int64      `json:"user_id"`
	Tier           string     `json:"tier"`
	Status         string     `json:"status"`
	ActiveUntil    *time.Time `json:"active_until,omitempty"`
	IsActive       bool       `json:"is_active"`
	TrialAvailable bool       `json:"trial_available"`
	Payments       int        `json:"payments"`
}

func subscriptionToResponse(rec *domain.SubscriptionRecord) subscriptionResponse {
	now := time.Now()
	return subscriptionResponse{
		UserID:         rec.UserID,
		Tier:           string(rec.Tier),
		Status:         string(rec.StatusAt(now)),
		ActiveUntil:    rec.ActiveUntil,
		IsActive:       rec.IsActive(now),
		TrialAvailable: rec.TrialAvailable(),
		Payments:       len(rec.History),
	}
}

// HandleSubscriptionStatus reports a user's entitlement, used for feature
// gating by the feed services.
func (h *Handler) HandleSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	rec, err := h.ledger.GetStatus(r.Context(), userID)
	if err != nil {
		slog.Error("get subscription status", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, subscriptionToResponse(rec))
}

type createInvoiceRequest struct {
	UserID int64  `json:"user_id"`
	Plan   string `json:"plan"`
	Months int    `json:"months"`
}

type createInvoiceResponse struct {
	InvoiceID   uuid.UUID `json:"invoice_id"`
	AmountStars int64     `json:"amount_stars"`
	Plan        string    `json:"plan"`
	Months      int       `json:"months"`
}

func (h *Handler) HandleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Months == 0 {
		req.Months = 1
	}

	inv, err := h.issuer.CreateInvoice(r.Context(), req.UserID, req.Plan, req.Months)
	switch {
	case errors.Is(err, domain.ErrPlanNotFound), errors.Is(err, domain.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, domain.ErrUserNotFound):
		respondError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		slog.Error("create invoice", "error", err, "user_id", req.UserID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusCreated, createInvoiceResponse{
		InvoiceID:   inv.ID,
		AmountStars: inv.AmountStars,
		Plan:        inv.PlanCode,
		Months:      inv.Months,
	})
}

type refundRequest struct {
	UserID    int64  `json:"user_id"`
	PaymentID string `json:"payment_id"`
}

func (h *Handler) HandleRefund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.UserID == 0 || req.PaymentID == "" {
		respondError(w, http.StatusBadRequest, "user_id and payment_id required")
		return
	}

	// Mark first: the ledger flag is what blocks a second refund attempt.
	err := h.ledger.MarkRefunded(r.Context(), req.UserID, req.PaymentID)
	switch {
	case errors.Is(err, domain.ErrPaymentNotFound):
		respondError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, domain.ErrAlreadyRefunded):
		respondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		slog.Error("mark refunded", "error", err, "payment_id", req.PaymentID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.messenger.RefundStarPayment(r.Context(), req.UserID, req.PaymentID); err != nil {
		slog.Error("provider refund", "error", err, "payment_id", req.PaymentID)
		respondError(w, http.StatusBadGateway, "provider refund failed")
		return
	}

	h.audit.PaymentRefunded(req.UserID, req.PaymentID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "refunded"})
}

type registerUserRequest struct {
	TelegramID int64  `json:"telegram_id"`
	FirstName  string `json:"first_name"`
	Username   string `json:"username"`
}

func (h *Handler) HandleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.TelegramID == 0 {
		respondError(w, http.StatusBadRequest, "telegram_id required")
		return
	}

	user, err := h.users.Upsert(r.Context(), req.TelegramID, req.FirstName, req.Username)
	if err != nil {
		slog.Error("register user", "error", err, "telegram_id", req.TelegramID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

type trialRequest struct {
	UserID int64 `json:"user_id"`
}

func (h *Handler) HandleStartTrial(w http.ResponseWriter, r *http.Request) {
	var req trialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	rec, err := h.ledger.StartTrial(r.Context(), req.UserID)
	switch {
	case errors.Is(err, domain.ErrTrialUsed):
		respondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		slog.Error("start trial", "error", err, "user_id", req.UserID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, subscriptionToResponse(rec))
}
