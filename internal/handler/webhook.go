package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/televizor/billing/internal/config"
	"github.com/televizor/billing/internal/domain"
	"github.com/televizor/billing/internal/service"
)

type preCheckoutResponse struct {
	OK           bool   `json:"ok"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// HandleWebhook is the single entry point for provider updates. Every request
// gets exactly one response: a decision body for pre-checkout queries, a
// trivial acknowledgment for everything else that was handled, 401 on a bad
// secret, and a non-200 only when the store failed and the provider should
// redeliver.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.secret.Validate(r.Header.Get(SecretTokenHeader)) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var update models.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	switch {
	case update.PreCheckoutQuery != nil:
		h.handlePreCheckout(w, r, update.PreCheckoutQuery)
	case update.Message != nil && update.Message.SuccessfulPayment != nil:
		h.handleSuccessfulPayment(w, r, update.Message)
	default:
		// Not a payment update; acknowledge so the provider stops retrying.
		respondJSON(w, http.StatusOK, struct{}{})
	}
}

func (h *Handler) handlePreCheckout(w http.ResponseWriter, r *http.Request, q *models.PreCheckoutQuery) {
	pc := domain.PreCheckout{
		QueryID:     q.ID,
		UserID:      q.From.ID,
		Currency:    q.Currency,
		AmountStars: int64(q.TotalAmount),
	}

	invoiceID, err := uuid.Parse(q.InvoicePayload)
	if err != nil {
		slog.Warn("pre-checkout with unparseable payload", "query_id", q.ID, "user_id", pc.UserID)
		respondJSON(w, http.StatusOK, preCheckoutResponse{OK: false, ErrorMessage: service.ReasonInvoiceNotFound})
		return
	}
	pc.InvoiceID = invoiceID

	decision := h.checkout.Authorize(r.Context(), pc)
	resp := preCheckoutResponse{OK: decision.OK}
	if !decision.OK {
		resp.ErrorMessage = decision.Reason
		slog.Info("pre-checkout rejected", "query_id", q.ID, "user_id", pc.UserID, "reason", decision.Reason)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSuccessfulPayment(w http.ResponseWriter, r *http.Request, msg *models.Message) {
	p := msg.SuccessfulPayment
	if msg.From == nil {
		respondJSON(w, http.StatusOK, struct{}{})
		return
	}

	notice := domain.PaymentNotice{
		ChargeID:    p.TelegramPaymentChargeID,
		UserID:      msg.From.ID,
		Currency:    p.Currency,
		AmountStars: int64(p.TotalAmount),
	}

	invoiceID, err := uuid.Parse(p.InvoicePayload)
	if err != nil {
		// No invoice can match; acknowledge and keep the event out of the ledger.
		slog.Error("successful payment with unparseable payload",
			"charge_id", notice.ChargeID, "user_id", notice.UserID)
		respondJSON(w, http.StatusOK, struct{}{})
		return
	}
	notice.InvoiceID = invoiceID

	result, err := h.confirmer.Confirm(r.Context(), notice)
	if err != nil {
		// Store failure: fail the acknowledgment so the provider redelivers.
		slog.Error("payment confirmation failed", "error", err, "charge_id", notice.ChargeID)
		http.Error(w, "temporarily unavailable", http.StatusInternalServerError)
		return
	}

	switch result.Outcome {
	case domain.ConfirmationApplied:
		slog.Info("payment applied",
			"charge_id", notice.ChargeID, "user_id", notice.UserID, "stars", notice.AmountStars)
		go h.afterApplied(notice, result.Record)
	case domain.ConfirmationDuplicate:
		slog.Info("duplicate payment delivery", "charge_id", notice.ChargeID, "user_id", notice.UserID)
	case domain.ConfirmationRejected:
		slog.Warn("payment rejected",
			"charge_id", notice.ChargeID, "user_id", notice.UserID, "reason", result.Reason)
	}

	respondJSON(w, http.StatusOK, struct{}{})
}

// afterApplied sends the receipt and audit notification outside the request
// so the acknowledgment is not delayed by provider round-trips.
func (h *Handler) afterApplied(n domain.PaymentNotice, rec *domain.SubscriptionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), config.SendTimeout)
	defer cancel()

	euro := service.StarsToEuro(n.AmountStars).StringFixed(2)
	text := fmt.Sprintf("✅ Payment received! You are Premium until %s.",
		rec.ActiveUntil.Format("2 Jan 2006"))
	if err := h.messenger.SendMessage(ctx, n.UserID, text); err != nil {
		slog.Error("send receipt", "error", err, "user_id", n.UserID)
	}

	h.audit.PaymentCaptured(n.UserID, n.ChargeID, n.AmountStars, euro)
}
