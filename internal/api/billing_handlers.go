package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/unblurhq/unblur/pkg/billing"
)

type accountResponse struct {
	IdentityID string    `json:"identity_id"`
	Email      string    `json:"email,omitempty"`
	Tier       string    `json:"tier"`
	Subscribed bool      `json:"subscribed"`
	CreatedAt  time.Time `json:"created_at"`
}

func (h *handlers) syncAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, h.deps.Log, err)
		return
	}

	acct, err := h.deps.Billing.SyncAccount(r.Context(), identityFromContext(r.Context()), req.Email)
	if err != nil {
		writeError(w, r, h.deps.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, accountResponse{
		IdentityID: acct.IdentityID,
		Email:      acct.Email,
		Tier:       string(acct.Tier),
		Subscribed: acct.Subscribed(),
		CreatedAt:  acct.CreatedAt,
	})
}

type balanceResponse struct {
	Tier        string `json:"tier"`
	Credit      int64  `json:"credit"`
	BonusCredit int64  `json:"bonus_credit"`
	Total       int64  `json:"total"`
	Refreshed   bool   `json:"refreshed"`
}

func (h *handlers) balance(w http.ResponseWriter, r *http.Request) {
	sum, err := h.deps.Billing.Balance(r.Context(), identityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.deps.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		Tier:        string(sum.Tier),
		Credit:      sum.Credit,
		BonusCredit: sum.BonusCredit,
		Total:       sum.Total,
		Refreshed:   sum.Refreshed,
	})
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	refreshed, err := h.deps.Billing.Refresh(r.Context(), identityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.deps.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"refreshed": refreshed})
}

func (h *handlers) createCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PriceID    string `json:"price_id"`
		Mode       string `json:"mode"`
		Email      string `json:"email"`
		SuccessURL string `json:"success_url"`
		CancelURL  string `json:"cancel_url"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.deps.Log, err)
		return
	}

	mode := billing.CheckoutMode(req.Mode)
	if mode == "" {
		mode = billing.ModeSubscription
	}

	session, err := h.deps.Billing.CreateCheckoutSession(r.Context(), identityFromContext(r.Context()), billing.CheckoutRequest{
		Email:      req.Email,
		PriceID:    req.PriceID,
		Mode:       mode,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		writeError(w, r, h.deps.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"url":        session.URL,
		"session_id": session.SessionID,
	})
}

func (h *handlers) createPortal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReturnURL string `json:"return_url"`
	}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, h.deps.Log, err)
		return
	}

	session, err := h.deps.Billing.CreatePortalSession(r.Context(), identityFromContext(r.Context()), req.ReturnURL)
	if err != nil {
		writeError(w, r, h.deps.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": session.URL})
}

// stripeWebhook verifies, parses, and applies one provider event. A 2xx
// acknowledges the delivery; permanent failures also return 4xx so the
// provider stops retrying what can never succeed.
func (h *handlers) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unreadable payload"})
		return
	}

	event, err := h.deps.Webhooks.ParseWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, billing.ErrWebhookVerification) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "signature verification failed"})
			return
		}
		writeError(w, r, h.deps.Log, err)
		return
	}
	if event == nil {
		// Event type we do not handle; acknowledge so it is not redelivered.
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	if err := h.deps.Billing.ProcessEvent(r.Context(), event); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, billing.ErrInvalidEvent) || errors.Is(err, billing.ErrUnpaidCheckout) {
			status = http.StatusBadRequest
		}
		h.deps.Log.ErrorContext(r.Context(), "webhook event failed",
			slog.String("event_id", event.ID),
			slog.String("kind", string(event.Kind)),
			slog.Any("error", err))
		writeJSON(w, status, errorResponse{Error: "event processing failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
