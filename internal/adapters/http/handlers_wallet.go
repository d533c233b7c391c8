package http

import (
	"io"
	"net/http"

	"github.com/Adelipop59/super-try-api-sub002/internal/application"
)

func (h *Handler) getWallet(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	wallet, err := h.service.GetWallet(r.Context(), actor)
	respond(w, r, "get_wallet", http.StatusOK, wallet, err)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	limit, offset := pageParams(r)
	page, err := h.service.ListTransactions(r.Context(), actor, limit, offset)
	respond(w, r, "list_transactions", http.StatusOK, page, err)
}

func (h *Handler) requestWithdrawal(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req application.WithdrawalInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "request_withdrawal", err)
		return
	}
	withdrawal, err := h.service.RequestWithdrawal(r.Context(), actor, req)
	respond(w, r, "request_withdrawal", http.StatusCreated, withdrawal, err)
}

func (h *Handler) listMyWithdrawals(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	limit, offset := pageParams(r)
	page, err := h.service.ListMyWithdrawals(r.Context(), actor, limit, offset)
	respond(w, r, "list_my_withdrawals", http.StatusOK, page, err)
}

func (h *Handler) cancelWithdrawal(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	withdrawalID, err := uuidParam(r, "withdrawal_id")
	if err != nil {
		writeValidationError(r.Context(), w, "cancel_withdrawal", err)
		return
	}
	withdrawal, err := h.service.CancelWithdrawal(r.Context(), actor, withdrawalID)
	respond(w, r, "cancel_withdrawal", http.StatusOK, withdrawal, err)
}

func (h *Handler) listPendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
	items, err := h.service.ListPendingWithdrawals(r.Context(), actor, limit)
	respond(w, r, "list_pending_withdrawals", http.StatusOK, items, err)
}

func (h *Handler) processWithdrawal(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	withdrawalID, err := uuidParam(r, "withdrawal_id")
	if err != nil {
		writeValidationError(r.Context(), w, "process_withdrawal", err)
		return
	}
	var req application.ProcessWithdrawalInput
	if err := decodeOptionalBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "process_withdrawal", err)
		return
	}
	withdrawal, err := h.service.ProcessWithdrawal(r.Context(), actor, withdrawalID, req)
	respond(w, r, "process_withdrawal", http.StatusOK, withdrawal, err)
}

func (h *Handler) rejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	withdrawalID, err := uuidParam(r, "withdrawal_id")
	if err != nil {
		writeValidationError(r.Context(), w, "reject_withdrawal", err)
		return
	}
	var req application.ReasonInput
	if err := decodeOptionalBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "reject_withdrawal", err)
		return
	}
	withdrawal, err := h.service.RejectWithdrawal(r.Context(), actor, withdrawalID, req)
	respond(w, r, "reject_withdrawal", http.StatusOK, withdrawal, err)
}

func (h *Handler) startStripeOnboarding(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	result, err := h.service.StartStripeOnboarding(r.Context(), actor)
	respond(w, r, "start_stripe_onboarding", http.StatusOK, result, err)
}

func (h *Handler) refreshStripeStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	status, err := h.service.RefreshStripeStatus(r.Context(), actor)
	respond(w, r, "refresh_stripe_status", http.StatusOK, status, err)
}

// stripeWebhook is public; the payload is authenticated by its signature.
func (h *Handler) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeValidationError(r.Context(), w, "stripe_webhook", err)
		return
	}
	if err := h.service.HandleStripeWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		writeMappedError(r.Context(), w, "stripe_webhook", err)
		return
	}
	writeMessage(w, http.StatusOK, "received")
}
