package http

import (
	"context"
	"net/http"

	"github.com/Adelipop59/super-try-api-sub002/internal/application"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/google/uuid"
)

type disputeAction func(ctx context.Context, actor application.Actor, disputeID uuid.UUID) (domain.Dispute, error)

func (h *Handler) disputeTransition(operation string, action disputeAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}
		disputeID, err := uuidParam(r, "dispute_id")
		if err != nil {
			writeValidationError(r.Context(), w, operation, err)
			return
		}
		dispute, err := action(r.Context(), actor, disputeID)
		respond(w, r, operation, http.StatusOK, dispute, err)
	}
}

func (h *Handler) takeDispute(w http.ResponseWriter, r *http.Request) {
	h.disputeTransition("take_dispute", h.service.TakeDispute)(w, r)
}

func (h *Handler) withdrawDispute(w http.ResponseWriter, r *http.Request) {
	h.disputeTransition("withdraw_dispute", h.service.WithdrawDispute)(w, r)
}

func (h *Handler) closeDispute(w http.ResponseWriter, r *http.Request) {
	h.disputeTransition("close_dispute", h.service.CloseDispute)(w, r)
}

func (h *Handler) openDispute(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req application.OpenDisputeInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "open_dispute", err)
		return
	}
	dispute, err := h.service.OpenDispute(r.Context(), actor, req)
	respond(w, r, "open_dispute", http.StatusCreated, dispute, err)
}

func (h *Handler) getDispute(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	disputeID, err := uuidParam(r, "dispute_id")
	if err != nil {
		writeValidationError(r.Context(), w, "get_dispute", err)
		return
	}
	detail, err := h.service.GetDispute(r.Context(), actor, disputeID)
	respond(w, r, "get_dispute", http.StatusOK, detail, err)
}

func (h *Handler) listDisputes(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	limit, offset := pageParams(r)
	page, err := h.service.ListDisputes(r.Context(), actor, application.ListDisputesQuery{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	respond(w, r, "list_disputes", http.StatusOK, page, err)
}

func (h *Handler) addDisputeMessage(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	disputeID, err := uuidParam(r, "dispute_id")
	if err != nil {
		writeValidationError(r.Context(), w, "add_dispute_message", err)
		return
	}
	var req application.DisputeMessageInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "add_dispute_message", err)
		return
	}
	msg, err := h.service.AddDisputeMessage(r.Context(), actor, disputeID, req)
	respond(w, r, "add_dispute_message", http.StatusCreated, msg, err)
}

func (h *Handler) resolveDispute(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	disputeID, err := uuidParam(r, "dispute_id")
	if err != nil {
		writeValidationError(r.Context(), w, "resolve_dispute", err)
		return
	}
	var req application.ResolveDisputeInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "resolve_dispute", err)
		return
	}
	dispute, err := h.service.ResolveDispute(r.Context(), actor, disputeID, req)
	respond(w, r, "resolve_dispute", http.StatusOK, dispute, err)
}
