package http

import (
	"net/http"

	"github.com/Adelipop59/super-try-api-sub002/internal/application"
)

func (h *Handler) applyToCampaign(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	campaignID, err := uuidParam(r, "campaign_id")
	if err != nil {
		writeValidationError(r.Context(), w, "apply_to_campaign", err)
		return
	}
	var req application.ApplyInput
	if err := decodeOptionalBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "apply_to_campaign", err)
		return
	}
	session, err := h.service.ApplyToCampaign(r.Context(), actor, campaignID, req)
	respond(w, r, "apply_to_campaign", http.StatusCreated, session, err)
}

func (h *Handler) listMySessions(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	campaignID, err := optionalUUIDQuery(r, "campaign_id")
	if err != nil {
		writeValidationError(r.Context(), w, "list_my_sessions", err)
		return
	}
	limit, offset := pageParams(r)
	page, err := h.service.ListMySessions(r.Context(), actor, application.ListSessionsQuery{
		CampaignID: campaignID,
		Status:     r.URL.Query().Get("status"),
		Limit:      limit,
		Offset:     offset,
	})
	respond(w, r, "list_my_sessions", http.StatusOK, page, err)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	sessionID, err := uuidParam(r, "session_id")
	if err != nil {
		writeValidationError(r.Context(), w, "get_session", err)
		return
	}
	detail, err := h.service.GetSession(r.Context(), actor, sessionID)
	respond(w, r, "get_session", http.StatusOK, detail, err)
}

func (h *Handler) acceptSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	sessionID, err := uuidParam(r, "session_id")
	if err != nil {
		writeValidationError(r.Context(), w, "accept_session", err)
		return
	}
	session, err := h.service.AcceptSession(r.Context(), actor, sessionID)
	respond(w, r, "accept_session", http.StatusOK, session, err)
}

func (h *Handler) rejectSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	sessionID, err := uuidParam(r, "session_id")
	if err != nil {
		writeValidationError(r.Context(), w, "reject_session", err)
		return
	}
	var req application.ReasonInput
	if err := decodeOptionalBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "reject_session", err)
		return
	}
	session, err := h.service.RejectSession(r.Context(), actor, sessionID, req)
	respond(w, r, "reject_session", http.StatusOK, session, err)
}

func (h *Handler) cancelSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	sessionID, err := uuidParam(r, "session_id")
	if err != nil {
		writeValidationError(r.Context(), w, "cancel_session", err)
		return
	}
	var req application.ReasonInput
	if err := decodeOptionalBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "cancel_session", err)
		return
	}
	session, err := h.service.CancelSession(r.Context(), actor, sessionID, req)
	respond(w, r, "cancel_session", http.StatusOK, session, err)
}

func (h *Handler) validatePurchase(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	sessionID, err := uuidParam(r, "session_id")
	if err != nil {
		writeValidationError(r.Context(), w, "validate_purchase", err)
		return
	}
	var req application.ValidatePurchaseInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "validate_purchase", err)
		return
	}
	session, err := h.service.ValidatePurchase(r.Context(), actor, sessionID, req)
	respond(w, r, "validate_purchase", http.StatusOK, session, err)
}

func (h *Handler) submitTest(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	sessionID, err := uuidParam(r, "session_id")
	if err != nil {
		writeValidationError(r.Context(), w, "submit_test", err)
		return
	}
	var req application.SubmitTestInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "submit_test", err)
		return
	}
	session, err := h.service.SubmitTest(r.Context(), actor, sessionID, req)
	respond(w, r, "submit_test", http.StatusOK, session, err)
}

func (h *Handler) completeSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	sessionID, err := uuidParam(r, "session_id")
	if err != nil {
		writeValidationError(r.Context(), w, "complete_session", err)
		return
	}
	var req application.CompleteSessionInput
	if err := decodeOptionalBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "complete_session", err)
		return
	}
	session, err := h.service.CompleteSession(r.Context(), actor, sessionID, req)
	respond(w, r, "complete_session", http.StatusOK, session, err)
}

func (h *Handler) listSessionBonusTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	sessionID, err := uuidParam(r, "session_id")
	if err != nil {
		writeValidationError(r.Context(), w, "list_session_bonus_tasks", err)
		return
	}
	tasks, err := h.service.ListSessionBonusTasks(r.Context(), actor, sessionID)
	respond(w, r, "list_session_bonus_tasks", http.StatusOK, tasks, err)
}

func (h *Handler) createBonusTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	sessionID, err := uuidParam(r, "session_id")
	if err != nil {
		writeValidationError(r.Context(), w, "create_bonus_task", err)
		return
	}
	var req application.CreateBonusTaskInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_bonus_task", err)
		return
	}
	task, err := h.service.CreateBonusTask(r.Context(), actor, sessionID, req)
	respond(w, r, "create_bonus_task", http.StatusCreated, task, err)
}
