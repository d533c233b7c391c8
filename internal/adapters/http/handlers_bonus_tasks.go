package http

import (
	"context"
	"net/http"

	"github.com/Adelipop59/super-try-api-sub002/internal/application"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/google/uuid"
)

type bonusTaskAction func(ctx context.Context, actor application.Actor, taskID uuid.UUID) (domain.BonusTask, error)

// bonusTaskTransition serves the bodiless task transitions.
func (h *Handler) bonusTaskTransition(operation string, action bonusTaskAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}
		taskID, err := uuidParam(r, "task_id")
		if err != nil {
			writeValidationError(r.Context(), w, operation, err)
			return
		}
		task, err := action(r.Context(), actor, taskID)
		respond(w, r, operation, http.StatusOK, task, err)
	}
}

func (h *Handler) acceptBonusTask(w http.ResponseWriter, r *http.Request) {
	h.bonusTaskTransition("accept_bonus_task", h.service.AcceptBonusTask)(w, r)
}

func (h *Handler) declineBonusTask(w http.ResponseWriter, r *http.Request) {
	h.bonusTaskTransition("decline_bonus_task", h.service.DeclineBonusTask)(w, r)
}

func (h *Handler) validateBonusTask(w http.ResponseWriter, r *http.Request) {
	h.bonusTaskTransition("validate_bonus_task", h.service.ValidateBonusTask)(w, r)
}

func (h *Handler) cancelBonusTask(w http.ResponseWriter, r *http.Request) {
	h.bonusTaskTransition("cancel_bonus_task", h.service.CancelBonusTask)(w, r)
}

func (h *Handler) submitBonusTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	taskID, err := uuidParam(r, "task_id")
	if err != nil {
		writeValidationError(r.Context(), w, "submit_bonus_task", err)
		return
	}
	var req application.SubmitBonusTaskInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "submit_bonus_task", err)
		return
	}
	task, err := h.service.SubmitBonusTask(r.Context(), actor, taskID, req)
	respond(w, r, "submit_bonus_task", http.StatusOK, task, err)
}

func (h *Handler) rejectBonusTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	taskID, err := uuidParam(r, "task_id")
	if err != nil {
		writeValidationError(r.Context(), w, "reject_bonus_task", err)
		return
	}
	var req application.ReasonInput
	if err := decodeOptionalBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "reject_bonus_task", err)
		return
	}
	task, err := h.service.RejectBonusTask(r.Context(), actor, taskID, req)
	respond(w, r, "reject_bonus_task", http.StatusOK, task, err)
}
