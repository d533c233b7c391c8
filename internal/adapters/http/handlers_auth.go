package http

import (
	"net/http"

	"github.com/Adelipop59/super-try-api-sub002/internal/application"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req application.RegisterInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "register", err)
		return
	}
	resp, err := h.service.Register(r.Context(), req)
	respond(w, r, "register", http.StatusCreated, resp, err)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req application.LoginInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "login", err)
		return
	}
	resp, err := h.service.Login(r.Context(), req)
	respond(w, r, "login", http.StatusOK, resp, err)
}

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetMe(r.Context(), actor)
	respond(w, r, "get_me", http.StatusOK, user, err)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req application.UpdateProfileInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_profile", err)
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), actor, req)
	respond(w, r, "update_profile", http.StatusOK, user, err)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	limit, offset := pageParams(r)
	page, err := h.service.ListUsers(r.Context(), actor, application.ListUsersQuery{
		Role:   r.URL.Query().Get("role"),
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	respond(w, r, "list_users", http.StatusOK, page, err)
}

func (h *Handler) setUserStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	userID, err := uuidParam(r, "user_id")
	if err != nil {
		writeValidationError(r.Context(), w, "set_user_status", err)
		return
	}
	var req application.SetUserStatusInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "set_user_status", err)
		return
	}
	user, err := h.service.SetUserStatus(r.Context(), actor, userID, req)
	respond(w, r, "set_user_status", http.StatusOK, user, err)
}
