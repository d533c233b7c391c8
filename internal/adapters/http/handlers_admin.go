package http

import (
	"net/http"

	"github.com/Adelipop59/super-try-api-sub002/internal/application"
)

func (h *Handler) platformStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	stats, err := h.service.GetPlatformStats(r.Context(), actor)
	respond(w, r, "get_platform_stats", http.StatusOK, stats, err)
}

func (h *Handler) listSystemLogs(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	userID, err := optionalUUIDQuery(r, "user_id")
	if err != nil {
		writeValidationError(r.Context(), w, "list_system_logs", err)
		return
	}
	from, err := optionalTimeQuery(r, "from")
	if err != nil {
		writeValidationError(r.Context(), w, "list_system_logs", err)
		return
	}
	to, err := optionalTimeQuery(r, "to")
	if err != nil {
		writeValidationError(r.Context(), w, "list_system_logs", err)
		return
	}
	limit, offset := pageParams(r)
	page, err := h.service.ListSystemLogs(r.Context(), actor, application.SystemLogQuery{
		Level:    r.URL.Query().Get("level"),
		Category: r.URL.Query().Get("category"),
		UserID:   userID,
		From:     from,
		To:       to,
		Limit:    limit,
		Offset:   offset,
	})
	respond(w, r, "list_system_logs", http.StatusOK, page, err)
}

func (h *Handler) presignUpload(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req application.PresignInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "presign_upload", err)
		return
	}
	upload, err := h.service.PresignUpload(r.Context(), actor, req)
	respond(w, r, "presign_upload", http.StatusOK, upload, err)
}
