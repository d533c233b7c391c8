package http

import (
	"net/http"

	"github.com/Adelipop59/super-try-api-sub002/internal/application"
)

func (h *Handler) createReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req application.ReviewInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_review", err)
		return
	}
	review, err := h.service.CreateReview(r.Context(), actor, req)
	respond(w, r, "create_review", http.StatusCreated, review, err)
}

func (h *Handler) listProductReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := uuidParam(r, "product_id")
	if err != nil {
		writeValidationError(r.Context(), w, "list_product_reviews", err)
		return
	}
	limit, offset := pageParams(r)
	page, err := h.service.ListProductReviews(r.Context(), productID, limit, offset)
	respond(w, r, "list_product_reviews", http.StatusOK, page, err)
}

func (h *Handler) listCampaignReviews(w http.ResponseWriter, r *http.Request) {
	campaignID, err := uuidParam(r, "campaign_id")
	if err != nil {
		writeValidationError(r.Context(), w, "list_campaign_reviews", err)
		return
	}
	limit, offset := pageParams(r)
	page, err := h.service.ListCampaignReviews(r.Context(), campaignID, limit, offset)
	respond(w, r, "list_campaign_reviews", http.StatusOK, page, err)
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	limit, offset := pageParams(r)
	unreadOnly := r.URL.Query().Get("unread") == "true"
	page, err := h.service.ListNotifications(r.Context(), actor, unreadOnly, limit, offset)
	respond(w, r, "list_notifications", http.StatusOK, page, err)
}

func (h *Handler) unreadNotificationCount(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	n, err := h.service.UnreadNotificationCount(r.Context(), actor)
	respond(w, r, "unread_notification_count", http.StatusOK, map[string]int{"unread": n}, err)
}

func (h *Handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	notificationID, err := uuidParam(r, "notification_id")
	if err != nil {
		writeValidationError(r.Context(), w, "mark_notification_read", err)
		return
	}
	if err := h.service.MarkNotificationRead(r.Context(), actor, notificationID); err != nil {
		writeMappedError(r.Context(), w, "mark_notification_read", err)
		return
	}
	writeMessage(w, http.StatusOK, "notification marked as read")
}

func (h *Handler) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	n, err := h.service.MarkAllNotificationsRead(r.Context(), actor)
	respond(w, r, "mark_all_notifications_read", http.StatusOK, map[string]int{"updated": n}, err)
}

func (h *Handler) broadcastNotification(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req application.BroadcastInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "broadcast_notification", err)
		return
	}
	result, err := h.service.BroadcastNotification(r.Context(), actor, req)
	respond(w, r, "broadcast_notification", http.StatusAccepted, result, err)
}
