package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shefaa-icu/internal/application/notification"
	"github.com/shefaa-icu/internal/domain"
	"github.com/shefaa-icu/internal/transport/http/middleware"
)

// NotificationHandler handles notification endpoints.
type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List returns the caller's notifications; ?unread=true restricts to unread ones.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var (
		items []domain.Notification
		err   error
	)
	if r.URL.Query().Get("unread") == "true" {
		items, err = h.svc.ListUnread(r.Context(), claims.StaffID)
	} else {
		items, err = h.svc.List(r.Context(), claims.StaffID, queryInt(r, "limit"))
	}
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", items)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.UnreadCount(r.Context(), middleware.StaffID(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", map[string]int{"count": n})
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	n, err := h.svc.MarkAsRead(r.Context(), chi.URLParam(r, "id"), claims.StaffID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "notification marked as read", n)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.MarkAllRead(r.Context(), middleware.StaffID(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "notifications marked as read", map[string]int{"updated": n})
}

func (h *NotificationHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req domain.BroadcastRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.NotifyAll(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "broadcast sent", res)
}
