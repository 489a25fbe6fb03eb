package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

func (h *Handler) GetMyNotifications(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	notifications, err := h.tracker.ListNotifications(r.Context(), myInfo)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取通知成功", notifications)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	if err := h.tracker.MarkRead(r.Context(), myInfo, chi.URLParam(r, "id")); err != nil {
		h.serviceError(w, r, err, "通知不存在")
		return
	}

	h.successResponse(w, r, "已标记为已读", nil)
}

func (h *Handler) ResolveNotification(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	res, err := h.tracker.ResolveNotification(r.Context(), myInfo, chi.URLParam(r, "id"))
	if err != nil {
		h.serviceError(w, r, err, "通知不存在")
		return
	}

	h.successResponse(w, r, "获取通知关联的候选人成功", res)
}
