package handler

import (
	"errors"
	"net/http"

	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/storage"
)

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	h.successResponse(w, r, "获取个人信息成功", myInfo)
}

func (h *Handler) CreateAvatarUploadURL(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		ContentType string `json:"contentType" validate:"required,oneof=image/png image/jpeg image/webp"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	upload, err := h.avatars.PresignUpload(r.Context(), myInfo.UID, req.ContentType)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAvatarStorageDisabled):
			h.errorResponse(w, r, "头像上传功能未开启")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取头像上传地址成功", upload)
}

func (h *Handler) UpdateMyAvatar(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		AvatarURL string `json:"avatarUrl" validate:"required,url"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 只允许使用自己上传目录下的文件
	if !h.avatars.OwnsAvatarURL(myInfo.UID, req.AvatarURL) {
		h.errorResponse(w, r, "头像地址无效")
		return
	}

	user, err := h.tracker.UpdateAvatar(r.Context(), myInfo, req.AvatarURL)
	if err != nil {
		h.serviceError(w, r, err, "个人信息不存在")
		return
	}

	h.successResponse(w, r, "更新头像成功", user)
}
