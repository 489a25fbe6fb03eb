package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

func (h *Handler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		Name          string   `json:"name" validate:"required"`
		Email         string   `json:"email" validate:"required,email"`
		Phone         string   `json:"phone"`
		Location      string   `json:"location"`
		Experience    string   `json:"experience"`
		Role          string   `json:"role"`
		Status        string   `json:"status" validate:"omitempty,oneof=pending active interviewed hired rejected"`
		AssignedUsers []string `json:"assignedUsers"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	id, err := h.tracker.Add(r.Context(), myInfo, &domain.Candidate{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Location:      req.Location,
		Experience:    req.Experience,
		Role:          req.Role,
		Status:        domain.CandidateStatus(req.Status),
		AssignedUsers: req.AssignedUsers,
	})
	if err != nil {
		h.serviceError(w, r, err, "候选人不存在")
		return
	}

	c, err := h.tracker.Get(r.Context(), myInfo, id)
	if err != nil {
		h.serviceError(w, r, err, "候选人不存在")
		return
	}

	h.successResponse(w, r, "创建候选人成功", c)
}

func (h *Handler) GetMyCandidates(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	candidates, err := h.tracker.List(r.Context(), myInfo.UID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取候选人列表成功", candidates)
}

func (h *Handler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	c := r.Context().Value(CandidateCtx).(*domain.Candidate)
	h.successResponse(w, r, "获取候选人信息成功", c)
}

func (h *Handler) UpdateCandidateStatus(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	c := r.Context().Value(CandidateCtx).(*domain.Candidate)

	var req struct {
		Status string `json:"status" validate:"required,oneof=pending active interviewed hired rejected"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.tracker.SetStatus(r.Context(), myInfo, c.ID, domain.CandidateStatus(req.Status)); err != nil {
		h.serviceError(w, r, err, "候选人不存在")
		return
	}

	h.successResponse(w, r, "更新候选人状态成功", nil)
}

func (h *Handler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	c := r.Context().Value(CandidateCtx).(*domain.Candidate)

	if err := h.tracker.Remove(r.Context(), myInfo, c.ID); err != nil {
		h.serviceError(w, r, err, "候选人不存在")
		return
	}

	h.successResponse(w, r, "删除候选人成功", nil)
}

func (h *Handler) GrantCandidateAccess(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	c := r.Context().Value(CandidateCtx).(*domain.Candidate)

	var req struct {
		UserIDs []string `json:"userIDs" validate:"required,min=1,dive,required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	assigned, err := h.tracker.GrantAccess(r.Context(), myInfo, c.ID, req.UserIDs)
	if err != nil {
		h.serviceError(w, r, err, "候选人不存在")
		return
	}

	h.successResponse(w, r, "授权成功", assigned)
}
