package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

const defaultNotePageSize = 20

func (h *Handler) GetNotes(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	c := r.Context().Value(CandidateCtx).(*domain.Candidate)

	notes, err := h.tracker.ListNotes(r.Context(), myInfo, c.ID)
	if err != nil {
		h.serviceError(w, r, err, "候选人不存在")
		return
	}

	h.successResponse(w, r, "获取备注成功", notes)
}

func (h *Handler) GetNotesPage(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	c := r.Context().Value(CandidateCtx).(*domain.Candidate)

	pageSize := defaultNotePageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.errorResponse(w, r, "每页数量无效")
			return
		}
		pageSize = n
	}

	page, err := h.tracker.NotesPage(r.Context(), myInfo, c.ID, pageSize, r.URL.Query().Get("cursor"))
	if err != nil {
		h.serviceError(w, r, err, "候选人不存在")
		return
	}

	h.successResponse(w, r, "获取备注成功", page)
}

func (h *Handler) PostNote(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	c := r.Context().Value(CandidateCtx).(*domain.Candidate)

	var req struct {
		Text string `json:"text" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	id, err := h.tracker.PostNote(r.Context(), myInfo, c.ID, req.Text)
	if err != nil {
		h.serviceError(w, r, err, "候选人不存在")
		return
	}

	h.successResponse(w, r, "发布备注成功", map[string]string{"id": id})
}

func (h *Handler) EditNote(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	c := r.Context().Value(CandidateCtx).(*domain.Candidate)

	var req struct {
		Text string `json:"text" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.tracker.EditNote(r.Context(), myInfo, c.ID, chi.URLParam(r, "noteID"), req.Text); err != nil {
		h.serviceError(w, r, err, "备注不存在")
		return
	}

	h.successResponse(w, r, "编辑备注成功", nil)
}

func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	c := r.Context().Value(CandidateCtx).(*domain.Candidate)

	if err := h.tracker.RemoveNote(r.Context(), myInfo, c.ID, chi.URLParam(r, "noteID")); err != nil {
		h.serviceError(w, r, err, "备注不存在")
		return
	}

	h.successResponse(w, r, "删除备注成功", nil)
}
