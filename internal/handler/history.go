package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	c := r.Context().Value(CandidateCtx).(*domain.Candidate)

	events, err := h.tracker.ListHistory(r.Context(), myInfo, c.ID)
	if err != nil {
		h.serviceError(w, r, err, "候选人不存在")
		return
	}

	h.successResponse(w, r, "获取历史记录成功", events)
}
