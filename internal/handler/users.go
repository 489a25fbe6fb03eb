package handler

import (
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/utils"
)

func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.tracker.Users(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取用户列表成功", users)
}

// mentionCursor 读取光标位置，缺省时光标在文本末尾
func mentionCursor(r *http.Request, text string) (int, error) {
	raw := r.URL.Query().Get("cursor")
	if raw == "" {
		return utf8.RuneCountInString(text), nil
	}
	return strconv.Atoi(raw)
}

func (h *Handler) GetMentionSuggestions(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	cursor, err := mentionCursor(r, text)
	if err != nil {
		h.errorResponse(w, r, "光标位置无效")
		return
	}

	suggestions, err := h.tracker.SuggestMentions(r.Context(), text, cursor)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取提及建议成功", suggestions)
}

func (h *Handler) GetMentionCompletion(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	name := r.URL.Query().Get("name")
	if name == "" {
		h.errorResponse(w, r, "用户名不能为空")
		return
	}

	cursor, err := mentionCursor(r, text)
	if err != nil {
		h.errorResponse(w, r, "光标位置无效")
		return
	}

	completed, newCursor := utils.CompleteMention(text, cursor, name)
	h.successResponse(w, r, "补全提及成功", map[string]any{
		"text":   completed,
		"cursor": newCursor,
	})
}
