package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("服务器内部错误", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
		http.Error(w, "服务器内部错误", http.StatusInternalServerError)
	}
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, msg string) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: false,
		Message: msg,
		Data:    nil,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		h.errorResponse(w, r, err.Error())
		return
	}

	h.errorResponse(w, r, validationErrors[0].Translate(h.translator))
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Message: "服务器内部错误",
		Data:    nil,
	})
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

// serviceError 把业务层返回的错误转换成响应，notFoundMsg 用于资源不存在的情况
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		h.errorResponse(w, r, strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": "))
	case errors.Is(err, domain.ErrForbidden):
		h.errorResponse(w, r, "权限不足")
	case errors.Is(err, domain.ErrNotFound):
		h.errorResponse(w, r, notFoundMsg)
	case errors.Is(err, domain.ErrUnresolvable):
		h.errorResponse(w, r, "关联的候选人不存在或您无权查看")
	case errors.Is(err, domain.ErrInvalidCredentials):
		h.errorResponse(w, r, "用户名不存在或密码错误")
	case errors.Is(err, domain.ErrSessionRevoked):
		h.errorResponse(w, r, "登录已失效，请重新登录")
	default:
		h.internalServerError(w, r, err)
	}
}
