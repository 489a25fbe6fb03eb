package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Flush 让实时推送的响应可以穿过日志中间件
func (rw *ResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)
		slog.Info("已处理请求", "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				stackTrace := string(debug.Stack())
				fmt.Print(stackTrace) // 这里如果用 slog 的话会很乱
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// auth 校验 cookie 中的令牌，并把当前用户和会话 ID 附在 context 中
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(tokenCookieName)
		if err != nil {
			switch {
			case errors.Is(err, http.ErrNoCookie):
				h.errorResponse(w, r, "用户未登录")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		user, sessionID, err := h.sessions.Authenticate(r.Context(), cookie.Value)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidCredentials):
				h.errorResponse(w, r, "无效的令牌")
			default:
				h.serviceError(w, r, err, "用户不存在")
			}
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, MyInfoCtx, user)
		ctx = context.WithValue(ctx, SessionIDCtx, sessionID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// candidate 加载路径中的候选人，只有在访问列表中的用户才能继续
func (h *Handler) candidate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

		c, err := h.tracker.Get(r.Context(), myInfo, chi.URLParam(r, "id"))
		if err != nil {
			h.serviceError(w, r, err, "候选人不存在")
			return
		}

		ctx := context.WithValue(r.Context(), CandidateCtx, c)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
