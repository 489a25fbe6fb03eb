package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

const tokenCookieName = "__ecnc_recruit_tracker_token"

func (h *Handler) setTokenCookie(w http.ResponseWriter, token string, expiration time.Time) {
	// 通过 http-only 的 cookie 返回给客户端
	cookie := &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Expires:  expiration,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
	}

	if h.config.Environment == "production" {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, cookie)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier" validate:"required"`
		Password   string `json:"password" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 不含 @ 的标识会先按用户名解析成邮箱
	s, err := h.sessions.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		h.serviceError(w, r, err, "用户不存在")
		return
	}

	h.setTokenCookie(w, s.Token, s.ExpiresAt)
	h.successResponse(w, r, "登录成功", s.User)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	s, err := h.sessions.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "identities_email_key":
			h.badRequest(w, r, errors.New("邮箱已存在"))
		default:
			h.serviceError(w, r, err, "用户不存在")
		}
		return
	}

	h.setTokenCookie(w, s.Token, s.ExpiresAt)
	h.successResponse(w, r, "注册成功", s.User)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	sessionID := r.Context().Value(SessionIDCtx).(string)

	if err := h.sessions.Logout(r.Context(), sessionID, myInfo.UID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:    tokenCookieName,
		Value:   "",
		Expires: time.Now().Add(-time.Hour),
		Path:    "/",
	})

	h.successResponse(w, r, "登出成功", nil)
}
