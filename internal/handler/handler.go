package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/config"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/session"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/storage"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/tracker"
)

// Sessions 是 *session.Manager 提供给 HTTP 层的部分
type Sessions interface {
	Login(ctx context.Context, identifier, password string) (*session.Session, error)
	Register(ctx context.Context, name, email, password string) (*session.Session, error)
	Authenticate(ctx context.Context, token string) (*domain.User, string, error)
	Logout(ctx context.Context, sessionID, uid string) error
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	translator ut.Translator
	sessions   Sessions
	tracker    *tracker.Service
	avatars    *storage.AvatarStore

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, sessions Sessions, svc *tracker.Service, avatars *storage.AvatarStore) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		translator: trans,
		sessions:   sessions,
		tracker:    svc,
		avatars:    avatars,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.With(h.auth).Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Get("/", h.GetMyInfo)
			r.Post("/avatar/upload-url", h.CreateAvatarUploadURL)
			r.Patch("/avatar", h.UpdateMyAvatar)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.GetAllUsers)
			r.Get("/mention-suggestions", h.GetMentionSuggestions)
			r.Get("/mention-completion", h.GetMentionCompletion)
		})

		r.Route("/candidates", func(r chi.Router) {
			r.Post("/", h.CreateCandidate)
			r.Get("/", h.GetMyCandidates)
			r.Route("/{id}", func(r chi.Router) {
				// 不在访问列表中的用户在这里就会被拒绝
				r.Use(h.candidate)
				r.Get("/", h.GetCandidate)
				r.Patch("/status", h.UpdateCandidateStatus)
				r.Delete("/", h.DeleteCandidate)
				r.Post("/assigned-users", h.GrantCandidateAccess)
				r.Route("/notes", func(r chi.Router) {
					r.Get("/", h.GetNotes)
					r.Get("/stream", h.StreamNotes)
					r.Get("/page", h.GetNotesPage)
					r.Post("/", h.PostNote)
					r.Patch("/{noteID}", h.EditNote)
					r.Delete("/{noteID}", h.DeleteNote)
				})
				r.Route("/history", func(r chi.Router) {
					r.Get("/", h.GetHistory)
					r.Get("/stream", h.StreamHistory)
				})
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.GetMyNotifications)
			r.Get("/stream", h.StreamNotifications)
			r.Patch("/{id}/read", h.MarkNotificationRead)
			r.Get("/{id}/resolve", h.ResolveNotification)
		})
	})
}
