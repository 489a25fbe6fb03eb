// Package tracker 实现招聘跟踪的核心业务：候选人、备注、审计历史和提及通知。
//
// 所有读写都在这里做访问控制检查，调用方传入的 actor 是已经通过鉴权的用户。
package tracker

import (
	"context"
	"log/slog"

	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/realtime"
)

type Store interface {
	GetUserByUID(ctx context.Context, uid string) (*domain.User, error)
	GetAllUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUserAvatar(ctx context.Context, uid string, avatarURL string) error

	CreateCandidate(ctx context.Context, c *domain.Candidate) error
	GetCandidate(ctx context.Context, id string) (*domain.Candidate, error)
	ListCandidatesByAssignee(ctx context.Context, uid string) ([]*domain.Candidate, error)
	UpdateCandidateStatus(ctx context.Context, id string, status domain.CandidateStatus) error
	AddAssignedUsers(ctx context.Context, id string, uids []string) ([]string, error)
	DeleteCandidate(ctx context.Context, id string) error

	CreateNote(ctx context.Context, n *domain.Note) error
	GetNote(ctx context.Context, candidateID, noteID string) (*domain.Note, error)
	ListNotes(ctx context.Context, candidateID string) ([]*domain.Note, error)
	ListNotesPage(ctx context.Context, candidateID string, pageSize int, cursor string) ([]*domain.Note, error)
	UpdateNoteText(ctx context.Context, candidateID, noteID, text string) error
	DeleteNote(ctx context.Context, candidateID, noteID string) error

	AppendHistoryEvent(ctx context.Context, e *domain.HistoryEvent) error
	ListHistoryEvents(ctx context.Context, candidateID string) ([]*domain.HistoryEvent, error)

	CreateNotification(ctx context.Context, n *domain.Notification) error
	GetNotification(ctx context.Context, uid, id string) (*domain.Notification, error)
	ListNotifications(ctx context.Context, uid string) ([]*domain.Notification, error)
	MarkNotificationRead(ctx context.Context, uid, id string) error
}

type Broker interface {
	realtime.Watcher
	Publish(ctx context.Context, topic string) error
}

type MailQueue interface {
	PublishMail(ctx context.Context, msg domain.MailMessage) error
}

type Service struct {
	store  Store
	broker Broker
	mail   MailQueue
}

func NewService(store Store, broker Broker, mail MailQueue) *Service {
	return &Service{
		store:  store,
		broker: broker,
		mail:   mail,
	}
}

// publish 通知实时订阅者，写操作本身已经成功，所以失败只记录日志
func (s *Service) publish(ctx context.Context, topic string) {
	if err := s.broker.Publish(ctx, topic); err != nil {
		slog.Error("无法发布变更消息", "topic", topic, "error", err)
	}
}

// visibleCandidate 加载候选人并确认 actor 有权查看
func (s *Service) visibleCandidate(ctx context.Context, actor *domain.User, candidateID string) (*domain.Candidate, error) {
	c, err := s.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, c) {
		return nil, domain.ErrForbidden
	}
	return c, nil
}
