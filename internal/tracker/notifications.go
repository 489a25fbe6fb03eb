package tracker

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/realtime"
)

// enqueueNotification 给 recipient 写入一条未读通知，失败不影响发布备注
func (s *Service) enqueueNotification(ctx context.Context, recipient string, n *domain.Notification) {
	n.ID = uuid.NewString()
	n.UserID = recipient
	n.IsRead = false

	if err := s.store.CreateNotification(ctx, n); err != nil {
		slog.Error("无法写入通知", "recipient", recipient, "note", n.NoteID, "error", err)
		return
	}

	s.publish(ctx, realtime.NotificationsTopic(recipient))
}

func (s *Service) ListNotifications(ctx context.Context, actor *domain.User) ([]*domain.Notification, error) {
	return s.store.ListNotifications(ctx, actor.UID)
}

// SubscribeNotifications 订阅 actor 自己的通知，按创建时间降序
func (s *Service) SubscribeNotifications(ctx context.Context, actor *domain.User, onChange func([]*domain.Notification)) (*realtime.Subscription, error) {
	uid := actor.UID
	return realtime.Subscribe(ctx, s.broker, realtime.NotificationsTopic(uid), func(ctx context.Context) ([]*domain.Notification, error) {
		return s.store.ListNotifications(ctx, uid)
	}, onChange)
}

// MarkRead 是幂等的，只能标记自己的通知
func (s *Service) MarkRead(ctx context.Context, actor *domain.User, notificationID string) error {
	if err := s.store.MarkNotificationRead(ctx, actor.UID, notificationID); err != nil {
		return err
	}

	s.publish(ctx, realtime.NotificationsTopic(actor.UID))
	return nil
}

type Resolution struct {
	Candidate       *domain.Candidate `json:"candidate"`
	HighlightNoteID string            `json:"highlightNoteId"`
}

// ResolveNotification 处理通知的点击：标记已读，然后在 actor 可见的候选人中查找关联的候选人。
// 找不到时返回 domain.ErrUnresolvable，例如候选人已被删除。
func (s *Service) ResolveNotification(ctx context.Context, actor *domain.User, notificationID string) (*Resolution, error) {
	n, err := s.store.GetNotification(ctx, actor.UID, notificationID)
	if err != nil {
		return nil, err
	}

	if !n.IsRead {
		if err := s.MarkRead(ctx, actor, n.ID); err != nil {
			slog.Error("无法将通知标记为已读", "notification", n.ID, "error", err)
		}
	}

	candidates, err := s.List(ctx, actor.UID)
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		if c.ID == n.CandidateID {
			return &Resolution{Candidate: c, HighlightNoteID: n.NoteID}, nil
		}
	}

	return nil, domain.ErrUnresolvable
}
