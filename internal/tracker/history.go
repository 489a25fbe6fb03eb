package tracker

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/realtime"
)

// appendHistory 写入审计记录。审计是尽力而为的，失败只记录日志，不影响主操作。
func (s *Service) appendHistory(ctx context.Context, candidateID string, actor *domain.User, action, details string) {
	e := &domain.HistoryEvent{
		ID:          uuid.NewString(),
		CandidateID: candidateID,
		AuthorID:    actor.UID,
		AuthorName:  actor.Name,
		Action:      action,
		Details:     details,
	}

	if err := s.store.AppendHistoryEvent(ctx, e); err != nil {
		slog.Error("无法写入审计记录", "candidate", candidateID, "action", action, "error", err)
		return
	}

	s.publish(ctx, realtime.HistoryTopic(candidateID))
}

// ListHistory 按时间降序返回候选人的审计记录
func (s *Service) ListHistory(ctx context.Context, actor *domain.User, candidateID string) ([]*domain.HistoryEvent, error) {
	if _, err := s.visibleCandidate(ctx, actor, candidateID); err != nil {
		return nil, err
	}
	return s.store.ListHistoryEvents(ctx, candidateID)
}

func (s *Service) SubscribeHistory(ctx context.Context, actor *domain.User, candidateID string, onChange func([]*domain.HistoryEvent)) (*realtime.Subscription, error) {
	if _, err := s.visibleCandidate(ctx, actor, candidateID); err != nil {
		return nil, err
	}

	return realtime.Subscribe(ctx, s.broker, realtime.HistoryTopic(candidateID), func(ctx context.Context) ([]*domain.HistoryEvent, error) {
		return s.store.ListHistoryEvents(ctx, candidateID)
	}, onChange)
}
