package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/realtime"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/utils"
)

// Add 创建候选人。创建者总是被加入访问列表，状态缺省为 pending。
func (s *Service) Add(ctx context.Context, actor *domain.User, c *domain.Candidate) (string, error) {
	candidate := &domain.Candidate{
		ID:         uuid.NewString(),
		Name:       utils.SanitizeText(c.Name),
		Email:      utils.SanitizeText(c.Email),
		Phone:      utils.SanitizeText(c.Phone),
		Location:   utils.SanitizeText(c.Location),
		Experience: utils.SanitizeText(c.Experience),
		Role:       utils.SanitizeText(c.Role),
		Status:     c.Status,
		CreatedBy:  actor.UID,
	}
	if candidate.Status == "" {
		candidate.Status = domain.StatusPending
	}

	if err := utils.ValidateCandidate(candidate); err != nil {
		return "", err
	}

	candidate.AssignedUsers = []string{actor.UID}
	for _, uid := range c.AssignedUsers {
		if uid != "" && !slices.Contains(candidate.AssignedUsers, uid) {
			candidate.AssignedUsers = append(candidate.AssignedUsers, uid)
		}
	}

	if err := s.store.CreateCandidate(ctx, candidate); err != nil {
		return "", err
	}

	s.appendHistory(ctx, candidate.ID, actor, domain.ActionStatusUpdated,
		fmt.Sprintf("Candidate profile for %s was created", candidate.Name))

	return candidate.ID, nil
}

// List 返回访问列表中包含 uid 的候选人
func (s *Service) List(ctx context.Context, uid string) ([]*domain.Candidate, error) {
	return s.store.ListCandidatesByAssignee(ctx, uid)
}

func (s *Service) Get(ctx context.Context, actor *domain.User, candidateID string) (*domain.Candidate, error) {
	return s.visibleCandidate(ctx, actor, candidateID)
}

// SetStatus 更新状态并记录旧状态到新状态的变化，旧状态取自更新前读到的值
func (s *Service) SetStatus(ctx context.Context, actor *domain.User, candidateID string, status domain.CandidateStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: 无效的候选人状态 %q", domain.ErrValidation, status)
	}

	c, err := s.visibleCandidate(ctx, actor, candidateID)
	if err != nil {
		return err
	}
	old := c.Status

	if err := s.store.UpdateCandidateStatus(ctx, candidateID, status); err != nil {
		return err
	}

	s.appendHistory(ctx, candidateID, actor, domain.ActionStatusUpdated,
		fmt.Sprintf("Status changed from %s to %s", old, status))

	return nil
}

// GrantAccess 把目录中的用户加入访问列表，返回更新后的列表
func (s *Service) GrantAccess(ctx context.Context, actor *domain.User, candidateID string, uids []string) ([]string, error) {
	c, err := s.visibleCandidate(ctx, actor, candidateID)
	if err != nil {
		return nil, err
	}

	users, err := s.store.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}

	added := make([]string, 0)
	names := make([]string, 0)
	for _, u := range users {
		if slices.Contains(uids, u.UID) && !c.IsAssigned(u.UID) {
			added = append(added, u.UID)
			names = append(names, u.Name)
		}
	}
	if len(added) == 0 {
		return c.AssignedUsers, nil
	}

	assigned, err := s.store.AddAssignedUsers(ctx, candidateID, added)
	if err != nil {
		return nil, err
	}

	s.appendHistory(ctx, candidateID, actor, domain.ActionAccessGranted,
		"Gave access to "+strings.Join(names, ", "))

	return assigned, nil
}

// Remove 删除候选人，备注和历史随之删除，已发出的通知保留
func (s *Service) Remove(ctx context.Context, actor *domain.User, candidateID string) error {
	c, err := s.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return err
	}
	if !CanDelete(actor, c) {
		return domain.ErrForbidden
	}

	if err := s.store.DeleteCandidate(ctx, candidateID); err != nil {
		return err
	}

	slog.Info("候选人已删除", "candidate", candidateID, "by", actor.UID)
	s.publish(ctx, realtime.NotesTopic(candidateID))
	s.publish(ctx, realtime.HistoryTopic(candidateID))
	return nil
}
