package tracker

import (
	"context"

	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/utils"
)

func (s *Service) Users(ctx context.Context) ([]*domain.User, error) {
	return s.store.GetAllUsers(ctx)
}

// UpdateAvatar 更新 actor 自己的头像地址，返回更新后的目录记录
func (s *Service) UpdateAvatar(ctx context.Context, actor *domain.User, avatarURL string) (*domain.User, error) {
	if err := s.store.UpdateUserAvatar(ctx, actor.UID, avatarURL); err != nil {
		return nil, err
	}
	return s.store.GetUserByUID(ctx, actor.UID)
}

type MentionSuggestions struct {
	Active bool           `json:"active"`
	Query  string         `json:"query"`
	Users  []*domain.User `json:"users"`
}

// SuggestMentions 根据光标前的文本给出 @ 提及的候选用户
func (s *Service) SuggestMentions(ctx context.Context, text string, cursor int) (*MentionSuggestions, error) {
	query, ok := utils.MentionQuery(text, cursor)
	if !ok {
		return &MentionSuggestions{Users: []*domain.User{}}, nil
	}

	users, err := s.store.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}

	return &MentionSuggestions{
		Active: true,
		Query:  query,
		Users:  utils.FilterMentionCandidates(users, query),
	}, nil
}
