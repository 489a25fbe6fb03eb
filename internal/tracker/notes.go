package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/realtime"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/utils"
)

// ListNotes 按创建时间升序返回候选人的全部备注
func (s *Service) ListNotes(ctx context.Context, actor *domain.User, candidateID string) ([]*domain.Note, error) {
	if _, err := s.visibleCandidate(ctx, actor, candidateID); err != nil {
		return nil, err
	}
	return s.store.ListNotes(ctx, candidateID)
}

// SubscribeNotes 订阅候选人的备注，每次回调都是按创建时间升序的完整列表
func (s *Service) SubscribeNotes(ctx context.Context, actor *domain.User, candidateID string, onChange func([]*domain.Note)) (*realtime.Subscription, error) {
	if _, err := s.visibleCandidate(ctx, actor, candidateID); err != nil {
		return nil, err
	}

	return realtime.Subscribe(ctx, s.broker, realtime.NotesTopic(candidateID), func(ctx context.Context) ([]*domain.Note, error) {
		return s.store.ListNotes(ctx, candidateID)
	}, onChange)
}

// PostNote 发布备注，并给被提及的其他用户发送通知和邮件
func (s *Service) PostNote(ctx context.Context, actor *domain.User, candidateID string, text string) (string, error) {
	c, err := s.visibleCandidate(ctx, actor, candidateID)
	if err != nil {
		return "", err
	}

	text = utils.SanitizeText(text)
	if text == "" {
		return "", fmt.Errorf("%w: 备注内容不能为空", domain.ErrValidation)
	}

	users, err := s.store.GetAllUsers(ctx)
	if err != nil {
		return "", err
	}

	note := &domain.Note{
		ID:          uuid.NewString(),
		CandidateID: candidateID,
		Text:        text,
		AuthorID:    actor.UID,
		AuthorName:  actor.Name,
		Mentions:    utils.DetectMentions(text, users),
	}
	if err := s.store.CreateNote(ctx, note); err != nil {
		return "", err
	}
	s.publish(ctx, realtime.NotesTopic(candidateID))

	preview := utils.MessagePreview(text)
	for _, uid := range note.Mentions {
		if uid == actor.UID {
			continue
		}
		s.enqueueNotification(ctx, uid, &domain.Notification{
			CandidateID:    candidateID,
			CandidateName:  c.Name,
			NoteID:         note.ID,
			MessagePreview: preview,
		})
		s.sendMentionMail(ctx, findUser(users, uid), actor, c, preview)
	}

	return note.ID, nil
}

// EditNote 只修改备注文本，提及和已发出的通知保持不变
func (s *Service) EditNote(ctx context.Context, actor *domain.User, candidateID, noteID, text string) error {
	note, err := s.editableNote(ctx, actor, candidateID, noteID)
	if err != nil {
		return err
	}

	text = utils.SanitizeText(text)
	if text == "" {
		return fmt.Errorf("%w: 备注内容不能为空", domain.ErrValidation)
	}

	if err := s.store.UpdateNoteText(ctx, candidateID, note.ID, text); err != nil {
		return err
	}
	s.publish(ctx, realtime.NotesTopic(candidateID))

	s.appendHistory(ctx, candidateID, actor, domain.ActionNoteEdited, "A note was edited")
	return nil
}

// RemoveNote 删除备注，已发出的通知不会撤回
func (s *Service) RemoveNote(ctx context.Context, actor *domain.User, candidateID, noteID string) error {
	note, err := s.editableNote(ctx, actor, candidateID, noteID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteNote(ctx, candidateID, note.ID); err != nil {
		return err
	}
	s.publish(ctx, realtime.NotesTopic(candidateID))

	s.appendHistory(ctx, candidateID, actor, domain.ActionNoteDeleted, "A note was deleted")
	return nil
}

// NotesPage 按创建时间降序分页读取备注，cursor 是上一页最后一条备注的 id
func (s *Service) NotesPage(ctx context.Context, actor *domain.User, candidateID string, pageSize int, cursor string) (*domain.NotePage, error) {
	if err := utils.ValidateNotePageSize(pageSize); err != nil {
		return nil, err
	}
	if _, err := s.visibleCandidate(ctx, actor, candidateID); err != nil {
		return nil, err
	}

	notes, err := s.store.ListNotesPage(ctx, candidateID, pageSize, cursor)
	if err != nil {
		return nil, err
	}

	page := &domain.NotePage{Notes: notes}
	if len(notes) == pageSize {
		page.NextCursor = notes[len(notes)-1].ID
	}
	return page, nil
}

func (s *Service) editableNote(ctx context.Context, actor *domain.User, candidateID, noteID string) (*domain.Note, error) {
	if _, err := s.visibleCandidate(ctx, actor, candidateID); err != nil {
		return nil, err
	}

	note, err := s.store.GetNote(ctx, candidateID, noteID)
	if err != nil {
		return nil, err
	}
	if !CanEditNote(actor, note) {
		return nil, domain.ErrForbidden
	}
	return note, nil
}

func (s *Service) sendMentionMail(ctx context.Context, recipient, author *domain.User, c *domain.Candidate, preview string) {
	if recipient == nil || recipient.Email == "" {
		return
	}

	if err := s.mail.PublishMail(ctx, domain.MailMessage{
		Type: domain.MailTypeMention,
		To:   recipient.Email,
		Data: domain.MentionMailData{
			RecipientName:  recipient.Name,
			AuthorName:     author.Name,
			CandidateName:  c.Name,
			MessagePreview: preview,
		},
	}); err != nil {
		slog.Error("无法发布提及邮件", "recipient", recipient.UID, "error", err)
	}
}

func findUser(users []*domain.User, uid string) *domain.User {
	for _, u := range users {
		if u.UID == uid {
			return u
		}
	}
	return nil
}
