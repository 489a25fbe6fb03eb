package repository

import (
	"context"

	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

func (r *Repository) CreateNotification(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, candidate_id, candidate_name, note_id, message_preview)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING is_read, created_at
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := []any{n.ID, n.UserID, n.CandidateID, n.CandidateName, n.NoteID, n.MessagePreview}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&n.IsRead, &n.CreatedAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetNotification(ctx context.Context, uid, id string) (*domain.Notification, error) {
	query := `
		SELECT candidate_id, candidate_name, note_id, message_preview, is_read, created_at
		FROM notifications WHERE user_id = $1 AND id = $2
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	n := &domain.Notification{
		ID:     id,
		UserID: uid,
	}

	dst := []any{&n.CandidateID, &n.CandidateName, &n.NoteID, &n.MessagePreview, &n.IsRead, &n.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, uid, id).Scan(dst...); err != nil {
		return nil, notFound(err)
	}

	return n, nil
}

// ListNotifications 按创建时间降序返回用户的通知
func (r *Repository) ListNotifications(ctx context.Context, uid string) ([]*domain.Notification, error) {
	query := `
		SELECT id, candidate_id, candidate_name, note_id, message_preview, is_read, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]*domain.Notification, 0)
	for rows.Next() {
		n := &domain.Notification{UserID: uid}
		dst := []any{&n.ID, &n.CandidateID, &n.CandidateName, &n.NoteID, &n.MessagePreview, &n.IsRead, &n.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}

// MarkNotificationRead 幂等：已读的通知再次标记时同样命中一行
func (r *Repository) MarkNotificationRead(ctx context.Context, uid, id string) error {
	query := `
		UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND id = $2
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, uid, id)
	if err != nil {
		return err
	}

	return expectAffected(result)
}
