package repository

import (
	"context"

	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

func (r *Repository) AppendHistoryEvent(ctx context.Context, e *domain.HistoryEvent) error {
	query := `
		INSERT INTO history_events (id, candidate_id, author_id, author_name, action, details)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING timestamp
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := []any{e.ID, e.CandidateID, e.AuthorID, e.AuthorName, e.Action, e.Details}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&e.Timestamp); err != nil {
		return err
	}

	return nil
}

// ListHistoryEvents 按时间降序返回候选人的审计记录
func (r *Repository) ListHistoryEvents(ctx context.Context, candidateID string) ([]*domain.HistoryEvent, error) {
	query := `
		SELECT id, candidate_id, timestamp, author_id, author_name, action, details
		FROM history_events WHERE candidate_id = $1
		ORDER BY timestamp DESC, id DESC
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.HistoryEvent, 0)
	for rows.Next() {
		e := &domain.HistoryEvent{}
		dst := []any{&e.ID, &e.CandidateID, &e.Timestamp, &e.AuthorID, &e.AuthorName, &e.Action, &e.Details}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
