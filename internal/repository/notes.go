package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

func scanNote(m *pgtype.Map, scan func(dst ...any) error) (*domain.Note, error) {
	n := &domain.Note{}
	dst := []any{&n.ID, &n.CandidateID, &n.Text, &n.AuthorID, &n.AuthorName, textArray(m, &n.Mentions), &n.CreatedAt}
	if err := scan(dst...); err != nil {
		return nil, err
	}
	return n, nil
}

func (r *Repository) CreateNote(ctx context.Context, n *domain.Note) error {
	query := `
		INSERT INTO notes (id, candidate_id, text, author_id, author_name, mentions)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := []any{n.ID, n.CandidateID, n.Text, n.AuthorID, n.AuthorName, n.Mentions}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&n.CreatedAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetNote(ctx context.Context, candidateID, noteID string) (*domain.Note, error) {
	query := `
		SELECT id, candidate_id, text, author_id, author_name, mentions, created_at
		FROM notes WHERE candidate_id = $1 AND id = $2
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	n, err := scanNote(pgtype.NewMap(), r.dbpool.QueryRowContext(ctx, query, candidateID, noteID).Scan)
	if err != nil {
		return nil, notFound(err)
	}

	return n, nil
}

// ListNotes 按创建时间升序返回候选人的全部备注
func (r *Repository) ListNotes(ctx context.Context, candidateID string) ([]*domain.Note, error) {
	query := `
		SELECT id, candidate_id, text, author_id, author_name, mentions, created_at
		FROM notes WHERE candidate_id = $1
		ORDER BY created_at ASC, id ASC
	`

	return r.queryNotes(ctx, query, candidateID)
}

// ListNotesPage 按创建时间降序分页，cursor 为上一页最后一条备注的 ID
func (r *Repository) ListNotesPage(ctx context.Context, candidateID string, pageSize int, cursor string) ([]*domain.Note, error) {
	if cursor == "" {
		query := `
			SELECT id, candidate_id, text, author_id, author_name, mentions, created_at
			FROM notes WHERE candidate_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`
		return r.queryNotes(ctx, query, candidateID, pageSize)
	}

	query := `
		SELECT n.id, n.candidate_id, n.text, n.author_id, n.author_name, n.mentions, n.created_at
		FROM notes n, notes c
		WHERE n.candidate_id = $1 AND c.candidate_id = $1 AND c.id = $3
			AND (n.created_at, n.id) < (c.created_at, c.id)
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT $2
	`
	return r.queryNotes(ctx, query, candidateID, pageSize, cursor)
}

func (r *Repository) queryNotes(ctx context.Context, query string, args ...any) ([]*domain.Note, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := pgtype.NewMap()
	notes := make([]*domain.Note, 0)
	for rows.Next() {
		n, err := scanNote(m, rows.Scan)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notes, nil
}

// UpdateNoteText 只更新备注内容，提及列表保持不变
func (r *Repository) UpdateNoteText(ctx context.Context, candidateID, noteID, text string) error {
	query := `
		UPDATE notes SET text = $1 WHERE candidate_id = $2 AND id = $3
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, text, candidateID, noteID)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

func (r *Repository) DeleteNote(ctx context.Context, candidateID, noteID string) error {
	query := `
		DELETE FROM notes WHERE candidate_id = $1 AND id = $2
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, candidateID, noteID)
	if err != nil {
		return err
	}

	return expectAffected(result)
}
