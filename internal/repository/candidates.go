package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

const candidateColumns = `id, name, email, phone, location, experience, role, status, assigned_users, created_by, created_at`

func scanCandidate(m *pgtype.Map, scan func(dst ...any) error) (*domain.Candidate, error) {
	c := &domain.Candidate{}
	dst := []any{
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Location,
		&c.Experience,
		&c.Role,
		&c.Status,
		textArray(m, &c.AssignedUsers),
		&c.CreatedBy,
		&c.CreatedAt,
	}
	if err := scan(dst...); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repository) CreateCandidate(ctx context.Context, c *domain.Candidate) error {
	query := `
		INSERT INTO candidates (id, name, email, phone, location, experience, role, status, assigned_users, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := []any{c.ID, c.Name, c.Email, c.Phone, c.Location, c.Experience, c.Role, c.Status, c.AssignedUsers, c.CreatedBy}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&c.CreatedAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetCandidate(ctx context.Context, id string) (*domain.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = $1`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	c, err := scanCandidate(pgtype.NewMap(), r.dbpool.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		return nil, notFound(err)
	}

	return c, nil
}

// ListCandidatesByAssignee 返回访问列表中包含 uid 的所有候选人，顺序由数据库决定
func (r *Repository) ListCandidatesByAssignee(ctx context.Context, uid string) ([]*domain.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE $1 = ANY(assigned_users)`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := pgtype.NewMap()
	candidates := make([]*domain.Candidate, 0)
	for rows.Next() {
		c, err := scanCandidate(m, rows.Scan)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return candidates, nil
}

func (r *Repository) UpdateCandidateStatus(ctx context.Context, id string, status domain.CandidateStatus) error {
	query := `
		UPDATE candidates SET status = $1 WHERE id = $2
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

// AddAssignedUsers 把 uids 中尚未在访问列表里的用户追加到末尾，返回更新后的访问列表
func (r *Repository) AddAssignedUsers(ctx context.Context, id string, uids []string) ([]string, error) {
	query := `
		UPDATE candidates
		SET assigned_users = assigned_users || ARRAY(
			SELECT u FROM UNNEST($1::TEXT[]) AS u WHERE NOT (u = ANY(assigned_users))
		)
		WHERE id = $2
		RETURNING assigned_users
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	assigned := make([]string, 0)
	if err := r.dbpool.QueryRowContext(ctx, query, uids, id).Scan(textArray(pgtype.NewMap(), &assigned)); err != nil {
		return nil, notFound(err)
	}

	return assigned, nil
}

// DeleteCandidate 删除候选人，其备注和历史记录通过外键级联一起删除
func (r *Repository) DeleteCandidate(ctx context.Context, id string) error {
	query := `
		DELETE FROM candidates WHERE id = $1
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return expectAffected(result)
}
