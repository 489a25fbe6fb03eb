package repository

import (
	"context"

	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

func (r *Repository) GetUserByUID(ctx context.Context, uid string) (*domain.User, error) {
	query := `
		SELECT name, email, avatar_url
		FROM users WHERE uid = $1
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	user := &domain.User{
		UID: uid,
	}

	dst := []any{&user.Name, &user.Email, &user.AvatarURL}
	if err := r.dbpool.QueryRowContext(ctx, query, uid).Scan(dst...); err != nil {
		return nil, notFound(err)
	}

	return user, nil
}

// GetUserByName 按名字精确查找目录记录，名字重复时取最早创建的一个
func (r *Repository) GetUserByName(ctx context.Context, name string) (*domain.User, error) {
	query := `
		SELECT uid, email, avatar_url
		FROM users WHERE name = $1
		ORDER BY created_at, uid
		LIMIT 1
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	user := &domain.User{
		Name: name,
	}

	dst := []any{&user.UID, &user.Email, &user.AvatarURL}
	if err := r.dbpool.QueryRowContext(ctx, query, name).Scan(dst...); err != nil {
		return nil, notFound(err)
	}

	return user, nil
}

func (r *Repository) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT uid, name, email, avatar_url FROM users ORDER BY name, uid
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user := &domain.User{}
		dst := []any{&user.UID, &user.Name, &user.Email, &user.AvatarURL}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// EnsureUser 在目录记录不存在时创建它，已存在则保持原样，可以被并发地重复调用
func (r *Repository) EnsureUser(ctx context.Context, user *domain.User) (bool, error) {
	query := `
		INSERT INTO users (uid, name, email, avatar_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (uid) DO NOTHING
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, user.UID, user.Name, user.Email, user.AvatarURL)
	if err != nil {
		return false, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// PutUser 写入完整的目录记录，已存在时覆盖
func (r *Repository) PutUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (uid, name, email, avatar_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (uid) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, avatar_url = EXCLUDED.avatar_url
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, user.UID, user.Name, user.Email, user.AvatarURL)
	return err
}

func (r *Repository) UpdateUserAvatar(ctx context.Context, uid string, avatarURL string) error {
	query := `
		UPDATE users SET avatar_url = $1 WHERE uid = $2
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, avatarURL, uid)
	if err != nil {
		return err
	}

	return expectAffected(result)
}
