package repository

import (
	"context"

	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

func (r *Repository) CreateIdentity(ctx context.Context, identity *domain.Identity) error {
	query := `
		INSERT INTO identities (uid, email, password_hash, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := []any{identity.UID, identity.Email, identity.PasswordHash, identity.DisplayName}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&identity.CreatedAt); err != nil {
		return err
	}

	return nil
}

// GetIdentityByEmail 不区分邮箱大小写，返回注册时保存的邮箱
func (r *Repository) GetIdentityByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	query := `
		SELECT uid, email, password_hash, display_name, created_at
		FROM identities WHERE LOWER(email) = LOWER($1)
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	identity := &domain.Identity{}

	dst := []any{&identity.UID, &identity.Email, &identity.PasswordHash, &identity.DisplayName, &identity.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, email).Scan(dst...); err != nil {
		return nil, notFound(err)
	}

	return identity, nil
}

func (r *Repository) GetIdentityByUID(ctx context.Context, uid string) (*domain.Identity, error) {
	query := `
		SELECT email, password_hash, display_name, created_at
		FROM identities WHERE uid = $1
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	identity := &domain.Identity{
		UID: uid,
	}

	dst := []any{&identity.Email, &identity.PasswordHash, &identity.DisplayName, &identity.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, uid).Scan(dst...); err != nil {
		return nil, notFound(err)
	}

	return identity, nil
}

func (r *Repository) UpdateIdentityDisplayName(ctx context.Context, uid string, displayName string) error {
	query := `
		UPDATE identities SET display_name = $1 WHERE uid = $2
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, displayName, uid)
	if err != nil {
		return err
	}

	return expectAffected(result)
}
