package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// PasswordResetToken represents a stored single-use reset token.
type PasswordResetToken struct {
	ID        string
	AccountID string
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token is unused and unexpired at now.
func (t *PasswordResetToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}

// PasswordResetRepository manages password reset token persistence.
type PasswordResetRepository interface {
	Create(ctx context.Context, token *PasswordResetToken) error
	GetByToken(ctx context.Context, token string) (*PasswordResetToken, error)
	MarkUsed(ctx context.Context, id string) error
}

type passwordResetRepository struct {
	db DB
}

// NewPasswordResetRepository constructs repository.
func NewPasswordResetRepository(db DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, token *PasswordResetToken) error {
	const query = `
        INSERT INTO password_reset_tokens (account_id, token, expires_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		token.AccountID,
		token.Token,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

func (r *passwordResetRepository) GetByToken(ctx context.Context, tokenStr string) (*PasswordResetToken, error) {
	const query = `
        SELECT id, account_id, token, expires_at, used_at, created_at
        FROM password_reset_tokens WHERE token=$1`
	var token PasswordResetToken
	if err := r.db.QueryRow(ctx, query, tokenStr).Scan(
		&token.ID,
		&token.AccountID,
		&token.Token,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

// MarkUsed consumes the token. A token already used reports pgx.ErrNoRows.
func (r *passwordResetRepository) MarkUsed(ctx context.Context, id string) error {
	const query = `
        UPDATE password_reset_tokens SET used_at=NOW()
        WHERE id=$1 AND used_at IS NULL`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
