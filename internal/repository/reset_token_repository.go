package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrTokenAlreadyConsumed = errors.New("reset token already consumed")

// ResetTokenRepository tracks spent reset-token IDs. Tokens themselves are
// stateless and signed; only consumption is recorded, so issuing one has no
// storage side effect.
type ResetTokenRepository interface {
	// Consume records jti as spent. Returns ErrTokenAlreadyConsumed when a
	// row for jti already exists; the conditional insert makes concurrent
	// consumers of the same token mutually exclusive.
	Consume(ctx context.Context, jti string, userID string, expiresAt time.Time) error
	// DeleteExpired removes rows whose token could no longer verify anyway.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type resetTokenRepository struct {
	db *sql.DB
}

func NewResetTokenRepository(db *sql.DB) ResetTokenRepository {
	return &resetTokenRepository{db: db}
}

func (r *resetTokenRepository) Consume(ctx context.Context, jti string, userID string, expiresAt time.Time) error {
	query := `
		INSERT INTO consumed_reset_tokens (jti, user_id, expires_at, consumed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (jti) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query, jti, userID, expiresAt, time.Now().UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTokenAlreadyConsumed
	}
	return nil
}

func (r *resetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM consumed_reset_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
