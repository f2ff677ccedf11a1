// internal/repository/postgres/session_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "instaup-service/internal/domain/session"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository owns the authoritative session rows. One row per user:
// a new login replaces the previous browsing context.
type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

// Upsert creates or replaces the session row for a user.
func (r *SessionRepository) Upsert(ctx context.Context, userID, jti string, expiresAt time.Time) error {
	query := `
		INSERT INTO sessions (user_id, jti, last_activity, expires_at)
		VALUES ($1, $2, now(), $3)
		ON CONFLICT (user_id) DO UPDATE
		SET jti = EXCLUDED.jti, last_activity = now(), expires_at = EXCLUDED.expires_at
	`
	if _, err := r.db.Exec(ctx, query, userID, jti, expiresAt); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// FetchSession returns the authoritative session snapshot for a user, or
// (nil, nil) when the backend positively knows of no such session.
func (r *SessionRepository) FetchSession(ctx context.Context, userID string) (*domain.Session, error) {
	query := `
		SELECT u.id, u.email, u.name, u.balance, u.is_admin, s.last_activity, s.expires_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.user_id = $1
	`

	var snap domain.Session
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&snap.UserID, &snap.Email, &snap.Name, &snap.Balance, &snap.IsAdmin,
		&snap.LastActivity, &snap.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}

	return &snap, nil
}

// Touch bumps the session's last-activity timestamp.
func (r *SessionRepository) Touch(ctx context.Context, userID string) error {
	if _, err := r.db.Exec(ctx,
		`UPDATE sessions SET last_activity = now() WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// Delete removes the session row on logout.
func (r *SessionRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
