package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/taskboard-server/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

const (
	insertSessionQuery = `INSERT INTO refresh_tokens (id, token_hash, user_id, expires_at, revoked, ip_address, user_agent, created_at) VALUES ($1, $2, $3, $4, FALSE, $5, $6, $7)`
	revokeActiveQuery  = `UPDATE refresh_tokens SET revoked = TRUE WHERE id = $1 AND revoked = FALSE AND expires_at > $2`
)

// SessionRepository stores refresh tokens in the refresh_tokens table.
type SessionRepository struct {
	db *Connection
}

func NewSessionRepository(db *Connection) *SessionRepository {
	return &SessionRepository{db: db}
}

func sessionArgs(s model.RefreshToken) []any {
	return []any{s.ID, s.TokenHash, s.UserID, s.ExpiresAt, s.IPAddress, s.UserAgent, s.CreatedAt}
}

func (r *SessionRepository) Create(ctx context.Context, session model.RefreshToken) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	if _, err := r.db.Exec(ctx, insertSessionQuery, sessionArgs(session)...); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) FindActive(ctx context.Context, tokenHash string, userID uuid.UUID, now time.Time) (model.RefreshToken, error) {
	const query = `SELECT id, token_hash, user_id, expires_at, revoked, ip_address, user_agent, created_at FROM refresh_tokens WHERE token_hash = $1 AND user_id = $2 AND revoked = FALSE AND expires_at > $3`

	var s model.RefreshToken
	err := r.db.QueryRow(ctx, query, tokenHash, userID, now).Scan(
		&s.ID, &s.TokenHash, &s.UserID, &s.ExpiresAt, &s.Revoked, &s.IPAddress, &s.UserAgent, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RefreshToken{}, model.ErrNotFound
		}
		return model.RefreshToken{}, fmt.Errorf("failed to find active session: %w", err)
	}
	return s, nil
}

// Rotate claims oldID with a conditional update so that only one of several
// concurrent rotations of the same session can succeed.
func (r *SessionRepository) Rotate(ctx context.Context, oldID uuid.UUID, next model.RefreshToken, now time.Time) (err error) {
	if next.ID == uuid.Nil {
		next.ID = uuid.New()
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin rotation: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = fmt.Errorf("failed to commit rotation: %w", e)
		}
	}()

	tag, err := tx.Exec(ctx, revokeActiveQuery, oldID, now)
	if err != nil {
		return fmt.Errorf("failed to revoke rotated session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrSessionNotActive
	}

	if _, err = tx.Exec(ctx, insertSessionQuery, sessionArgs(next)...); err != nil {
		return fmt.Errorf("failed to insert rotated session: %w", err)
	}

	return nil
}

func (r *SessionRepository) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND revoked = FALSE`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}
	return nil
}

func (r *SessionRepository) RevokeOne(ctx context.Context, sessionID, userID uuid.UUID) (bool, error) {
	const query = `UPDATE refresh_tokens SET revoked = TRUE WHERE id = $1 AND user_id = $2 AND revoked = FALSE`

	tag, err := r.db.Exec(ctx, query, sessionID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to revoke session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SessionRepository) ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]model.Session, error) {
	const query = `SELECT id, created_at, expires_at, ip_address, user_agent FROM refresh_tokens WHERE user_id = $1 AND revoked = FALSE AND expires_at > $2 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.Session, 0)
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.ExpiresAt, &s.IPAddress, &s.UserAgent); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return sessions, nil
}

func (r *SessionRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM refresh_tokens WHERE expires_at <= $1 OR revoked = TRUE`

	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
