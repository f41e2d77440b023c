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

var _ model.UserStore = (*UserRepository)(nil)

const (
	userColumns     = `id, email, password_hash, name, role, active, blocked, created_at, updated_at, deleted_at`
	insertUserQuery = `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL) RETURNING ` + userColumns
)

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func userArgs(u model.User) []any {
	return []any{u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.Active, u.Blocked, u.CreatedAt, u.UpdatedAt}
}

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Role,
		&user.Active, &user.Blocked, &user.CreatedAt, &user.UpdatedAt, &user.DeletedAt,
	)
	return user, err
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	saved, err := scanUser(r.db.QueryRow(ctx, insertUserQuery, userArgs(user)...))
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, model.ErrAlreadyExists
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return saved, nil
}

// CreateWithSession inserts user together with its first refresh token.
// Either both rows are stored or neither is.
func (r *UserRepository) CreateWithSession(ctx context.Context, user model.User, session model.RefreshToken) (saved model.User, err error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.UserID = user.ID

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.User{}, fmt.Errorf("failed to begin registration: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			saved, err = model.User{}, fmt.Errorf("failed to commit registration: %w", e)
		}
	}()

	saved, err = scanUser(tx.QueryRow(ctx, insertUserQuery, userArgs(user)...))
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, model.ErrAlreadyExists
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	if _, err = tx.Exec(ctx, insertSessionQuery, sessionArgs(session)...); err != nil {
		return model.User{}, fmt.Errorf("failed to create session: %w", err)
	}

	return saved, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepository) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 AND deleted_at IS NULL ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// ToggleBlocked flips the blocked flag in a single statement so that
// concurrent toggles of the same user are applied one after another.
func (r *UserRepository) ToggleBlocked(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `UPDATE users SET blocked = NOT blocked, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL RETURNING ` + userColumns
	return r.toggle(ctx, "blocked", query, id)
}

func (r *UserRepository) ToggleActive(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `UPDATE users SET active = NOT active, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL RETURNING ` + userColumns
	return r.toggle(ctx, "active", query, id)
}

func (r *UserRepository) toggle(ctx context.Context, field, query string, id uuid.UUID) (model.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to toggle user %s: %w", field, err)
	}
	return user, nil
}

func (r *UserRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) (model.User, error) {
	query := `UPDATE users SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, id, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to soft delete user: %w", err)
	}
	return user, nil
}
