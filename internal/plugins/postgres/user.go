package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	exec := GetExecutor(ctx, r.db)
	row := exec.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, is_active, created_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	exec := GetExecutor(ctx, r.db)
	row := exec.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, is_active, created_at
		FROM users
		WHERE username = $1
	`, username)
	return scanUser(row)
}

func (r *UserRepository) CreateUser(ctx context.Context, u *domain.User) (int64, error) {
	exec := GetExecutor(ctx, r.db)
	var id int64
	err := exec.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, u.Username, u.Email, u.PasswordHash, u.IsActive, u.CreatedAt).Scan(&id)
	return id, err
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
