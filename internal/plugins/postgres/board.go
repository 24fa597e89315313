package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

type BoardRepo struct {
	db *sql.DB
}

func NewBoardRepo(db *sql.DB) *BoardRepo {
	return &BoardRepo{db: db}
}

func (r *BoardRepo) CreateBoard(ctx context.Context, b *domain.Board) (int64, error) {
	exec := GetExecutor(ctx, r.db)
	var id int64
	err := exec.QueryRowContext(ctx, `
		INSERT INTO boards (project_id, name, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, b.ProjectID, b.Name, b.Position, b.CreatedAt, b.UpdatedAt).Scan(&id)
	return id, err
}

func (r *BoardRepo) GetBoardByID(ctx context.Context, id int64) (*domain.Board, error) {
	exec := GetExecutor(ctx, r.db)
	row := exec.QueryRowContext(ctx, `
		SELECT id, project_id, name, position, created_at, updated_at
		FROM boards
		WHERE id = $1
	`, id)
	var b domain.Board
	err := row.Scan(&b.ID, &b.ProjectID, &b.Name, &b.Position, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBoardNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *BoardRepo) ListBoardsForProject(ctx context.Context, projectID int64) ([]domain.Board, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, project_id, name, position, created_at, updated_at
		FROM boards
		WHERE project_id = $1
		ORDER BY position, id
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Board
	for rows.Next() {
		var b domain.Board
		if err := rows.Scan(&b.ID, &b.ProjectID, &b.Name, &b.Position, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BoardRepo) UpdateBoard(ctx context.Context, b *domain.Board) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
		UPDATE boards
		SET name = $2, position = $3, updated_at = $4
		WHERE id = $1
	`, b.ID, b.Name, b.Position, b.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrBoardNotFound)
}

func (r *BoardRepo) DeleteBoard(ctx context.Context, id int64) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrBoardNotFound)
}
