package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

type ListRepo struct {
	db *sql.DB
}

func NewListRepo(db *sql.DB) *ListRepo {
	return &ListRepo{db: db}
}

func (r *ListRepo) CreateList(ctx context.Context, l *domain.List) (int64, error) {
	exec := GetExecutor(ctx, r.db)
	var id int64
	err := exec.QueryRowContext(ctx, `
		INSERT INTO lists (board_id, name, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, l.BoardID, l.Name, l.Position, l.CreatedAt, l.UpdatedAt).Scan(&id)
	return id, err
}

func (r *ListRepo) GetListByID(ctx context.Context, id int64) (*domain.List, error) {
	exec := GetExecutor(ctx, r.db)
	row := exec.QueryRowContext(ctx, `
		SELECT id, board_id, name, position, created_at, updated_at
		FROM lists
		WHERE id = $1
	`, id)
	var l domain.List
	err := row.Scan(&l.ID, &l.BoardID, &l.Name, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrListNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *ListRepo) ListListsForBoard(ctx context.Context, boardID int64) ([]domain.List, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, board_id, name, position, created_at, updated_at
		FROM lists
		WHERE board_id = $1
		ORDER BY position, id
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.List
	for rows.Next() {
		var l domain.List
		if err := rows.Scan(&l.ID, &l.BoardID, &l.Name, &l.Position, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *ListRepo) UpdateList(ctx context.Context, l *domain.List) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
		UPDATE lists
		SET name = $2, position = $3, updated_at = $4
		WHERE id = $1
	`, l.ID, l.Name, l.Position, l.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrListNotFound)
}

func (r *ListRepo) DeleteList(ctx context.Context, id int64) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `DELETE FROM lists WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrListNotFound)
}
