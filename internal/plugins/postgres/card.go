package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

type CardRepo struct {
	db *sql.DB
}

func NewCardRepo(db *sql.DB) *CardRepo {
	return &CardRepo{db: db}
}

func (r *CardRepo) CreateCard(ctx context.Context, c *domain.Card) (int64, error) {
	exec := GetExecutor(ctx, r.db)
	var id int64
	err := exec.QueryRowContext(ctx, `
		INSERT INTO cards (list_id, title, description, position, assignee_id, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, c.ListID, c.Title, c.Description, c.Position, c.AssigneeID, c.DueDate, c.CreatedAt, c.UpdatedAt).Scan(&id)
	return id, err
}

func (r *CardRepo) GetCardByID(ctx context.Context, id int64) (*domain.Card, error) {
	exec := GetExecutor(ctx, r.db)
	row := exec.QueryRowContext(ctx, `
		SELECT id, list_id, title, description, position, assignee_id, due_date, created_at, updated_at
		FROM cards
		WHERE id = $1
	`, id)
	var c domain.Card
	err := row.Scan(&c.ID, &c.ListID, &c.Title, &c.Description, &c.Position, &c.AssigneeID, &c.DueDate, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCardNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CardRepo) ListCardsForList(ctx context.Context, listID int64) ([]domain.Card, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, list_id, title, description, position, assignee_id, due_date, created_at, updated_at
		FROM cards
		WHERE list_id = $1
		ORDER BY position, id
	`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Card
	for rows.Next() {
		var c domain.Card
		if err := rows.Scan(&c.ID, &c.ListID, &c.Title, &c.Description, &c.Position, &c.AssigneeID, &c.DueDate, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CardRepo) UpdateCard(ctx context.Context, c *domain.Card) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
		UPDATE cards
		SET title = $2, description = $3, position = $4, assignee_id = $5, due_date = $6, updated_at = $7
		WHERE id = $1
	`, c.ID, c.Title, c.Description, c.Position, c.AssigneeID, c.DueDate, c.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrCardNotFound)
}

func (r *CardRepo) DeleteCard(ctx context.Context, id int64) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrCardNotFound)
}

func (r *CardRepo) MoveCard(ctx context.Context, id, toListID int64, position int) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
		UPDATE cards
		SET list_id = $2, position = $3, updated_at = now()
		WHERE id = $1
	`, id, toListID, position)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrCardNotFound)
}
