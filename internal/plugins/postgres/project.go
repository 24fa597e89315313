package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

type ProjectRepo struct {
	db *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) CreateProject(ctx context.Context, p *domain.Project) (int64, error) {
	exec := GetExecutor(ctx, r.db)
	var id int64
	err := exec.QueryRowContext(ctx, `
		INSERT INTO projects (name, description, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, p.Name, p.Description, p.OwnerID, p.CreatedAt, p.UpdatedAt).Scan(&id)
	return id, err
}

func (r *ProjectRepo) GetProjectByID(ctx context.Context, id int64) (*domain.Project, error) {
	exec := GetExecutor(ctx, r.db)
	row := exec.QueryRowContext(ctx, `
		SELECT id, name, description, owner_id, created_at, updated_at
		FROM projects
		WHERE id = $1
	`, id)
	var p domain.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) ListProjectsForUser(ctx context.Context, userID int64) ([]domain.Project, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT p.id, p.name, p.description, p.owner_id, p.created_at, p.updated_at
		FROM projects p
		JOIN project_members m ON m.project_id = p.id
		WHERE m.user_id = $1
		ORDER BY p.created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProjectRepo) UpdateProject(ctx context.Context, p *domain.Project) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
		UPDATE projects
		SET name = $2, description = $3, updated_at = $4
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrProjectNotFound)
}

func (r *ProjectRepo) DeleteProject(ctx context.Context, id int64) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrProjectNotFound)
}

func requireRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
