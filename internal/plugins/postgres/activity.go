package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) RecordActivity(ctx context.Context, a *domain.Activity) (int64, error) {
	exec := GetExecutor(ctx, r.db)
	var payload any
	if len(a.Payload) > 0 {
		payload = []byte(a.Payload)
	}
	var id int64
	err := exec.QueryRowContext(ctx, `
		INSERT INTO activities (project_id, user_id, type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, a.ProjectID, a.UserID, a.Kind, payload, a.CreatedAt).Scan(&id)
	return id, err
}

func (r *ActivityRepo) ListActivitiesForProject(ctx context.Context, projectID, limit int64) ([]domain.Activity, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, project_id, user_id, type, payload, created_at
		FROM activities
		WHERE project_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Activity
	for rows.Next() {
		var a domain.Activity
		var payload []byte
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.UserID, &a.Kind, &payload, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Payload = payload
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *ActivityRepo) DeleteActivitiesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `DELETE FROM activities WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
