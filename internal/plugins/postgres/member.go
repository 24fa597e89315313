package postgres

import (
	"context"
	"database/sql"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

type MemberRepo struct {
	db *sql.DB
}

func NewMemberRepo(db *sql.DB) *MemberRepo {
	return &MemberRepo{db: db}
}

func (r *MemberRepo) AddMember(ctx context.Context, m *domain.ProjectMember) error {
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO project_members (project_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, user_id) DO NOTHING
	`, m.ProjectID, m.UserID, m.Role, m.JoinedAt)
	return err
}

func (r *MemberRepo) IsMember(ctx context.Context, userID, projectID int64) (bool, error) {
	exec := GetExecutor(ctx, r.db)
	var exists bool
	err := exec.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM project_members
			WHERE user_id = $1 AND project_id = $2
		)
	`, userID, projectID).Scan(&exists)
	return exists, err
}

func (r *MemberRepo) ListMembers(ctx context.Context, projectID int64) ([]domain.ProjectMember, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT project_id, user_id, role, joined_at
		FROM project_members
		WHERE project_id = $1
		ORDER BY joined_at
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.ProjectMember
	for rows.Next() {
		var m domain.ProjectMember
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MemberRepo) RemoveMember(ctx context.Context, userID, projectID int64) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
		DELETE FROM project_members
		WHERE user_id = $1 AND project_id = $2
	`, userID, projectID)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrNotMember)
}
