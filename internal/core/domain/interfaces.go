package domain

import (
	"context"
	"time"
)

// UserRepository handles the persistent identity.
type UserRepository interface {
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	CreateUser(ctx context.Context, u *User) (int64, error)
}

// ProjectRepository handles project lifecycle.
type ProjectRepository interface {
	CreateProject(ctx context.Context, p *Project) (int64, error)
	GetProjectByID(ctx context.Context, id int64) (*Project, error)
	ListProjectsForUser(ctx context.Context, userID int64) ([]Project, error)
	UpdateProject(ctx context.Context, p *Project) error
	DeleteProject(ctx context.Context, id int64) error
}

// MemberRepository is the membership collaborator consulted by the
// connection lifecycle and every authorization check.
type MemberRepository interface {
	AddMember(ctx context.Context, m *ProjectMember) error
	IsMember(ctx context.Context, userID, projectID int64) (bool, error)
	ListMembers(ctx context.Context, projectID int64) ([]ProjectMember, error)
	RemoveMember(ctx context.Context, userID, projectID int64) error
}

type BoardRepository interface {
	CreateBoard(ctx context.Context, b *Board) (int64, error)
	GetBoardByID(ctx context.Context, id int64) (*Board, error)
	ListBoardsForProject(ctx context.Context, projectID int64) ([]Board, error)
	UpdateBoard(ctx context.Context, b *Board) error
	DeleteBoard(ctx context.Context, id int64) error
}

type ListRepository interface {
	CreateList(ctx context.Context, l *List) (int64, error)
	GetListByID(ctx context.Context, id int64) (*List, error)
	ListListsForBoard(ctx context.Context, boardID int64) ([]List, error)
	UpdateList(ctx context.Context, l *List) error
	DeleteList(ctx context.Context, id int64) error
}

// ActivityRepository keeps the per-project audit trail. Records past
// the retention window are pruned by a background sweep.
type ActivityRepository interface {
	RecordActivity(ctx context.Context, a *Activity) (int64, error)
	ListActivitiesForProject(ctx context.Context, projectID, limit int64) ([]Activity, error)
	DeleteActivitiesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type CardRepository interface {
	CreateCard(ctx context.Context, c *Card) (int64, error)
	GetCardByID(ctx context.Context, id int64) (*Card, error)
	ListCardsForList(ctx context.Context, listID int64) ([]Card, error)
	UpdateCard(ctx context.Context, c *Card) error
	DeleteCard(ctx context.Context, id int64) error
	MoveCard(ctx context.Context, id, toListID int64, position int) error
}
