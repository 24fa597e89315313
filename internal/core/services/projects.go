package services

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

type ProjectService struct {
	repo       domain.ProjectRepository
	membership *MembershipService
	notifier   *Notifier
	txManager  *TxManager
	log        *slog.Logger
}

func NewProjectService(
	log *slog.Logger,
	repo domain.ProjectRepository,
	membership *MembershipService,
	notifier *Notifier,
	txManager *TxManager,
) *ProjectService {
	return &ProjectService{
		log:        log,
		repo:       repo,
		membership: membership,
		notifier:   notifier,
		txManager:  txManager,
	}
}

// Create inserts the project and its owner membership in one
// transaction.
func (s *ProjectService) Create(ctx context.Context, ownerID int64, name, description string) (*domain.Project, error) {
	ctx, span := tracer.Start(ctx, "ProjectService.Create", trace.WithAttributes(
		attribute.Int64("owner_id", ownerID),
	))
	defer span.End()

	now := time.Now().UTC()
	project := &domain.Project{
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		id, err := s.repo.CreateProject(txCtx, project)
		if err != nil {
			return err
		}
		project.ID = id
		return s.membership.AddMember(txCtx, &domain.ProjectMember{
			ProjectID: id,
			UserID:    ownerID,
			Role:      domain.RoleOwner,
			JoinedAt:  now,
		})
	})
	if err != nil {
		span.RecordError(err)
		s.log.ErrorContext(ctx, "projects - create failed", "owner_id", ownerID, "err", err)
		return nil, err
	}
	s.log.InfoContext(ctx, "projects - created", "project_id", project.ID, "owner_id", ownerID)
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, userID, projectID int64) (*domain.Project, error) {
	if err := s.requireMember(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.repo.GetProjectByID(ctx, projectID)
}

func (s *ProjectService) ListForUser(ctx context.Context, userID int64) ([]domain.Project, error) {
	return s.repo.ListProjectsForUser(ctx, userID)
}

func (s *ProjectService) Update(ctx context.Context, userID int64, p *domain.Project) (*domain.Project, error) {
	if err := s.requireMember(ctx, userID, p.ID); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.UpdateProject(txCtx, p)
	}); err != nil {
		s.log.ErrorContext(ctx, "projects - update failed", "project_id", p.ID, "err", err)
		return nil, err
	}
	s.notifier.MutationCommitted(ctx, p.ID, domain.TypeProjectUpdated, p, userID, s.membership.MemberIDs(ctx, p.ID))
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, userID, projectID int64) error {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project.OwnerID != userID {
		return domain.ErrForbidden
	}
	return s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.DeleteProject(txCtx, projectID)
	})
}

func (s *ProjectService) requireMember(ctx context.Context, userID, projectID int64) error {
	ok, err := s.membership.IsMember(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotMember
	}
	return nil
}
