package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jiyufengluo/taskly-kanban/internal/core/contracts"
	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

const membershipTTL = 2 * time.Minute

// MembershipService answers "is this user in this project". The check
// sits on the connection path of every socket and on every CRUD
// authorization, so positive and negative answers are cached briefly;
// member mutations invalidate the cached entry.
type MembershipService struct {
	repo  domain.MemberRepository
	cache contracts.Cache
	log   *slog.Logger
}

func NewMembershipService(log *slog.Logger, repo domain.MemberRepository, cache contracts.Cache) *MembershipService {
	return &MembershipService{log: log, repo: repo, cache: cache}
}

func membershipKey(userID, projectID int64) string {
	return fmt.Sprintf("taskly:member:%d:%d", projectID, userID)
}

func (s *MembershipService) IsMember(ctx context.Context, userID, projectID int64) (bool, error) {
	key := membershipKey(userID, projectID)
	if v, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return v == "1", nil
	}
	member, err := s.repo.IsMember(ctx, userID, projectID)
	if err != nil {
		return false, err
	}
	v := "0"
	if member {
		v = "1"
	}
	if err := s.cache.Set(ctx, key, v, membershipTTL); err != nil {
		s.log.WarnContext(ctx, "membership - cache set failed", "err", err)
	}
	return member, nil
}

func (s *MembershipService) AddMember(ctx context.Context, m *domain.ProjectMember) error {
	if err := s.repo.AddMember(ctx, m); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, membershipKey(m.UserID, m.ProjectID))
	return nil
}

func (s *MembershipService) RemoveMember(ctx context.Context, userID, projectID int64) error {
	if err := s.repo.RemoveMember(ctx, userID, projectID); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, membershipKey(userID, projectID))
	return nil
}

func (s *MembershipService) ListMembers(ctx context.Context, projectID int64) ([]domain.ProjectMember, error) {
	return s.repo.ListMembers(ctx, projectID)
}

// MemberIDs is the recipient list handed to the notifier after a
// mutation commits.
func (s *MembershipService) MemberIDs(ctx context.Context, projectID int64) []int64 {
	members, err := s.repo.ListMembers(ctx, projectID)
	if err != nil {
		s.log.WarnContext(ctx, "membership - list members failed", "project_id", projectID, "err", err)
		return nil
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids
}
