package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

type memberRepoStub struct {
	members map[[2]int64]bool
	queries int
}

func (r *memberRepoStub) AddMember(_ context.Context, m *domain.ProjectMember) error {
	r.members[[2]int64{m.UserID, m.ProjectID}] = true
	return nil
}

func (r *memberRepoStub) IsMember(_ context.Context, userID, projectID int64) (bool, error) {
	r.queries++
	return r.members[[2]int64{userID, projectID}], nil
}

func (r *memberRepoStub) ListMembers(_ context.Context, projectID int64) ([]domain.ProjectMember, error) {
	var out []domain.ProjectMember
	for k := range r.members {
		if k[1] == projectID {
			out = append(out, domain.ProjectMember{UserID: k[0], ProjectID: k[1]})
		}
	}
	return out, nil
}

func (r *memberRepoStub) RemoveMember(_ context.Context, userID, projectID int64) error {
	delete(r.members, [2]int64{userID, projectID})
	return nil
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapCache() *mapCache { return &mapCache{data: map[string]string{}} }

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *mapCache) InvalidatePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func TestIsMemberCachesBothAnswers(t *testing.T) {
	repo := &memberRepoStub{members: map[[2]int64]bool{{1, 10}: true}}
	svc := NewMembershipService(testLogger(), repo, newMapCache())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := svc.IsMember(ctx, 1, 10)
		if err != nil || !ok {
			t.Fatalf("IsMember(1,10) = %v, %v", ok, err)
		}
	}
	for i := 0; i < 3; i++ {
		ok, err := svc.IsMember(ctx, 2, 10)
		if err != nil || ok {
			t.Fatalf("IsMember(2,10) = %v, %v", ok, err)
		}
	}
	if repo.queries != 2 {
		t.Fatalf("repo queried %d times, want 2 (one per distinct user)", repo.queries)
	}
}

func TestMemberMutationInvalidatesCache(t *testing.T) {
	repo := &memberRepoStub{members: map[[2]int64]bool{}}
	svc := NewMembershipService(testLogger(), repo, newMapCache())
	ctx := context.Background()

	if ok, _ := svc.IsMember(ctx, 1, 10); ok {
		t.Fatal("not a member yet")
	}

	err := svc.AddMember(ctx, &domain.ProjectMember{UserID: 1, ProjectID: 10, Role: domain.RoleMember})
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := svc.IsMember(ctx, 1, 10); !ok {
		t.Fatal("stale cached negative answer after AddMember")
	}

	if err := svc.RemoveMember(ctx, 1, 10); err != nil {
		t.Fatal(err)
	}
	if ok, _ := svc.IsMember(ctx, 1, 10); ok {
		t.Fatal("stale cached positive answer after RemoveMember")
	}
}

func TestMemberIDs(t *testing.T) {
	repo := &memberRepoStub{members: map[[2]int64]bool{
		{1, 10}: true,
		{2, 10}: true,
		{3, 20}: true,
	}}
	svc := NewMembershipService(testLogger(), repo, newMapCache())

	ids := svc.MemberIDs(context.Background(), 10)
	if len(ids) != 2 {
		t.Fatalf("MemberIDs = %v, want two members", ids)
	}
	for _, id := range ids {
		if id != 1 && id != 2 {
			t.Fatalf("unexpected member %d", id)
		}
	}
}
