package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

type cardRepoStub struct {
	cards map[int64]*domain.Card
}

func (r *cardRepoStub) CreateCard(_ context.Context, c *domain.Card) (int64, error) {
	id := int64(len(r.cards) + 1)
	c.ID = id
	r.cards[id] = c
	return id, nil
}

func (r *cardRepoStub) GetCardByID(_ context.Context, id int64) (*domain.Card, error) {
	c, ok := r.cards[id]
	if !ok {
		return nil, domain.ErrCardNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *cardRepoStub) ListCardsForList(_ context.Context, listID int64) ([]domain.Card, error) {
	var out []domain.Card
	for _, c := range r.cards {
		if c.ListID == listID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *cardRepoStub) UpdateCard(_ context.Context, c *domain.Card) error {
	r.cards[c.ID] = c
	return nil
}

func (r *cardRepoStub) DeleteCard(_ context.Context, id int64) error {
	delete(r.cards, id)
	return nil
}

func (r *cardRepoStub) MoveCard(_ context.Context, id, toListID int64, position int) error {
	c, ok := r.cards[id]
	if !ok {
		return domain.ErrCardNotFound
	}
	c.ListID = toListID
	c.Position = position
	return nil
}

type listRepoStub struct {
	lists map[int64]*domain.List
}

func (r *listRepoStub) CreateList(_ context.Context, l *domain.List) (int64, error) {
	id := int64(len(r.lists) + 1)
	l.ID = id
	r.lists[id] = l
	return id, nil
}

func (r *listRepoStub) GetListByID(_ context.Context, id int64) (*domain.List, error) {
	l, ok := r.lists[id]
	if !ok {
		return nil, domain.ErrListNotFound
	}
	return l, nil
}

func (r *listRepoStub) ListListsForBoard(_ context.Context, boardID int64) ([]domain.List, error) {
	var out []domain.List
	for _, l := range r.lists {
		if l.BoardID == boardID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *listRepoStub) UpdateList(_ context.Context, l *domain.List) error {
	r.lists[l.ID] = l
	return nil
}

func (r *listRepoStub) DeleteList(_ context.Context, id int64) error {
	delete(r.lists, id)
	return nil
}

type boardRepoStub struct {
	boards map[int64]*domain.Board
}

func (r *boardRepoStub) CreateBoard(_ context.Context, b *domain.Board) (int64, error) {
	id := int64(len(r.boards) + 1)
	b.ID = id
	r.boards[id] = b
	return id, nil
}

func (r *boardRepoStub) GetBoardByID(_ context.Context, id int64) (*domain.Board, error) {
	b, ok := r.boards[id]
	if !ok {
		return nil, domain.ErrBoardNotFound
	}
	return b, nil
}

func (r *boardRepoStub) ListBoardsForProject(_ context.Context, projectID int64) ([]domain.Board, error) {
	var out []domain.Board
	for _, b := range r.boards {
		if b.ProjectID == projectID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *boardRepoStub) UpdateBoard(_ context.Context, b *domain.Board) error {
	r.boards[b.ID] = b
	return nil
}

func (r *boardRepoStub) DeleteBoard(_ context.Context, id int64) error {
	delete(r.boards, id)
	return nil
}

// Two projects, one board and one list each, plus one card on list 1.
func cardFixture(t *testing.T) *CardService {
	t.Helper()
	boards := &boardRepoStub{boards: map[int64]*domain.Board{
		1: {ID: 1, ProjectID: 10},
		2: {ID: 2, ProjectID: 20},
	}}
	lists := &listRepoStub{lists: map[int64]*domain.List{
		1: {ID: 1, BoardID: 1},
		2: {ID: 2, BoardID: 2},
	}}
	cards := &cardRepoStub{cards: map[int64]*domain.Card{
		1: {ID: 1, ListID: 1, Title: "fix the thing"},
	}}
	members := &memberRepoStub{members: map[[2]int64]bool{
		{1, 10}: true,
	}}
	membership := NewMembershipService(testLogger(), members, newMapCache())
	return NewCardService(testLogger(), cards, lists, boards, membership, nil, nil)
}

func TestMoveRejectsCrossProject(t *testing.T) {
	svc := cardFixture(t)

	_, err := svc.Move(context.Background(), 1, 1, 2, 0)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("got %v, want ErrForbidden", err)
	}
}

func TestMoveRejectsNonMember(t *testing.T) {
	svc := cardFixture(t)

	_, err := svc.Move(context.Background(), 99, 1, 1, 0)
	if !errors.Is(err, domain.ErrNotMember) {
		t.Fatalf("got %v, want ErrNotMember", err)
	}
}

func TestGetRequiresMembership(t *testing.T) {
	svc := cardFixture(t)

	if _, err := svc.Get(context.Background(), 1, 1); err != nil {
		t.Fatalf("member read failed: %v", err)
	}
	if _, err := svc.Get(context.Background(), 99, 1); !errors.Is(err, domain.ErrNotMember) {
		t.Fatalf("got %v, want ErrNotMember", err)
	}
	if _, err := svc.Get(context.Background(), 1, 404); !errors.Is(err, domain.ErrCardNotFound) {
		t.Fatalf("got %v, want ErrCardNotFound", err)
	}
}
