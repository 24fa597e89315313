package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/jiyufengluo/taskly-kanban/internal/core/contracts"
	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

const boardCacheTTL = time.Hour

// BoardView is the read model served from cache when possible.
type BoardView struct {
	Board domain.Board  `json:"board"`
	Lists []domain.List `json:"lists"`
}

type BoardService struct {
	boards     domain.BoardRepository
	lists      domain.ListRepository
	membership *MembershipService
	notifier   *Notifier
	cache      contracts.Cache
	txManager  *TxManager
	log        *slog.Logger
}

func NewBoardService(
	log *slog.Logger,
	boards domain.BoardRepository,
	lists domain.ListRepository,
	membership *MembershipService,
	notifier *Notifier,
	cache contracts.Cache,
	txManager *TxManager,
) *BoardService {
	return &BoardService{
		log:        log,
		boards:     boards,
		lists:      lists,
		membership: membership,
		notifier:   notifier,
		cache:      cache,
		txManager:  txManager,
	}
}

func (s *BoardService) requireMember(ctx context.Context, userID, projectID int64) error {
	ok, err := s.membership.IsMember(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotMember
	}
	return nil
}

func (s *BoardService) CreateBoard(ctx context.Context, userID, projectID int64, name string, position int) (*domain.Board, error) {
	if err := s.requireMember(ctx, userID, projectID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	board := &domain.Board{ProjectID: projectID, Name: name, Position: position, CreatedAt: now, UpdatedAt: now}
	if err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		id, err := s.boards.CreateBoard(txCtx, board)
		if err != nil {
			return err
		}
		board.ID = id
		return nil
	}); err != nil {
		s.log.ErrorContext(ctx, "boards - create failed", "project_id", projectID, "err", err)
		return nil, err
	}
	s.notifier.MutationCommitted(ctx, projectID, domain.TypeBoardUpdated, board, userID, s.membership.MemberIDs(ctx, projectID))
	return board, nil
}

// GetBoard serves the board plus its lists, reading through the
// project-scoped cache. Any mutation in the project drops the entry.
func (s *BoardService) GetBoard(ctx context.Context, userID, boardID int64) (*BoardView, error) {
	board, err := s.boards.GetBoardByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, userID, board.ProjectID); err != nil {
		return nil, err
	}

	key := ProjectCachePrefix(board.ProjectID) + "board:" + strconv.FormatInt(boardID, 10)
	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var view BoardView
		if err := json.Unmarshal([]byte(raw), &view); err == nil {
			return &view, nil
		}
	}

	lists, err := s.lists.ListListsForBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	view := &BoardView{Board: *board, Lists: lists}
	if raw, err := json.Marshal(view); err == nil {
		if err := s.cache.Set(ctx, key, string(raw), boardCacheTTL); err != nil {
			s.log.WarnContext(ctx, "boards - cache set failed", "board_id", boardID, "err", err)
		}
	}
	return view, nil
}

func (s *BoardService) ListBoards(ctx context.Context, userID, projectID int64) ([]domain.Board, error) {
	if err := s.requireMember(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.boards.ListBoardsForProject(ctx, projectID)
}

func (s *BoardService) UpdateBoard(ctx context.Context, userID int64, b *domain.Board) (*domain.Board, error) {
	current, err := s.boards.GetBoardByID(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	b.ProjectID = current.ProjectID
	if err := s.requireMember(ctx, userID, b.ProjectID); err != nil {
		return nil, err
	}
	b.UpdatedAt = time.Now().UTC()
	if err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return s.boards.UpdateBoard(txCtx, b)
	}); err != nil {
		s.log.ErrorContext(ctx, "boards - update failed", "board_id", b.ID, "err", err)
		return nil, err
	}
	s.notifier.MutationCommitted(ctx, b.ProjectID, domain.TypeBoardUpdated, b, userID, s.membership.MemberIDs(ctx, b.ProjectID))
	return b, nil
}

func (s *BoardService) CreateList(ctx context.Context, userID, boardID int64, name string, position int) (*domain.List, error) {
	board, err := s.boards.GetBoardByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, userID, board.ProjectID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	list := &domain.List{BoardID: boardID, Name: name, Position: position, CreatedAt: now, UpdatedAt: now}
	if err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		id, err := s.lists.CreateList(txCtx, list)
		if err != nil {
			return err
		}
		list.ID = id
		return nil
	}); err != nil {
		s.log.ErrorContext(ctx, "lists - create failed", "board_id", boardID, "err", err)
		return nil, err
	}
	s.notifier.MutationCommitted(ctx, board.ProjectID, domain.TypeListCreated, list, userID, s.membership.MemberIDs(ctx, board.ProjectID))
	return list, nil
}

func (s *BoardService) UpdateList(ctx context.Context, userID int64, l *domain.List) (*domain.List, error) {
	projectID, err := s.projectForList(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, userID, projectID); err != nil {
		return nil, err
	}
	l.UpdatedAt = time.Now().UTC()
	if err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return s.lists.UpdateList(txCtx, l)
	}); err != nil {
		s.log.ErrorContext(ctx, "lists - update failed", "list_id", l.ID, "err", err)
		return nil, err
	}
	s.notifier.MutationCommitted(ctx, projectID, domain.TypeListUpdated, l, userID, s.membership.MemberIDs(ctx, projectID))
	return l, nil
}

func (s *BoardService) DeleteList(ctx context.Context, userID, listID int64) error {
	projectID, err := s.projectForList(ctx, listID)
	if err != nil {
		return err
	}
	if err := s.requireMember(ctx, userID, projectID); err != nil {
		return err
	}
	if err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return s.lists.DeleteList(txCtx, listID)
	}); err != nil {
		s.log.ErrorContext(ctx, "lists - delete failed", "list_id", listID, "err", err)
		return err
	}
	s.notifier.MutationCommitted(ctx, projectID, domain.TypeListDeleted, map[string]int64{"list_id": listID}, userID, s.membership.MemberIDs(ctx, projectID))
	return nil
}

// projectForList resolves the owning project for authorization and
// scope routing.
func (s *BoardService) projectForList(ctx context.Context, listID int64) (int64, error) {
	list, err := s.lists.GetListByID(ctx, listID)
	if err != nil {
		return 0, err
	}
	board, err := s.boards.GetBoardByID(ctx, list.BoardID)
	if err != nil {
		return 0, err
	}
	return board.ProjectID, nil
}
