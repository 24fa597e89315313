package services

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

type CardService struct {
	cards      domain.CardRepository
	lists      domain.ListRepository
	boards     domain.BoardRepository
	membership *MembershipService
	notifier   *Notifier
	txManager  *TxManager
	log        *slog.Logger
}

func NewCardService(
	log *slog.Logger,
	cards domain.CardRepository,
	lists domain.ListRepository,
	boards domain.BoardRepository,
	membership *MembershipService,
	notifier *Notifier,
	txManager *TxManager,
) *CardService {
	return &CardService{
		log:        log,
		cards:      cards,
		lists:      lists,
		boards:     boards,
		membership: membership,
		notifier:   notifier,
		txManager:  txManager,
	}
}

func (s *CardService) projectForList(ctx context.Context, listID int64) (int64, error) {
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

func (s *CardService) requireMember(ctx context.Context, userID, projectID int64) error {
	ok, err := s.membership.IsMember(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotMember
	}
	return nil
}

func (s *CardService) Create(ctx context.Context, userID int64, card *domain.Card) (*domain.Card, error) {
	ctx, span := tracer.Start(ctx, "CardService.Create", trace.WithAttributes(
		attribute.Int64("list_id", card.ListID),
		attribute.Int64("user_id", userID),
	))
	defer span.End()

	projectID, err := s.projectForList(ctx, card.ListID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, userID, projectID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	card.CreatedAt = now
	card.UpdatedAt = now
	if err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		id, err := s.cards.CreateCard(txCtx, card)
		if err != nil {
			return err
		}
		card.ID = id
		return nil
	}); err != nil {
		span.RecordError(err)
		s.log.ErrorContext(ctx, "cards - create failed", "list_id", card.ListID, "err", err)
		return nil, err
	}
	s.notifier.MutationCommitted(ctx, projectID, domain.TypeCardCreated, card, userID, s.membership.MemberIDs(ctx, projectID))
	return card, nil
}

func (s *CardService) Get(ctx context.Context, userID, cardID int64) (*domain.Card, error) {
	card, err := s.cards.GetCardByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	projectID, err := s.projectForList(ctx, card.ListID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *CardService) Update(ctx context.Context, userID int64, card *domain.Card) (*domain.Card, error) {
	current, err := s.cards.GetCardByID(ctx, card.ID)
	if err != nil {
		return nil, err
	}
	card.ListID = current.ListID
	projectID, err := s.projectForList(ctx, card.ListID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, userID, projectID); err != nil {
		return nil, err
	}
	card.UpdatedAt = time.Now().UTC()
	if err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return s.cards.UpdateCard(txCtx, card)
	}); err != nil {
		s.log.ErrorContext(ctx, "cards - update failed", "card_id", card.ID, "err", err)
		return nil, err
	}
	s.notifier.MutationCommitted(ctx, projectID, domain.TypeCardUpdated, card, userID, s.membership.MemberIDs(ctx, projectID))
	return card, nil
}

func (s *CardService) Delete(ctx context.Context, userID, cardID int64) error {
	card, err := s.cards.GetCardByID(ctx, cardID)
	if err != nil {
		return err
	}
	projectID, err := s.projectForList(ctx, card.ListID)
	if err != nil {
		return err
	}
	if err := s.requireMember(ctx, userID, projectID); err != nil {
		return err
	}
	if err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return s.cards.DeleteCard(txCtx, cardID)
	}); err != nil {
		s.log.ErrorContext(ctx, "cards - delete failed", "card_id", cardID, "err", err)
		return err
	}
	s.notifier.MutationCommitted(ctx, projectID, domain.TypeCardDeleted, map[string]int64{"card_id": cardID}, userID, s.membership.MemberIDs(ctx, projectID))
	return nil
}

// Move reparents the card onto another list in the same project and
// broadcasts a card_moved event carrying both endpoints.
func (s *CardService) Move(ctx context.Context, userID, cardID, toListID int64, position int) (*domain.Card, error) {
	card, err := s.cards.GetCardByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	fromProject, err := s.projectForList(ctx, card.ListID)
	if err != nil {
		return nil, err
	}
	toProject, err := s.projectForList(ctx, toListID)
	if err != nil {
		return nil, err
	}
	if fromProject != toProject {
		return nil, domain.ErrForbidden
	}
	if err := s.requireMember(ctx, userID, fromProject); err != nil {
		return nil, err
	}
	fromListID := card.ListID
	if err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return s.cards.MoveCard(txCtx, cardID, toListID, position)
	}); err != nil {
		s.log.ErrorContext(ctx, "cards - move failed", "card_id", cardID, "err", err)
		return nil, err
	}
	card.ListID = toListID
	card.Position = position
	card.UpdatedAt = time.Now().UTC()
	payload := map[string]int64{
		"card_id":      cardID,
		"from_list_id": fromListID,
		"to_list_id":   toListID,
		"position":     int64(position),
	}
	s.notifier.MutationCommitted(ctx, fromProject, domain.TypeCardMoved, payload, userID, s.membership.MemberIDs(ctx, fromProject))
	return card, nil
}

func (s *CardService) ListForList(ctx context.Context, userID, listID int64) ([]domain.Card, error) {
	projectID, err := s.projectForList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.cards.ListCardsForList(ctx, listID)
}
