package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

type UserService struct {
	repo      domain.UserRepository
	txManager *TxManager
	log       *slog.Logger
}

func NewUserService(log *slog.Logger, repo domain.UserRepository, txManager *TxManager) *UserService {
	return &UserService{log: log, repo: repo, txManager: txManager}
}

func (s *UserService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	err = s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if existing, err := s.repo.GetUserByUsername(txCtx, username); err == nil && existing != nil {
			return domain.ErrUserAlreadyExists
		}
		id, err := s.repo.CreateUser(txCtx, user)
		if err != nil {
			return err
		}
		user.ID = id
		return nil
	})
	if err != nil {
		s.log.ErrorContext(ctx, "user - register failed", "username", username, "err", err)
		return nil, err
	}
	s.log.InfoContext(ctx, "user - registered", "username", username, "user_id", user.ID)
	return user, nil
}

func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// Lookup resolves a principal id to a known user; the connection
// lifecycle uses it to reject tokens for deleted accounts.
func (s *UserService) Lookup(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}
