package service

import (
	"context"
	"errors"
	"fmt"

	"referral_rewards/internal/model"
	"referral_rewards/internal/repository"

	"github.com/google/uuid"
)

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetLeaderboard(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.GetTopUsers(ctx, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetReferralCode(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, ErrUserNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user.ReferralCode, nil
}
