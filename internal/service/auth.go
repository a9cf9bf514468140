package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"referral_rewards/internal/model"
	"referral_rewards/internal/repository"
	"referral_rewards/pkg/auth"
	"referral_rewards/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService struct {
	repo   UserRepository
	tokens TokenIssuer
	feed   *ReferralFeed
}

func NewAuthService(repo UserRepository, tokens TokenIssuer, feed *ReferralFeed) *AuthService {
	return &AuthService{
		repo:   repo,
		tokens: tokens,
		feed:   feed,
	}
}

type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	ReferralCode string
}

// Register creates an account and, when a referral code is supplied, credits
// the cited referrer. The referral ledger entry, the same-day count and the
// balance credit land in one storage transaction; any failure there aborts
// the whole registration.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	exists, err := s.repo.UserExists(ctx, in.Name, in.Email)
	if err != nil {
		return "", fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		return "", ErrAlreadyRegistered
	}

	var referrerID *uuid.UUID
	if in.ReferralCode != "" {
		code, err := uuid.Parse(in.ReferralCode)
		if err != nil {
			return "", ErrInvalidReferralCode
		}

		referrer, err := s.repo.GetUserByReferralCode(ctx, code)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return "", ErrReferrerNotFound
			}
			return "", fmt.Errorf("failed to resolve referrer: %w", err)
		}
		referrerID = &referrer.ID
	}

	passwordHash, err := auth.HashPassword(in.Password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: passwordHash,
		Points:       0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	user.ReferralCode = user.ID

	credit, err := s.repo.CreateUser(ctx, user, referrerID, StartOfDay(now), ReferralAward)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			return "", ErrAlreadyRegistered
		case errors.Is(err, repository.ErrAlreadyReferred):
			return "", ErrAlreadyReferred
		case errors.Is(err, repository.ErrSelfReferral):
			return "", ErrSelfReferral
		case errors.Is(err, repository.ErrNotFound):
			return "", ErrReferrerNotFound
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	if credit != nil && referrerID != nil {
		logger.Logger().Info("referral credited",
			zap.String("referrer_id", referrerID.String()),
			zap.Int("points_awarded", credit.Awarded))

		if s.feed != nil {
			s.feed.Publish(*referrerID, ReferralEvent{
				ReferredName:  user.Name,
				PointsAwarded: credit.Awarded,
				TotalPoints:   credit.ReferrerPoints,
			})
		}
	}

	token, err := s.tokens.IssueToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	return token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to get user by email: %w", err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.IssueToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	return token, nil
}
