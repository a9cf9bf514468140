package service

import (
	"context"
	"errors"
	"time"

	"referral_rewards/internal/model"
	"referral_rewards/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrAlreadyRegistered   = errors.New("name or email already in use")
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrReferrerNotFound    = errors.New("referrer not found")
	ErrSelfReferral        = errors.New("self referral is not allowed")
	ErrAlreadyReferred     = errors.New("user has already been referred")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

type Service struct {
	*AuthService
	*UserService
	*ReferralService
}

func NewService(authService *AuthService, userService *UserService, referralService *ReferralService) *Service {
	return &Service{
		AuthService:     authService,
		UserService:     userService,
		ReferralService: referralService,
	}
}

type AuthServiceI interface {
	Register(ctx context.Context, in RegisterInput) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
}

type UserServiceI interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	GetLeaderboard(ctx context.Context) ([]*model.User, error)
	GetReferralCode(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

type ReferralServiceI interface {
	GetReferralSummary(ctx context.Context, userID uuid.UUID) (*model.ReferralSummary, error)
	Subscribe(userID uuid.UUID) (<-chan ReferralEvent, func())
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User, referrerID *uuid.UUID, countSince time.Time, award func(referralsToday int) int) (*repository.ReferralCreditResult, error)
	UserExists(ctx context.Context, name, email string) (bool, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByReferralCode(ctx context.Context, code uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	GetTopUsers(ctx context.Context, limit int) ([]*model.User, error)
}

type ReferralRepository interface {
	GetReferralsByReferrer(ctx context.Context, referrerID uuid.UUID) ([]*model.ReferredUser, error)
	CountReferralsSince(ctx context.Context, referrerID uuid.UUID, since time.Time) (int, error)
}

// TokenIssuer issues session tokens bound to a user identity.
type TokenIssuer interface {
	IssueToken(userID uuid.UUID) (string, error)
}
