package mocks

import (
	"context"
	"time"

	"referral_rewards/internal/model"
	"referral_rewards/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *model.User, referrerID *uuid.UUID, countSince time.Time, award func(referralsToday int) int) (*repository.ReferralCreditResult, error) {
	args := m.Called(ctx, user, referrerID, countSince, award)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ReferralCreditResult), args.Error(1)
}

func (m *MockUserRepository) UserExists(ctx context.Context, name, email string) (bool, error) {
	args := m.Called(ctx, name, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByReferralCode(ctx context.Context, code uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) ListUsers(ctx context.Context) ([]*model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserRepository) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

type MockReferralRepository struct {
	mock.Mock
}

func (m *MockReferralRepository) GetReferralsByReferrer(ctx context.Context, referrerID uuid.UUID) ([]*model.ReferredUser, error) {
	args := m.Called(ctx, referrerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ReferredUser), args.Error(1)
}

func (m *MockReferralRepository) CountReferralsSince(ctx context.Context, referrerID uuid.UUID, since time.Time) (int, error) {
	args := m.Called(ctx, referrerID, since)
	return args.Int(0), args.Error(1)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) IssueToken(userID uuid.UUID) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}
