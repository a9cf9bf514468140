package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"referral_rewards/internal/model"
	"referral_rewards/internal/repository"
	"referral_rewards/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestReferralService_GetReferralSummary(t *testing.T) {
	userID := uuid.New()
	now := time.Now()

	tests := []struct {
		name          string
		setupMocks    func(users *mocks.MockUserRepository, referrals *mocks.MockReferralRepository)
		expectedError error
		check         func(t *testing.T, summary *model.ReferralSummary)
	}{
		{
			name: "User no longer exists",
			setupMocks: func(users *mocks.MockUserRepository, referrals *mocks.MockReferralRepository) {
				users.On("GetUserByID", mock.Anything, userID).
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrUserNotFound,
		},
		{
			name: "Summary joins referrals with stored points",
			setupMocks: func(users *mocks.MockUserRepository, referrals *mocks.MockReferralRepository) {
				users.On("GetUserByID", mock.Anything, userID).
					Return(&model.User{ID: userID, Points: 450}, nil)
				referrals.On("GetReferralsByReferrer", mock.Anything, userID).
					Return([]*model.ReferredUser{
						{Name: "first", ReferredAt: now.Add(-2 * time.Hour)},
						{Name: "second", ReferredAt: now.Add(-time.Hour)},
						{Name: "third", ReferredAt: now},
					}, nil)
			},
			check: func(t *testing.T, summary *model.ReferralSummary) {
				assert.Len(t, summary.Referrals, 3)
				assert.Equal(t, 450, summary.Points)
				assert.Equal(t, "first", summary.Referrals[0].Name)
				assert.Equal(t, "third", summary.Referrals[2].Name)
			},
		},
		{
			name: "No referrals yet",
			setupMocks: func(users *mocks.MockUserRepository, referrals *mocks.MockReferralRepository) {
				users.On("GetUserByID", mock.Anything, userID).
					Return(&model.User{ID: userID, Points: 0}, nil)
				referrals.On("GetReferralsByReferrer", mock.Anything, userID).
					Return([]*model.ReferredUser{}, nil)
			},
			check: func(t *testing.T, summary *model.ReferralSummary) {
				assert.Empty(t, summary.Referrals)
				assert.Equal(t, 0, summary.Points)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mocks.MockUserRepository{}
			referrals := &mocks.MockReferralRepository{}
			s := NewReferralService(users, referrals, NewReferralFeed())

			tt.setupMocks(users, referrals)

			summary, err := s.GetReferralSummary(context.Background(), userID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			assert.NoError(t, err)
			if tt.check != nil {
				tt.check(t, summary)
			}

			users.AssertExpectations(t)
			referrals.AssertExpectations(t)
		})
	}
}

func TestReferralFeed(t *testing.T) {
	t.Run("delivers to subscriber", func(t *testing.T) {
		feed := NewReferralFeed()
		userID := uuid.New()

		events, cancel := feed.Subscribe(userID)
		defer cancel()

		feed.Publish(userID, ReferralEvent{ReferredName: "bob", PointsAwarded: 200})

		select {
		case ev := <-events:
			assert.Equal(t, "bob", ev.ReferredName)
			assert.Equal(t, 200, ev.PointsAwarded)
		case <-time.After(time.Second):
			t.Fatal("expected event")
		}
	})

	t.Run("publish without subscriber does not block", func(t *testing.T) {
		feed := NewReferralFeed()
		feed.Publish(uuid.New(), ReferralEvent{ReferredName: "nobody"})
	})

	t.Run("cancel closes the channel", func(t *testing.T) {
		feed := NewReferralFeed()
		events, cancel := feed.Subscribe(uuid.New())
		cancel()

		_, open := <-events
		assert.False(t, open)
	})

	t.Run("concurrent publishers all land", func(t *testing.T) {
		feed := NewReferralFeed()
		userID := uuid.New()
		events, cancel := feed.Subscribe(userID)
		defer cancel()

		const publishers = 10
		var wg sync.WaitGroup
		for i := 0; i < publishers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				feed.Publish(userID, ReferralEvent{PointsAwarded: 100})
			}(i)
		}
		wg.Wait()

		for i := 0; i < publishers; i++ {
			select {
			case <-events:
			case <-time.After(time.Second):
				t.Fatalf("only received %d of %d events", i, publishers)
			}
		}
	})
}
