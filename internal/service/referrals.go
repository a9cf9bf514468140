package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"referral_rewards/internal/model"
	"referral_rewards/internal/repository"

	"github.com/google/uuid"
)

type ReferralService struct {
	users     UserRepository
	referrals ReferralRepository
	*ReferralFeed
}

func NewReferralService(users UserRepository, referrals ReferralRepository, feed *ReferralFeed) *ReferralService {
	return &ReferralService{
		users:        users,
		referrals:    referrals,
		ReferralFeed: feed,
	}
}

// GetReferralSummary lists everyone the user referred, joined with the
// user's stored point balance. The balance is the transactionally-maintained
// aggregate, never recomputed from ledger history.
func (s *ReferralService) GetReferralSummary(ctx context.Context, userID uuid.UUID) (*model.ReferralSummary, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	refs, err := s.referrals.GetReferralsByReferrer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrals: %w", err)
	}

	return &model.ReferralSummary{
		Referrals: refs,
		Points:    user.Points,
	}, nil
}

// ReferralEvent is pushed to a subscribed referrer when a registration
// credits them.
type ReferralEvent struct {
	ReferredName  string `json:"referred_name"`
	PointsAwarded int    `json:"points_awarded"`
	TotalPoints   int    `json:"total_points"`
}

// ReferralFeed fans referral events out to live websocket subscribers.
// Delivery is best effort: publishing never blocks registration, and events
// for users with no open connection are dropped.
type ReferralFeed struct {
	mu   sync.Mutex
	subs map[uuid.UUID][]chan ReferralEvent
}

func NewReferralFeed() *ReferralFeed {
	return &ReferralFeed{
		subs: make(map[uuid.UUID][]chan ReferralEvent),
	}
}

func (f *ReferralFeed) Subscribe(userID uuid.UUID) (<-chan ReferralEvent, func()) {
	ch := make(chan ReferralEvent, 16)

	f.mu.Lock()
	f.subs[userID] = append(f.subs[userID], ch)
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()

		channels := f.subs[userID]
		for i, c := range channels {
			if c == ch {
				f.subs[userID] = append(channels[:i], channels[i+1:]...)
				close(ch)
				break
			}
		}
		if len(f.subs[userID]) == 0 {
			delete(f.subs, userID)
		}
	}

	return ch, cancel
}

func (f *ReferralFeed) Publish(userID uuid.UUID, event ReferralEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs[userID] {
		select {
		case ch <- event:
		default:
		}
	}
}
