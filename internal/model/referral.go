package model

import (
	"time"

	"github.com/google/uuid"
)

// Referral is one ledger entry: referrer credited for bringing referred in.
// Created exactly once, at the referred user's registration; immutable after.
type Referral struct {
	ReferrerID uuid.UUID
	ReferredID uuid.UUID
	CreatedAt  time.Time
}

// ReferredUser is a referral joined with the referred user's display data.
type ReferredUser struct {
	ID         uuid.UUID
	Name       string
	Email      string
	ReferredAt time.Time
}

type ReferralSummary struct {
	Referrals []*ReferredUser
	Points    int
}
