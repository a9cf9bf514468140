package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	// ReferralCode is the value other users cite at registration to credit
	// this user. Assigned at creation time, defaults to the user's own ID.
	ReferralCode uuid.UUID
	Points       int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
