package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_GetReferralsByReferrer(t *testing.T) {
	repo, mock := newTestRepository(t)
	referrerID := uuid.New()

	first := uuid.New()
	second := uuid.New()
	earlier := time.Now().Add(-time.Hour)
	later := time.Now()

	mock.ExpectQuery(`SELECT u.id, u.name, u.email, r.created_at AS referred_at FROM referrals r JOIN users u`).
		WithArgs(referrerID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "referred_at"}).
			AddRow(first.String(), "bob", "bob@example.com", earlier).
			AddRow(second.String(), "carol", "carol@example.com", later))

	refs, err := repo.GetReferralsByReferrer(context.Background(), referrerID)

	assert.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "bob", refs[0].Name)
	assert.Equal(t, "carol", refs[1].Name)
	assert.True(t, refs[0].ReferredAt.Before(refs[1].ReferredAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CountReferralsSince(t *testing.T) {
	repo, mock := newTestRepository(t)
	referrerID := uuid.New()
	since := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)

	mock.ExpectQuery(`SELECT count\(\*\) FROM referrals`).
		WithArgs(referrerID, since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := repo.CountReferralsSince(context.Background(), referrerID, since)

	assert.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
