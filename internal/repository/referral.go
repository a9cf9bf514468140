package repository

import (
	"context"
	"fmt"
	"time"

	"referral_rewards/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type referredUser struct {
	ID         uuid.UUID `db:"id"`
	Name       string    `db:"name"`
	Email      string    `db:"email"`
	ReferredAt time.Time `db:"referred_at"`
}

func insertReferral(ctx context.Context, tx *sqlx.Tx, referrerID, referredID uuid.UUID, createdAt time.Time) error {
	query, args, err := squirrel.
		Insert("referrals").
		SetMap(map[string]interface{}{
			"referrer_id": referrerID,
			"referred_id": referredID,
			"created_at":  createdAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build referral insert query: %w", err)
	}

	_, err = tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert referral: %w", constraintError(err))
	}

	return nil
}

func countReferralsSinceTx(ctx context.Context, tx *sqlx.Tx, referrerID uuid.UUID, since time.Time) (int, error) {
	query, args, err := squirrel.
		Select("count(*)").
		From("referrals").
		Where(squirrel.And{
			squirrel.Eq{"referrer_id": referrerID},
			squirrel.GtOrEq{"created_at": since},
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = tx.GetContext(ctx, &count, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}

	return count, nil
}

// CountReferralsSince counts ledger entries authored by the referrer with a
// creation time at or after the given instant.
func (r *Repository) CountReferralsSince(ctx context.Context, referrerID uuid.UUID, since time.Time) (int, error) {
	query, args, err := squirrel.
		Select("count(*)").
		From("referrals").
		Where(squirrel.And{
			squirrel.Eq{"referrer_id": referrerID},
			squirrel.GtOrEq{"created_at": since},
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = r.db.GetContext(ctx, &count, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}

	return count, nil
}

// GetReferralsByReferrer lists the users this referrer brought in, joined
// with their display data, oldest referral first.
func (r *Repository) GetReferralsByReferrer(ctx context.Context, referrerID uuid.UUID) ([]*model.ReferredUser, error) {
	query, args, err := squirrel.
		Select(
			"u.id",
			"u.name",
			"u.email",
			"r.created_at AS referred_at",
		).
		From("referrals r").
		Join("users u ON u.id = r.referred_id").
		Where(squirrel.Eq{"r.referrer_id": referrerID}).
		OrderBy("r.created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []*referredUser
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrals: %w", err)
	}

	refs := make([]*model.ReferredUser, len(rows))
	for i, row := range rows {
		refs[i] = &model.ReferredUser{
			ID:         row.ID,
			Name:       row.Name,
			Email:      row.Email,
			ReferredAt: row.ReferredAt,
		}
	}

	return refs, nil
}
