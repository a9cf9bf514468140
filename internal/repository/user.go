package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"referral_rewards/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

type User struct {
	ID           uuid.UUID `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	ReferralCode uuid.UUID `db:"referral_code"`
	Points       int       `db:"points"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (u *User) toModel() *model.User {
	return &model.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		ReferralCode: u.ReferralCode,
		Points:       u.Points,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// ReferralCreditResult reports the outcome of crediting a referrer inside
// the registration transaction.
type ReferralCreditResult struct {
	Awarded        int
	ReferrerPoints int
}

// CreateUser inserts a new user and, when referrerID is set, credits the
// referrer in the same transaction: the referrer row is locked first, the
// referral ledger entry is inserted, the referrer's same-day referral count
// is taken (the count runs after the insert and therefore includes it), and
// the award computed by the caller-supplied function is added to the
// referrer's balance. Either everything lands or nothing does.
func (r *Repository) CreateUser(ctx context.Context, user *model.User, referrerID *uuid.UUID, countSince time.Time, award func(referralsToday int) int) (*ReferralCreditResult, error) {
	var result *ReferralCreditResult

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if referrerID != nil {
			if *referrerID == user.ID {
				return ErrSelfReferral
			}
			if err := lockUserRow(ctx, tx, *referrerID); err != nil {
				return err
			}
		}

		query, args, err := squirrel.
			Insert("users").
			SetMap(map[string]interface{}{
				"id":            user.ID,
				"name":          user.Name,
				"email":         user.Email,
				"password_hash": user.PasswordHash,
				"referral_code": user.ReferralCode,
				"points":        user.Points,
				"created_at":    user.CreatedAt,
				"updated_at":    user.UpdatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build user insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", constraintError(err))
		}

		if referrerID != nil {
			res, err := r.creditReferrer(ctx, tx, *referrerID, user.ID, user.CreatedAt, countSince, award)
			if err != nil {
				return err
			}
			result = res
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// lockUserRow takes a FOR UPDATE lock on the user's row, serializing
// concurrent registrations that cite the same referrer.
func lockUserRow(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	query, args, err := squirrel.
		Select("id").
		From("users").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	var locked uuid.UUID
	err = tx.GetContext(ctx, &locked, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	return nil
}

func (r *Repository) creditReferrer(ctx context.Context, tx *sqlx.Tx, referrerID, referredID uuid.UUID, referredAt, countSince time.Time, award func(referralsToday int) int) (*ReferralCreditResult, error) {
	if err := insertReferral(ctx, tx, referrerID, referredID, referredAt); err != nil {
		return nil, err
	}

	count, err := countReferralsSinceTx(ctx, tx, referrerID, countSince)
	if err != nil {
		return nil, err
	}

	points := award(count)

	query, args, err := squirrel.
		Update("users").
		Set("points", squirrel.Expr("points + ?", points)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": referrerID}).
		Suffix("RETURNING points").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var total int
	err = tx.GetContext(ctx, &total, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to credit referrer: %w", err)
	}

	return &ReferralCreditResult{
		Awarded:        points,
		ReferrerPoints: total,
	}, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getUserWhere(ctx, squirrel.Eq{"id": id})
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getUserWhere(ctx, squirrel.Eq{"email": email})
}

func (r *Repository) GetUserByReferralCode(ctx context.Context, code uuid.UUID) (*model.User, error) {
	return r.getUserWhere(ctx, squirrel.Eq{"referral_code": code})
}

func (r *Repository) getUserWhere(ctx context.Context, pred squirrel.Eq) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(pred).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) UserExists(ctx context.Context, name, email string) (bool, error) {
	query, args, err := squirrel.
		Select("count(*)").
		From("users").
		Where(squirrel.Or{
			squirrel.Eq{"name": name},
			squirrel.Eq{"email": email},
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, err
	}

	var count int
	err = r.db.GetContext(ctx, &count, query, args...)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]*model.User, error) {
	var users []User
	query, args, err := squirrel.
		Select("*").
		From("users").
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	userList := make([]*model.User, len(users))
	for i := range users {
		userList[i] = users[i].toModel()
	}

	return userList, nil
}

func (r *Repository) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	var users []User
	query, args, err := squirrel.
		Select("*").
		From("users").
		OrderBy("points DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}

	userList := make([]*model.User, len(users))
	for i := range users {
		userList[i] = users[i].toModel()
	}

	return userList, nil
}

// constraintError maps postgres constraint violations onto the repository's
// sentinel errors so callers can react without knowing schema details.
func constraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		if pgErr.ConstraintName == "referrals_referred_id_key" {
			return ErrAlreadyReferred
		}
		return ErrAlreadyExists
	case "23514": // check_violation
		if pgErr.ConstraintName == "referrals_no_self_referral" {
			return ErrSelfReferral
		}
		return err
	case "23503": // foreign_key_violation
		return ErrNotFound
	default:
		return err
	}
}
