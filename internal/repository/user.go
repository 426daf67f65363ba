package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/trophyroom/backend/internal/model"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrReferralCodeTaken means the generated referral code collided with
	// another user's; the caller regenerates and retries.
	ErrReferralCodeTaken = errors.New("referral code already taken")
)

func (r *Repository) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a user with balance 0. A second create for the same id
// only refreshes the name; a referral-code collision surfaces as
// ErrReferralCodeTaken so the caller can regenerate.
func (r *Repository) CreateUser(ctx context.Context, user *model.User, now time.Time) error {
	query := `
		INSERT INTO users (id, first_name, referral_code, referred_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.FirstName,
		user.ReferralCode,
		user.ReferredBy,
		now,
	)
	if isUniqueViolation(err) {
		return ErrReferralCodeTaken
	}
	return err
}

func (r *Repository) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE referral_code = $1`, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// SetReferrer records who invited a user. First write wins: the update is
// conditional on referred_by still being null, so a second apply (or a
// racing one) reports false and changes nothing.
func (r *Repository) SetReferrer(ctx context.Context, userID, referrerID int64, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET referred_by = $1, updated_at = $2 WHERE id = $3 AND referred_by IS NULL`,
		referrerID, now, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *Repository) SetSubscription(ctx context.Context, userID int64, isSubscriber, autoRenew bool, expiresAt *time.Time, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET is_subscriber = $1, auto_renew = $2, subscription_expires_at = $3, updated_at = $4
		WHERE id = $5`,
		isSubscriber, autoRenew, expiresAt, now, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetAutoRenew flips only the auto-renew flag; a cancellation keeps the
// user entitled until the already-recorded expiry.
func (r *Repository) SetAutoRenew(ctx context.Context, userID int64, autoRenew bool, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET auto_renew = $1, updated_at = $2 WHERE id = $3`,
		autoRenew, now, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *Repository) CountReferredUsers(ctx context.Context, referrerID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM users WHERE referred_by = $1`, referrerID)
	return count, err
}

// ListInactiveUserIDs returns users whose most recent ledger activity (or
// signup, if they never earned anything) is older than the cutoff. Read-only;
// feeds the re-engagement nudge scan.
func (r *Repository) ListInactiveUserIDs(ctx context.Context, cutoff time.Time, limit int) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, `
		SELECT u.id FROM users u
		LEFT JOIN (
			SELECT user_id, MAX(created_at) AS last_at
			FROM ledger_entries
			GROUP BY user_id
		) le ON le.user_id = u.id
		WHERE COALESCE(le.last_at, u.created_at) < $1
		ORDER BY u.id
		LIMIT $2`,
		cutoff, limit)
	return ids, err
}
