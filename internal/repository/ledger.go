package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trophyroom/backend/internal/model"
)

var (
	ErrInsufficientFunds = errors.New("insufficient token balance")
	// ErrDuplicateEntry means an entry with the same (user, reference type,
	// reference id) already exists. Callers treat this as "already
	// processed", never as a failure to surface.
	ErrDuplicateEntry = errors.New("duplicate ledger entry")
)

// LedgerWrite describes one balance change to apply atomically.
type LedgerWrite struct {
	UserID    int64
	Amount    int64 // positive = credit, negative = debit
	Kind      model.EntryKind
	Reference *model.Reference
	CreatedAt time.Time
}

// ApplyEntry is the only write path into the token ledger. In a single
// transaction it conditionally updates the balance and appends the entry,
// or does neither.
//
// The balance update is conditional ("add delta where the result stays
// non-negative") rather than read-check-write, so concurrent debits on the
// same account serialize at the storage layer and the balance can never go
// negative. The entry insert is ON CONFLICT DO NOTHING against the unique
// reference index; a racing duplicate rolls the whole transaction back and
// reports ErrDuplicateEntry, so replays can never double-credit.
func (r *Repository) ApplyEntry(ctx context.Context, w LedgerWrite) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET balance = balance + $1, updated_at = $2 WHERE id = $3 AND balance + $1 >= 0`,
		w.Amount, w.CreatedAt, w.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to update balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		var count int
		if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE id = $1`, w.UserID); err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, ErrUserNotFound
		}
		return 0, ErrInsufficientFunds
	}

	var balanceAfter int64
	if err := tx.GetContext(ctx, &balanceAfter, `SELECT balance FROM users WHERE id = $1`, w.UserID); err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}

	var refID, refType interface{}
	if w.Reference != nil {
		refID = w.Reference.ID
		refType = string(w.Reference.Type)
	}

	res, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, user_id, kind, amount, balance_after, reference_id, reference_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING`,
		uuid.New(), w.UserID, w.Kind, w.Amount, balanceAfter, refID, refType, w.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	n, err = res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		// The rollback undoes the balance update.
		return 0, ErrDuplicateEntry
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return balanceAfter, nil
}

func (r *Repository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := r.db.GetContext(ctx, &balance, `SELECT balance FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	return balance, err
}

func (r *Repository) GetLedgerEntries(ctx context.Context, userID int64, limit, offset int) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	return entries, err
}

// HasEntry reports whether a ledger entry already exists for the given
// idempotency key. Triggers call this before crediting; the unique index on
// the same triple is what makes the check race-proof.
func (r *Repository) HasEntry(ctx context.Context, userID int64, refType model.ReferenceType, refID string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM ledger_entries
		WHERE user_id = $1 AND reference_type = $2 AND reference_id = $3`,
		userID, refType, refID)
	return count > 0, err
}

// CountEntriesByReference counts a user's entries of one reference type,
// e.g. referral rewards already paid to a referrer.
func (r *Repository) CountEntriesByReference(ctx context.Context, userID int64, refType model.ReferenceType) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM ledger_entries
		WHERE user_id = $1 AND reference_type = $2`,
		userID, refType)
	return count, err
}

// LastEntryOfKind returns the user's most recent entry of the given kind,
// or nil if there is none.
func (r *Repository) LastEntryOfKind(ctx context.Context, userID int64, kind model.EntryKind) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	err := r.db.GetContext(ctx, &entry, `
		SELECT * FROM ledger_entries
		WHERE user_id = $1 AND kind = $2
		ORDER BY created_at DESC
		LIMIT 1`,
		userID, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) CountEntriesOfKindSince(ctx context.Context, userID int64, kind model.EntryKind, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM ledger_entries
		WHERE user_id = $1 AND kind = $2 AND created_at >= $3`,
		userID, kind, since)
	return count, err
}

// SumEntries returns the running sum of a user's entry amounts. The account
// balance must always equal this; it exists for audits and tests.
func (r *Repository) SumEntries(ctx context.Context, userID int64) (int64, error) {
	var sum int64
	err := r.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE user_id = $1`,
		userID)
	return sum, err
}

// SumEntriesByReference totals a user's entries of one reference type.
func (r *Repository) SumEntriesByReference(ctx context.Context, userID int64, refType model.ReferenceType) (int64, error) {
	var sum int64
	err := r.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0) FROM ledger_entries
		WHERE user_id = $1 AND reference_type = $2`,
		userID, refType)
	return sum, err
}
