package service

import (
	"context"
	"errors"
	"time"

	"github.com/trophyroom/backend/internal/model"
	"github.com/trophyroom/backend/internal/repository"
)

var (
	ErrUserNotFound      = repository.ErrUserNotFound
	ErrInsufficientFunds = repository.ErrInsufficientFunds
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// LedgerService owns the token balance. Every other service decides what to
// credit or debit and under which idempotency key; only this path mutates.
type LedgerService struct {
	repo *repository.Repository
	now  func() time.Time
}

func NewLedgerService(repo *repository.Repository) *LedgerService {
	return &LedgerService{repo: repo, now: time.Now}
}

// Credit adds tokens and appends the ledger entry atomically.
func (s *LedgerService) Credit(ctx context.Context, userID, amount int64, kind model.EntryKind, ref *model.Reference) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.repo.ApplyEntry(ctx, repository.LedgerWrite{
		UserID:    userID,
		Amount:    amount,
		Kind:      kind,
		Reference: ref,
		CreatedAt: s.now().UTC(),
	})
}

// Debit removes tokens; fails with ErrInsufficientFunds without writing an
// entry when the balance does not cover the amount.
func (s *LedgerService) Debit(ctx context.Context, userID, amount int64, kind model.EntryKind, ref *model.Reference) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.repo.ApplyEntry(ctx, repository.LedgerWrite{
		UserID:    userID,
		Amount:    -amount,
		Kind:      kind,
		Reference: ref,
		CreatedAt: s.now().UTC(),
	})
}

func (s *LedgerService) Balance(ctx context.Context, userID int64) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

func (s *LedgerService) Entries(ctx context.Context, userID int64, limit, offset int) ([]model.LedgerEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.GetLedgerEntries(ctx, userID, limit, offset)
}
