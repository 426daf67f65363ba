package model

import (
	"time"

	"github.com/google/uuid"
)

// EntryKind classifies what kind of balance change a ledger entry records.
type EntryKind string

const (
	EntryKindPurchase      EntryKind = "purchase"
	EntryKindRewardedVideo EntryKind = "rewarded_video"
	EntryKindSpend         EntryKind = "spend"
	EntryKindRefund        EntryKind = "refund"
	EntryKindBonus         EntryKind = "bonus"
)

// ReferenceType namespaces the external event an entry was issued for. The
// pair (type, id) is the idempotency key of a credit, unique per user.
type ReferenceType string

const (
	ReferenceIAP             ReferenceType = "iap"
	ReferenceReferralReward  ReferenceType = "referral_reward"
	ReferenceDailyLogin      ReferenceType = "daily_login"
	ReferenceShareTrophy     ReferenceType = "share_trophy"
	ReferenceStarterPack     ReferenceType = "starter_pack"
	ReferenceProSubscription ReferenceType = "pro_subscription"
	ReferenceRevenueCat      ReferenceType = "revenuecat_webhook"
)

// Reference identifies the source event behind a ledger entry.
type Reference struct {
	Type ReferenceType
	ID   string
}

// LedgerEntry is one immutable row of the token ledger. Entries are only
// ever appended; the account balance always equals the sum of amounts.
type LedgerEntry struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	UserID        int64          `json:"user_id" db:"user_id"`
	Kind          EntryKind      `json:"kind" db:"kind"`
	Amount        int64          `json:"amount" db:"amount"` // positive = credit, negative = debit
	BalanceAfter  int64          `json:"balance_after" db:"balance_after"`
	ReferenceID   *string        `json:"reference_id,omitempty" db:"reference_id"`
	ReferenceType *ReferenceType `json:"reference_type,omitempty" db:"reference_type"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}
