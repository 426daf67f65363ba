package model

import (
	"time"
)

type User struct {
	ID                    int64      `json:"id" db:"id"`
	FirstName             *string    `json:"first_name,omitempty" db:"first_name"`
	ReferralCode          string     `json:"referral_code" db:"referral_code"`
	ReferredBy            *int64     `json:"referred_by,omitempty" db:"referred_by"`
	Balance               int64      `json:"balance" db:"balance"` // tokens, mutated only through the ledger
	IsSubscriber          bool       `json:"is_subscriber" db:"is_subscriber"`
	AutoRenew             bool       `json:"auto_renew" db:"auto_renew"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at,omitempty" db:"subscription_expires_at"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}

type ReferralStats struct {
	Code         string `json:"code"`
	TotalInvited int    `json:"total_invited"`
	Rewarded     int    `json:"rewarded"`
	TokensEarned int64  `json:"tokens_earned"`
}
