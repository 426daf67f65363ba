package model

import "time"

// Reward amounts, in tokens. These are fixed product constants, not settings.
const (
	ReferralRewardTokens    int64 = 500
	ShareRewardTokens       int64 = 50
	DailyLoginTokens        int64 = 5
	RewardedVideoTokens     int64 = 5
	StarterPackTokens       int64 = 100
	SubscriberMonthlyTokens int64 = 300
)

// ReferralRewardCap is the maximum number of referral rewards a single
// referrer can ever be paid.
const ReferralRewardCap = 10

const (
	RewardedVideoCooldown = 20 * time.Minute
	RewardedVideoDailyCap = 5
)

// StarterPackReferenceID is the constant reference id of the one-time
// starter pack grant.
const StarterPackReferenceID = "starter_pack"

type Product struct {
	ID           string `json:"id"`
	Tokens       int64  `json:"tokens"`
	Subscription bool   `json:"subscription"`
}

// Catalog is the single product-id -> token-amount table. The client-facing
// purchase confirmation and the webhook mapping must both read from here;
// a second copy anywhere is a silent financial bug waiting to happen.
var Catalog = map[string]Product{
	"tokens_100":  {ID: "tokens_100", Tokens: 100},
	"tokens_550":  {ID: "tokens_550", Tokens: 550},
	"tokens_1200": {ID: "tokens_1200", Tokens: 1200},
	"pro_monthly": {ID: "pro_monthly", Subscription: true},
}

// ProductTokens returns the token amount for a non-subscription product id.
func ProductTokens(id string) (int64, bool) {
	p, ok := Catalog[id]
	if !ok || p.Subscription {
		return 0, false
	}
	return p.Tokens, true
}

func IsSubscriptionProduct(id string) bool {
	p, ok := Catalog[id]
	return ok && p.Subscription
}
