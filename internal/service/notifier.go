package service

// Notifier hands notifications off to an outbound queue. Implementations
// are fire-and-forget: enqueueing never blocks and never fails, so a push
// problem is structurally incapable of affecting a reward transaction.
type Notifier interface {
	NotifyReferralReward(userID int64, tokens int64)
	NotifyReengagement(userID int64)
}
