package model

import "fmt"

// WebhookEventType is the billing provider's event discriminator. Only the
// types listed here change state; anything else is acknowledged and ignored.
type WebhookEventType string

const (
	EventInitialPurchase     WebhookEventType = "INITIAL_PURCHASE"
	EventRenewal             WebhookEventType = "RENEWAL"
	EventCancellation        WebhookEventType = "CANCELLATION"
	EventExpiration          WebhookEventType = "EXPIRATION"
	EventBillingIssue        WebhookEventType = "BILLING_ISSUE_DETECTED"
	EventNonRenewingPurchase WebhookEventType = "NON_RENEWING_PURCHASE"
)

type WebhookEvent struct {
	ID               string           `json:"id"`
	Type             WebhookEventType `json:"type"`
	AppUserID        string           `json:"app_user_id"`
	ProductID        string           `json:"product_id"`
	TransactionID    string           `json:"transaction_id"`
	ExpirationAtMs   int64            `json:"expiration_at_ms"`
	EventTimestampMs int64            `json:"event_timestamp_ms"`
}

type WebhookPayload struct {
	Event WebhookEvent `json:"event"`
}

// DedupeKey returns the idempotency reference id for this event: the
// provider transaction id when present, otherwise a synthesized id so a
// replayed event without one still dedupes.
func (e WebhookEvent) DedupeKey() string {
	if e.TransactionID != "" {
		return e.TransactionID
	}
	if e.ID != "" {
		return e.ID
	}
	return fmt.Sprintf("%s:%s:%d", e.Type, e.ProductID, e.EventTimestampMs)
}
