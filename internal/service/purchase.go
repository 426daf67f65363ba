package service

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/trophyroom/backend/internal/model"
	"github.com/trophyroom/backend/internal/repository"
)

var (
	ErrInvalidProduct = errors.New("unknown product id")
	ErrUnknownAppUser = errors.New("webhook app_user_id does not match a user")
)

// WebhookOutcome tells the provider what a delivery did. Replays land on
// "already_processed" with the same end state as the first delivery.
type WebhookOutcome string

const (
	OutcomeCredited            WebhookOutcome = "credited"
	OutcomeAlreadyProcessed    WebhookOutcome = "already_processed"
	OutcomeSubscriptionUpdated WebhookOutcome = "subscription_updated"
	OutcomeBillingIssueLogged  WebhookOutcome = "billing_issue_logged"
	OutcomeIgnored             WebhookOutcome = "ignored"
)

// PurchaseService reconciles billing-provider truth onto the ledger and the
// subscription flag, independently of whatever the client reports: clients
// get killed mid-purchase and replay requests.
type PurchaseService struct {
	repo *repository.Repository
	now  func() time.Time
}

func NewPurchaseService(repo *repository.Repository) *PurchaseService {
	return &PurchaseService{repo: repo, now: time.Now}
}

// CreditVerifiedPurchase is the client-confirmed token-pack path. The token
// amount comes from the shared catalog; the client's claimed amount must
// match it exactly, otherwise the request is rejected as tampering.
func (s *PurchaseService) CreditVerifiedPurchase(ctx context.Context, userID int64, productID, transactionID string, claimedTokens int64) (*EarnResult, error) {
	tokens, ok := model.ProductTokens(productID)
	if !ok {
		return nil, ErrInvalidProduct
	}
	if claimedTokens != 0 && claimedTokens != tokens {
		return nil, ErrInvalidProduct
	}

	// The webhook may have reconciled this transaction already under its
	// own reference type. Same logical purchase, one credit.
	reconciled, err := s.repo.HasEntry(ctx, userID, model.ReferenceRevenueCat, transactionID)
	if err != nil {
		return nil, err
	}
	if reconciled {
		current, err := s.repo.GetBalance(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &EarnResult{Balance: current, Earned: 0}, nil
	}

	balance, err := s.repo.ApplyEntry(ctx, repository.LedgerWrite{
		UserID:    userID,
		Amount:    tokens,
		Kind:      model.EntryKindPurchase,
		Reference: &model.Reference{Type: model.ReferenceIAP, ID: transactionID},
		CreatedAt: s.now().UTC(),
	})
	if errors.Is(err, repository.ErrDuplicateEntry) {
		// A client retry got here first. Retry-safe success, not an error.
		current, err := s.repo.GetBalance(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &EarnResult{Balance: current, Earned: 0}, nil
	}
	if err != nil {
		return nil, err
	}
	return &EarnResult{Balance: balance, Earned: tokens}, nil
}

// ProcessWebhookEvent runs the billing provider's event through the
// subscription state machine. Safe to receive the same event any number of
// times; unknown event types are acknowledged, not errored, so the provider
// stops retrying them.
func (s *PurchaseService) ProcessWebhookEvent(ctx context.Context, ev model.WebhookEvent) (WebhookOutcome, error) {
	userID, err := strconv.ParseInt(ev.AppUserID, 10, 64)
	if err != nil {
		return "", ErrUnknownAppUser
	}

	switch ev.Type {
	case model.EventInitialPurchase, model.EventRenewal:
		return s.applySubscriptionPeriod(ctx, userID, ev)

	case model.EventCancellation:
		// Still entitled until expiry; only auto-renew bookkeeping stops.
		if err := s.repo.SetAutoRenew(ctx, userID, false, s.now().UTC()); err != nil {
			return "", err
		}
		return OutcomeSubscriptionUpdated, nil

	case model.EventExpiration:
		if err := s.repo.SetSubscription(ctx, userID, false, false, nil, s.now().UTC()); err != nil {
			return "", err
		}
		return OutcomeSubscriptionUpdated, nil

	case model.EventBillingIssue:
		log.Printf("[Webhook] Billing issue reported for user %d, product %s", userID, ev.ProductID)
		return OutcomeBillingIssueLogged, nil

	case model.EventNonRenewingPurchase:
		return s.applyTokenPack(ctx, userID, ev)

	default:
		return OutcomeIgnored, nil
	}
}

func (s *PurchaseService) applySubscriptionPeriod(ctx context.Context, userID int64, ev model.WebhookEvent) (WebhookOutcome, error) {
	now := s.now().UTC()

	var expiresAt *time.Time
	if ev.ExpirationAtMs > 0 {
		t := time.UnixMilli(ev.ExpirationAtMs).UTC()
		expiresAt = &t
	}
	if err := s.repo.SetSubscription(ctx, userID, true, true, expiresAt, now); err != nil {
		return "", err
	}

	_, err := s.repo.ApplyEntry(ctx, repository.LedgerWrite{
		UserID:    userID,
		Amount:    model.SubscriberMonthlyTokens,
		Kind:      model.EntryKindBonus,
		Reference: &model.Reference{Type: model.ReferenceProSubscription, ID: ev.DedupeKey()},
		CreatedAt: now,
	})
	if errors.Is(err, repository.ErrDuplicateEntry) {
		return OutcomeAlreadyProcessed, nil
	}
	if err != nil {
		return "", err
	}
	return OutcomeCredited, nil
}

func (s *PurchaseService) applyTokenPack(ctx context.Context, userID int64, ev model.WebhookEvent) (WebhookOutcome, error) {
	tokens, ok := model.ProductTokens(ev.ProductID)
	if !ok {
		return "", ErrInvalidProduct
	}

	// Mirror of the client-confirmation check: if the client already
	// confirmed this transaction, the webhook delivery is a replay.
	confirmed, err := s.repo.HasEntry(ctx, userID, model.ReferenceIAP, ev.DedupeKey())
	if err != nil {
		return "", err
	}
	if confirmed {
		return OutcomeAlreadyProcessed, nil
	}

	_, err = s.repo.ApplyEntry(ctx, repository.LedgerWrite{
		UserID:    userID,
		Amount:    tokens,
		Kind:      model.EntryKindPurchase,
		Reference: &model.Reference{Type: model.ReferenceRevenueCat, ID: ev.DedupeKey()},
		CreatedAt: s.now().UTC(),
	})
	if errors.Is(err, repository.ErrDuplicateEntry) {
		return OutcomeAlreadyProcessed, nil
	}
	if err != nil {
		return "", err
	}
	return OutcomeCredited, nil
}
