package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/trophyroom/backend/internal/model"
	"github.com/trophyroom/backend/internal/repository"
)

var (
	ErrDailyLimitReached   = errors.New("daily rewarded video limit reached")
	ErrAlreadyClaimedToday = errors.New("daily login bonus already claimed today")
	ErrAlreadyClaimed      = errors.New("starter pack already claimed")
	ErrTrophyNotFound      = repository.ErrTrophyNotFound
)

// CooldownError is an expected rate-limit outcome carrying retry metadata,
// not a failure to log.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("rewarded video on cooldown, retry in %ds", int(e.RetryAfter.Seconds()))
}

type EarnResult struct {
	Balance int64 `json:"balance"`
	Earned  int64 `json:"earned"`
}

type ShareResult struct {
	Rewarded bool  `json:"rewarded"`
	Balance  int64 `json:"balance"`
}

// RewardService decides whether a self-serve reward is owed and delegates
// the actual mutation to the ledger. It keeps no state of its own: cooldowns
// and caps are derived from ledger history, so they can never drift from it.
type RewardService struct {
	repo     *repository.Repository
	notifier Notifier
	now      func() time.Time
}

func NewRewardService(repo *repository.Repository, notifier Notifier) *RewardService {
	return &RewardService{repo: repo, notifier: notifier, now: time.Now}
}

// EarnRewardedVideo grants the ad-watch reward, subject to a 20 minute
// cooldown and a per-UTC-day cap.
//
// The check reads ledger history and the credit is a second round trip, so
// two requests racing inside that window could both pass. Known limitation:
// the stake is 5 tokens, and hardening it would need a per-user advisory
// lock. The daily-login path below does not have this gap.
func (s *RewardService) EarnRewardedVideo(ctx context.Context, userID int64) (*EarnResult, error) {
	now := s.now().UTC()

	last, err := s.repo.LastEntryOfKind(ctx, userID, model.EntryKindRewardedVideo)
	if err != nil {
		return nil, err
	}
	if last != nil {
		elapsed := now.Sub(last.CreatedAt)
		if elapsed < model.RewardedVideoCooldown {
			return nil, &CooldownError{RetryAfter: model.RewardedVideoCooldown - elapsed}
		}
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	count, err := s.repo.CountEntriesOfKindSince(ctx, userID, model.EntryKindRewardedVideo, midnight)
	if err != nil {
		return nil, err
	}
	if count >= model.RewardedVideoDailyCap {
		return nil, ErrDailyLimitReached
	}

	balance, err := s.repo.ApplyEntry(ctx, repository.LedgerWrite{
		UserID:    userID,
		Amount:    model.RewardedVideoTokens,
		Kind:      model.EntryKindRewardedVideo,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	return &EarnResult{Balance: balance, Earned: model.RewardedVideoTokens}, nil
}

// EarnDailyLogin grants the once-per-UTC-day login bonus. The reference id
// is the calendar day itself, so the unique reference index closes the
// duplicate-claim race outright.
func (s *RewardService) EarnDailyLogin(ctx context.Context, userID int64) (*EarnResult, error) {
	now := s.now().UTC()
	day := now.Format("2006-01-02")

	balance, err := s.repo.ApplyEntry(ctx, repository.LedgerWrite{
		UserID:    userID,
		Amount:    model.DailyLoginTokens,
		Kind:      model.EntryKindBonus,
		Reference: &model.Reference{Type: model.ReferenceDailyLogin, ID: day},
		CreatedAt: now,
	})
	if errors.Is(err, repository.ErrDuplicateEntry) {
		return nil, ErrAlreadyClaimedToday
	}
	if err != nil {
		return nil, err
	}
	return &EarnResult{Balance: balance, Earned: model.DailyLoginTokens}, nil
}

// RewardShare grants the share reward for a trophy its owner shared. Each
// trophy earns at most one reward ever; a repeat share reports rewarded
// false with the unchanged balance.
func (s *RewardService) RewardShare(ctx context.Context, userID int64, trophyID uuid.UUID) (*ShareResult, error) {
	trophy, err := s.repo.GetTrophy(ctx, trophyID)
	if err != nil {
		return nil, err
	}
	if trophy.UserID != userID {
		return nil, ErrTrophyNotFound
	}

	balance, err := s.repo.ApplyEntry(ctx, repository.LedgerWrite{
		UserID:    userID,
		Amount:    model.ShareRewardTokens,
		Kind:      model.EntryKindBonus,
		Reference: &model.Reference{Type: model.ReferenceShareTrophy, ID: trophyID.String()},
		CreatedAt: s.now().UTC(),
	})
	if errors.Is(err, repository.ErrDuplicateEntry) {
		current, err := s.repo.GetBalance(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &ShareResult{Rewarded: false, Balance: current}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ShareResult{Rewarded: true, Balance: balance}, nil
}

// ClaimStarterPack grants the one-time starter pack.
func (s *RewardService) ClaimStarterPack(ctx context.Context, userID int64) (*EarnResult, error) {
	balance, err := s.repo.ApplyEntry(ctx, repository.LedgerWrite{
		UserID:    userID,
		Amount:    model.StarterPackTokens,
		Kind:      model.EntryKindBonus,
		Reference: &model.Reference{Type: model.ReferenceStarterPack, ID: model.StarterPackReferenceID},
		CreatedAt: s.now().UTC(),
	})
	if errors.Is(err, repository.ErrDuplicateEntry) {
		return nil, ErrAlreadyClaimed
	}
	if err != nil {
		return nil, err
	}
	return &EarnResult{Balance: balance, Earned: model.StarterPackTokens}, nil
}

// StarterPackClaimed is the status check the UI calls before offering the pack.
func (s *RewardService) StarterPackClaimed(ctx context.Context, userID int64) (bool, error) {
	return s.repo.HasEntry(ctx, userID, model.ReferenceStarterPack, model.StarterPackReferenceID)
}

// OnTrophyValidated fires when a user's trophy acquires a linked race
// result. If this was the user's first validated trophy and they were
// referred, the referrer earns the referral reward. Every precondition miss
// is a silent no-op; only storage failures come back as errors.
func (s *RewardService) OnTrophyValidated(ctx context.Context, userID int64) error {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.ReferredBy == nil {
		return nil
	}
	referrerID := *user.ReferredBy

	validated, err := s.repo.CountValidatedTrophies(ctx, userID)
	if err != nil {
		return err
	}
	if validated != 1 {
		return nil
	}

	refID := strconv.FormatInt(userID, 10)
	done, err := s.repo.HasEntry(ctx, referrerID, model.ReferenceReferralReward, refID)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	paid, err := s.repo.CountEntriesByReference(ctx, referrerID, model.ReferenceReferralReward)
	if err != nil {
		return err
	}
	if paid >= model.ReferralRewardCap {
		return nil
	}

	_, err = s.repo.ApplyEntry(ctx, repository.LedgerWrite{
		UserID:    referrerID,
		Amount:    model.ReferralRewardTokens,
		Kind:      model.EntryKindBonus,
		Reference: &model.Reference{Type: model.ReferenceReferralReward, ID: refID},
		CreatedAt: s.now().UTC(),
	})
	if errors.Is(err, repository.ErrDuplicateEntry) {
		// Lost a race against another validation of the same trophy.
		return nil
	}
	if err != nil {
		return err
	}

	log.Printf("[Rewards] Credited %d tokens to referrer %d for referral of user %d",
		model.ReferralRewardTokens, referrerID, userID)

	if s.notifier != nil {
		s.notifier.NotifyReferralReward(referrerID, model.ReferralRewardTokens)
	}
	return nil
}
