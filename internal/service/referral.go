package service

import (
	"context"
	"errors"
	"time"

	"github.com/trophyroom/backend/internal/model"
	"github.com/trophyroom/backend/internal/repository"
)

var (
	ErrInvalidCode        = errors.New("referral code not found")
	ErrSelfReferral       = errors.New("cannot apply your own referral code")
	ErrAlreadyReferred    = errors.New("a referral code was already applied")
	ErrReferrerCapReached = errors.New("this code has reached its referral limit")
)

type ReferralService struct {
	repo *repository.Repository
	now  func() time.Time
}

func NewReferralService(repo *repository.Repository) *ReferralService {
	return &ReferralService{repo: repo, now: time.Now}
}

// ApplyReferralCode records who invited a user. The edge is set at most
// once per user; the reward itself is paid later, when the referred user
// validates their first trophy.
func (s *ReferralService) ApplyReferralCode(ctx context.Context, userID int64, code string) error {
	referrer, err := s.repo.GetUserByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidCode
		}
		return err
	}

	if referrer.ID == userID {
		return ErrSelfReferral
	}

	paid, err := s.repo.CountEntriesByReference(ctx, referrer.ID, model.ReferenceReferralReward)
	if err != nil {
		return err
	}
	if paid >= model.ReferralRewardCap {
		return ErrReferrerCapReached
	}

	applied, err := s.repo.SetReferrer(ctx, userID, referrer.ID, s.now().UTC())
	if err != nil {
		return err
	}
	if !applied {
		return ErrAlreadyReferred
	}
	return nil
}

func (s *ReferralService) Stats(ctx context.Context, userID int64) (*model.ReferralStats, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	invited, err := s.repo.CountReferredUsers(ctx, userID)
	if err != nil {
		return nil, err
	}

	rewarded, err := s.repo.CountEntriesByReference(ctx, userID, model.ReferenceReferralReward)
	if err != nil {
		return nil, err
	}

	earned, err := s.repo.SumEntriesByReference(ctx, userID, model.ReferenceReferralReward)
	if err != nil {
		return nil, err
	}

	return &model.ReferralStats{
		Code:         user.ReferralCode,
		TotalInvited: invited,
		Rewarded:     rewarded,
		TokensEarned: earned,
	}, nil
}
