package service

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trophyroom/backend/internal/model"
	"github.com/trophyroom/backend/internal/repository"
)

type stubNotifier struct {
	referralRewards []int64 // referrer ids, in call order
	reengagements   []int64
}

func (n *stubNotifier) NotifyReferralReward(userID int64, tokens int64) {
	n.referralRewards = append(n.referralRewards, userID)
}

func (n *stubNotifier) NotifyReengagement(userID int64) {
	n.reengagements = append(n.reengagements, userID)
}

func newTestRepo(t *testing.T) *repository.Repository {
	repo, err := repository.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *repository.Repository, id int64) {
	t.Helper()
	user := &model.User{ID: id, ReferralCode: fmt.Sprintf("CODE%d", id)}
	require.NoError(t, repo.CreateUser(context.Background(), user, time.Now().UTC()))
}

// fixedClock returns a clock function plus a setter to move it.
func fixedClock(start time.Time) (func() time.Time, func(time.Time)) {
	current := start
	return func() time.Time { return current }, func(t time.Time) { current = t }
}

func TestEarnRewardedVideo_Cooldown(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, 1)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	svc := NewRewardService(repo, nil)
	clock, setClock := fixedClock(base)
	svc.now = clock

	res, err := svc.EarnRewardedVideo(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RewardedVideoTokens, res.Earned)
	assert.Equal(t, model.RewardedVideoTokens, res.Balance)

	// Ten minutes in, the claim is refused with the remaining wait.
	setClock(base.Add(10 * time.Minute))
	_, err = svc.EarnRewardedVideo(ctx, 1)
	var cooldown *CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.Equal(t, 10*time.Minute, cooldown.RetryAfter)

	setClock(base.Add(21 * time.Minute))
	res, err = svc.EarnRewardedVideo(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2*model.RewardedVideoTokens, res.Balance)
}

func TestEarnRewardedVideo_DailyCap(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, 1)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	svc := NewRewardService(repo, nil)
	clock, setClock := fixedClock(base)
	svc.now = clock

	for i := 0; i < model.RewardedVideoDailyCap; i++ {
		setClock(base.Add(time.Duration(i) * time.Hour))
		_, err := svc.EarnRewardedVideo(ctx, 1)
		require.NoError(t, err)
	}

	setClock(base.Add(10 * time.Hour))
	_, err := svc.EarnRewardedVideo(ctx, 1)
	assert.ErrorIs(t, err, ErrDailyLimitReached)

	// The cap is per UTC day, so the next morning opens a fresh window.
	setClock(base.Add(24 * time.Hour))
	res, err := svc.EarnRewardedVideo(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(model.RewardedVideoDailyCap+1)*model.RewardedVideoTokens, res.Balance)
}

func TestEarnDailyLogin_OncePerDay(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, 1)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	svc := NewRewardService(repo, nil)
	clock, setClock := fixedClock(base)
	svc.now = clock

	res, err := svc.EarnDailyLogin(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.DailyLoginTokens, res.Earned)

	setClock(base.Add(8 * time.Hour))
	_, err = svc.EarnDailyLogin(ctx, 1)
	assert.ErrorIs(t, err, ErrAlreadyClaimedToday)

	setClock(base.Add(24 * time.Hour))
	res, err = svc.EarnDailyLogin(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2*model.DailyLoginTokens, res.Balance)
}

func TestRewardShare_OncePerTrophy(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, 1)
	seedUser(t, repo, 2)
	ctx := context.Background()

	trophy := &model.Trophy{UserID: 1}
	require.NoError(t, repo.CreateTrophy(ctx, trophy, time.Now().UTC()))

	svc := NewRewardService(repo, nil)

	res, err := svc.RewardShare(ctx, 1, trophy.ID)
	require.NoError(t, err)
	assert.True(t, res.Rewarded)
	assert.Equal(t, model.ShareRewardTokens, res.Balance)

	// Sharing the same trophy again is fine, it just pays nothing.
	res, err = svc.RewardShare(ctx, 1, trophy.ID)
	require.NoError(t, err)
	assert.False(t, res.Rewarded)
	assert.Equal(t, model.ShareRewardTokens, res.Balance)

	// Someone else's trophy looks like no trophy at all.
	_, err = svc.RewardShare(ctx, 2, trophy.ID)
	assert.ErrorIs(t, err, ErrTrophyNotFound)
}

func TestClaimStarterPack(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, 1)
	ctx := context.Background()

	svc := NewRewardService(repo, nil)

	claimed, err := svc.StarterPackClaimed(ctx, 1)
	require.NoError(t, err)
	assert.False(t, claimed)

	res, err := svc.ClaimStarterPack(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StarterPackTokens, res.Earned)

	claimed, err = svc.StarterPackClaimed(ctx, 1)
	require.NoError(t, err)
	assert.True(t, claimed)

	_, err = svc.ClaimStarterPack(ctx, 1)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
}

func validateFirstTrophy(t *testing.T, repo *repository.Repository, userID int64, resultID string) {
	t.Helper()
	ctx := context.Background()
	trophy := &model.Trophy{UserID: userID}
	require.NoError(t, repo.CreateTrophy(ctx, trophy, time.Now().UTC()))
	linked, err := repo.LinkTrophyResult(ctx, trophy.ID, resultID)
	require.NoError(t, err)
	require.True(t, linked)
}

func TestOnTrophyValidated_PaysReferrerOnce(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, 1) // referrer
	seedUser(t, repo, 2) // referred runner
	ctx := context.Background()

	applied, err := repo.SetReferrer(ctx, 2, 1, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, applied)

	notifier := &stubNotifier{}
	svc := NewRewardService(repo, notifier)

	validateFirstTrophy(t, repo, 2, "result-1")
	require.NoError(t, svc.OnTrophyValidated(ctx, 2))

	balance, err := repo.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.ReferralRewardTokens, balance)
	assert.Equal(t, []int64{1}, notifier.referralRewards)

	// Replayed validation of the same user pays nothing more.
	require.NoError(t, svc.OnTrophyValidated(ctx, 2))

	// A second validated trophy is past the first-trophy trigger.
	validateFirstTrophy(t, repo, 2, "result-2")
	require.NoError(t, svc.OnTrophyValidated(ctx, 2))

	balance, err = repo.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.ReferralRewardTokens, balance)
	assert.Len(t, notifier.referralRewards, 1)
}

func TestOnTrophyValidated_NoReferrerIsNoOp(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, 1)
	ctx := context.Background()

	notifier := &stubNotifier{}
	svc := NewRewardService(repo, notifier)

	validateFirstTrophy(t, repo, 1, "result-1")
	require.NoError(t, svc.OnTrophyValidated(ctx, 1))

	balance, err := repo.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, balance)
	assert.Empty(t, notifier.referralRewards)
}

func TestOnTrophyValidated_ReferrerCap(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, 1)
	ctx := context.Background()

	// The referrer has already been paid for the maximum number of invites.
	for i := 0; i < model.ReferralRewardCap; i++ {
		_, err := repo.ApplyEntry(ctx, repository.LedgerWrite{
			UserID: 1,
			Amount: model.ReferralRewardTokens,
			Kind:   model.EntryKindBonus,
			Reference: &model.Reference{
				Type: model.ReferenceReferralReward,
				ID:   strconv.Itoa(100 + i),
			},
			CreatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	seedUser(t, repo, 2)
	applied, err := repo.SetReferrer(ctx, 2, 1, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, applied)

	notifier := &stubNotifier{}
	svc := NewRewardService(repo, notifier)

	validateFirstTrophy(t, repo, 2, "result-1")
	require.NoError(t, svc.OnTrophyValidated(ctx, 2))

	balance, err := repo.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(model.ReferralRewardCap)*model.ReferralRewardTokens, balance)
	assert.Empty(t, notifier.referralRewards)
}
