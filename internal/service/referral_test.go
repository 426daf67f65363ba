package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trophyroom/backend/internal/model"
	"github.com/trophyroom/backend/internal/repository"
)

func TestApplyReferralCode(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, 1)
	seedUser(t, repo, 2)
	ctx := context.Background()
	svc := NewReferralService(repo)

	require.NoError(t, svc.ApplyReferralCode(ctx, 2, "CODE1"))

	user, err := repo.GetUser(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, user.ReferredBy)
	assert.Equal(t, int64(1), *user.ReferredBy)

	// The edge is written once; a different code afterwards is refused.
	seedUser(t, repo, 3)
	assert.ErrorIs(t, svc.ApplyReferralCode(ctx, 2, "CODE3"), ErrAlreadyReferred)

	assert.ErrorIs(t, svc.ApplyReferralCode(ctx, 3, "NOSUCH"), ErrInvalidCode)
	assert.ErrorIs(t, svc.ApplyReferralCode(ctx, 3, "CODE3"), ErrSelfReferral)
}

func TestApplyReferralCode_CapReached(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, 1)
	seedUser(t, repo, 2)
	ctx := context.Background()

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

	svc := NewReferralService(repo)
	assert.ErrorIs(t, svc.ApplyReferralCode(ctx, 2, "CODE1"), ErrReferrerCapReached)
}

func TestReferralStats(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, 1)
	seedUser(t, repo, 2)
	seedUser(t, repo, 3)
	ctx := context.Background()

	svc := NewReferralService(repo)
	require.NoError(t, svc.ApplyReferralCode(ctx, 2, "CODE1"))
	require.NoError(t, svc.ApplyReferralCode(ctx, 3, "CODE1"))

	// One of the two invitees has converted so far.
	_, err := repo.ApplyEntry(ctx, repository.LedgerWrite{
		UserID:    1,
		Amount:    model.ReferralRewardTokens,
		Kind:      model.EntryKindBonus,
		Reference: &model.Reference{Type: model.ReferenceReferralReward, ID: "2"},
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "CODE1", stats.Code)
	assert.Equal(t, 2, stats.TotalInvited)
	assert.Equal(t, 1, stats.Rewarded)
	assert.Equal(t, model.ReferralRewardTokens, stats.TokensEarned)
}
