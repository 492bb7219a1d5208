package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"shiftplay/models"
	"shiftplay/pkg/apperrors"
	"shiftplay/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestClaimReward(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore(t)
	svc := NewRewardService(store)
	claimedAt := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return claimedAt }

	reward := &models.Reward{UserID: "u1", Type: models.RewardTypeNFT, Name: "Week Warrior", Payload: datatypes.JSONMap{"streakDays": 7}}
	require.NoError(t, store.CreateReward(ctx, reward))

	got, err := svc.Claim(ctx, reward.ID)
	require.NoError(t, err)
	assert.True(t, got.Claimed)
	require.NotNil(t, got.ClaimedAt)

	stored, err := store.FindRewardByID(ctx, reward.ID)
	require.NoError(t, err)
	assert.True(t, stored.Claimed)

	// Second claim succeeds without touching the record.
	svc.Now = func() time.Time { return claimedAt.Add(time.Hour) }
	again, err := svc.Claim(ctx, reward.ID)
	require.NoError(t, err)
	assert.True(t, again.Claimed)
	assert.True(t, claimedAt.Equal(*again.ClaimedAt))
}

func TestClaimRewardNotFound(t *testing.T) {
	svc := NewRewardService(repotest.NewStore(t))

	_, err := svc.Claim(context.Background(), "0b6f7a8e-0000-4000-8000-000000000000")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Claim(context.Background(), " ")
	assert.True(t, apperrors.IsValidation(err))
}

func TestListForUserNeverNil(t *testing.T) {
	rewards, err := NewRewardService(repotest.NewStore(t)).ListForUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, rewards)
	assert.Empty(t, rewards)
}

func TestRewardsSinceAdvancesCursor(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore(t)
	svc := NewRewardService(store)

	opened := time.Now().Add(-time.Minute)
	require.NoError(t, store.CreateReward(ctx, &models.Reward{UserID: "u1", Type: models.RewardTypeNFT, Name: "old", CreatedAt: opened.Add(-time.Hour)}))
	fresh := &models.Reward{UserID: "u1", Type: models.RewardTypeMysteryBox, Name: "Mystery Box", CreatedAt: opened.Add(time.Second)}
	require.NoError(t, store.CreateReward(ctx, fresh))

	rewards, cursor, err := svc.rewardsSince(ctx, "u1", opened)
	require.NoError(t, err)
	require.Len(t, rewards, 1)
	assert.Equal(t, fresh.ID, rewards[0].ID)
	assert.True(t, cursor.After(opened))

	rewards, next, err := svc.rewardsSince(ctx, "u1", cursor)
	require.NoError(t, err)
	assert.Empty(t, rewards)
	assert.True(t, next.Equal(cursor))
}

func TestWriteRewardEvents(t *testing.T) {
	var buf strings.Builder
	err := writeRewardEvents(&buf, []models.Reward{{ID: "r1", Name: "Week Warrior"}, {ID: "r2", Name: "Mystery Box"}})
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "event: reward\n"))
	assert.Contains(t, out, `"id":"r1"`)
	assert.True(t, strings.HasSuffix(out, "\n\n"))
}
