package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"shiftplay/models"
	"shiftplay/repository"
	"shiftplay/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func strPtr(s string) *string { return &s }

func TestUserLookupsAreCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore(t)

	user := models.NewUser("0xABCdef", "Player42")
	require.NoError(t, store.CreateUser(ctx, user))
	assert.Equal(t, "0xabcdef", user.WalletAddress)

	found, err := store.FindUserByWallet(ctx, "0xAbCdEf")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, 1, found.Level)

	_, err = store.FindUserByWallet(ctx, "0xmissing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.FindUserByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	dup := models.NewUser("0xabcdef", "Other")
	assert.Error(t, store.CreateUser(ctx, dup))
}

func TestFindUserByIDForUpdateInTransaction(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore(t)
	user := models.NewUser("0xlocked", "locked")
	require.NoError(t, store.CreateUser(ctx, user))

	err := store.Transaction(ctx, func(tx repository.Store) error {
		got, err := tx.FindUserByIDForUpdate(ctx, user.ID)
		require.NoError(t, err)
		got.XP = 77
		require.NoError(t, tx.SaveUser(ctx, got))

		_, err = tx.FindUserByIDForUpdate(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		return nil
	})
	require.NoError(t, err)

	got, err := store.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(77), got.XP)
}

func TestSaveUserPersistsProgression(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore(t)

	user := models.NewUser("0x1", "alice")
	require.NoError(t, store.CreateUser(ctx, user))

	day := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	user.XP = 1002
	user.Level = 2
	user.TotalSwaps = 2
	user.TotalVolumeUSD = 5020
	user.StreakDays = 2
	user.LastSwapDate = &day
	require.NoError(t, store.SaveUser(ctx, user))

	found, err := store.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1002), found.XP)
	assert.Equal(t, 2, found.Level)
	assert.Equal(t, 5020.0, found.TotalVolumeUSD)
	require.NotNil(t, found.LastSwapDate)
	assert.True(t, day.Equal(*found.LastSwapDate))
}

func TestFinalizeSwapOnlyOnce(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore(t)

	swap := &models.Swap{UserID: "u1", OrderID: strPtr("ord-1"), FromAsset: "BTC", ToAsset: "ETH", FromAmount: 0.1}
	require.NoError(t, store.CreateSwap(ctx, swap))
	assert.Equal(t, models.SwapStatusPending, swap.Status)

	now := time.Now()
	swap.Status = models.SwapStatusCompleted
	swap.XPEarned = 600
	swap.CompletedAt = &now

	ok, err := store.FinalizeSwap(ctx, swap)
	require.NoError(t, err)
	assert.True(t, ok)

	swap.XPEarned = 9999
	ok, err = store.FinalizeSwap(ctx, swap)
	require.NoError(t, err)
	assert.False(t, ok, "second finalize must not touch a terminal swap")

	found, err := store.FindSwapByOrderID(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, models.SwapStatusCompleted, found.Status)
	assert.Equal(t, int64(600), found.XPEarned)

	pending := &models.Swap{ID: "x", Status: models.SwapStatusPending}
	_, err = store.FinalizeSwap(ctx, pending)
	assert.Error(t, err)
}

func TestListPendingSwaps(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore(t)

	old := time.Now().Add(-10 * time.Minute)
	require.NoError(t, store.CreateSwap(ctx, &models.Swap{UserID: "u1", OrderID: strPtr("a"), FromAsset: "BTC", ToAsset: "ETH", FromAmount: 1, Timestamps: models.Timestamps{CreatedAt: old}}))
	require.NoError(t, store.CreateSwap(ctx, &models.Swap{UserID: "u1", FromAsset: "BTC", ToAsset: "ETH", FromAmount: 1, Timestamps: models.Timestamps{CreatedAt: old}}))
	require.NoError(t, store.CreateSwap(ctx, &models.Swap{UserID: "u1", OrderID: strPtr("b"), FromAsset: "BTC", ToAsset: "ETH", FromAmount: 1}))
	require.NoError(t, store.CreateSwap(ctx, &models.Swap{UserID: "u1", OrderID: strPtr("c"), FromAsset: "BTC", ToAsset: "ETH", FromAmount: 1, Status: models.SwapStatusFailed, Timestamps: models.Timestamps{CreatedAt: old}}))

	swaps, err := store.ListPendingSwaps(ctx, time.Now().Add(-time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, swaps, 1)
	assert.Equal(t, "a", *swaps[0].OrderID)

	all, err := store.ListSwapsByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRewardsListingAndSave(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore(t)

	base := time.Now().Add(-time.Hour)
	first := &models.Reward{UserID: "u1", Type: models.RewardTypeNFT, Name: "Bronze Swapper", Payload: datatypes.JSONMap{"level": 2}, CreatedAt: base}
	second := &models.Reward{UserID: "u1", Type: models.RewardTypeMysteryBox, Name: "Mystery Box", Payload: datatypes.JSONMap{"swapMilestone": 5}, CreatedAt: base.Add(time.Minute)}
	other := &models.Reward{UserID: "u2", Type: models.RewardTypeNFT, Name: "Week Warrior", CreatedAt: base}
	for _, r := range []*models.Reward{first, second, other} {
		require.NoError(t, store.CreateReward(ctx, r))
	}

	rewards, err := store.ListRewardsByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rewards, 2)
	assert.Equal(t, second.ID, rewards[0].ID)

	since, err := store.ListRewardsByUserSince(ctx, "u1", base)
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, "Mystery Box", since[0].Name)
	assert.EqualValues(t, 5, since[0].Payload["swapMilestone"])

	first.Claimed = true
	require.NoError(t, store.SaveReward(ctx, first))
	found, err := store.FindRewardByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, found.Claimed)

	_, err = store.FindRewardByID(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore(t)

	user := models.NewUser("0xroll", "bob")
	require.NoError(t, store.CreateUser(ctx, user))

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx repository.Store) error {
		user.XP = 500
		if err := tx.SaveUser(ctx, user); err != nil {
			return err
		}
		if err := tx.CreateReward(ctx, &models.Reward{UserID: user.ID, Type: models.RewardTypeNFT, Name: "x"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	found, err := store.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), found.XP)

	rewards, err := store.ListRewardsByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, rewards)
}

func TestListUsersInCreationOrder(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore(t)

	base := time.Now().Add(-time.Hour)
	for i, wallet := range []string{"0xc", "0xa", "0xb"} {
		u := models.NewUser(wallet, wallet)
		u.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, store.CreateUser(ctx, u))
	}

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, []string{"0xc", "0xa", "0xb"}, []string{users[0].WalletAddress, users[1].WalletAddress, users[2].WalletAddress})
}

func TestWithSQLiteTimeFormat(t *testing.T) {
	assert.Equal(t, "file:x.db?_time_format=sqlite", repository.WithSQLiteTimeFormatForTest("file:x.db"))
	assert.Equal(t, "file:x?mode=memory&_time_format=sqlite", repository.WithSQLiteTimeFormatForTest("file:x?mode=memory"))
	assert.Equal(t, "file:x?_time_format=sqlite", repository.WithSQLiteTimeFormatForTest("file:x?_time_format=sqlite"))
}
