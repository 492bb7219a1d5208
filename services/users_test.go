package services

import (
	"context"
	"regexp"
	"testing"

	"shiftplay/models"
	"shiftplay/pkg/apperrors"
	"shiftplay/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectCreatesThenFinds(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(repotest.NewStore(t))

	user, created, err := svc.Connect(ctx, "  0xAbC123 ", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "0xabc123", user.WalletAddress)
	assert.Regexp(t, regexp.MustCompile(`^Player\d{1,4}$`), user.Username)
	assert.Equal(t, 1, user.Level)
	assert.Zero(t, user.XP)
	assert.Zero(t, user.StreakDays)
	assert.Nil(t, user.LastSwapDate)

	again, created, err := svc.Connect(ctx, "0XABC123", "ignored")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, user.Username, again.Username)

	named, _, err := svc.Connect(ctx, "0xdef", "satoshi")
	require.NoError(t, err)
	assert.Equal(t, "satoshi", named.Username)

	_, _, err = svc.Connect(ctx, "   ", "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestResolveByIDOrWallet(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(repotest.NewStore(t))
	user, _, err := svc.Connect(ctx, "0xfeed", "")
	require.NoError(t, err)

	byID, err := svc.Resolve(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byID.ID)

	byWallet, err := svc.Resolve(ctx, "0xFEED")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byWallet.ID)

	_, err = svc.Resolve(ctx, "0xmissing")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Get(ctx, "4d3c2b1a-0000-4000-8000-000000000000")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListsForUnknownUserAreEmpty(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore(t)
	svc := NewUserService(store)

	swaps, err := svc.ListSwaps(ctx, "0xnobody")
	require.NoError(t, err)
	assert.Equal(t, []models.Swap{}, swaps)

	rewards, err := svc.ListRewards(ctx, "0xnobody")
	require.NoError(t, err)
	assert.Equal(t, []models.Reward{}, rewards)

	user, _, err := svc.Connect(ctx, "0xsomebody", "")
	require.NoError(t, err)
	orderID := "ord-1"
	require.NoError(t, store.CreateSwap(ctx, &models.Swap{UserID: user.ID, OrderID: &orderID, FromAsset: "BTC", ToAsset: "ETH", FromAmount: 0.1}))

	swaps, err = svc.ListSwaps(ctx, "0xSOMEBODY")
	require.NoError(t, err)
	require.Len(t, swaps, 1)
	assert.Equal(t, "ord-1", *swaps[0].OrderID)
}
