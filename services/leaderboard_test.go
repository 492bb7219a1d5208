package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"shiftplay/models"
	"shiftplay/pkg/apperrors"
	"shiftplay/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rankedUser(name string, xp, swaps int64, volume float64) models.User {
	u := models.NewUser("0x"+name, name)
	u.XP = xp
	u.Level = int(xp/1000) + 1
	u.TotalSwaps = swaps
	u.TotalVolumeUSD = volume
	return *u
}

func TestRankUsersByMetric(t *testing.T) {
	users := []models.User{
		rankedUser("a", 500, 9, 10),
		rankedUser("b", 2500, 1, 300),
		rankedUser("c", 1200, 4, 9000),
	}

	byXP := RankUsers(users, MetricXP, LeaderboardSize)
	require.Len(t, byXP, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{byXP[0].Username, byXP[1].Username, byXP[2].Username})
	assert.Equal(t, 1, byXP[0].Rank)
	assert.Equal(t, 2500.0, byXP[0].Value)
	assert.Equal(t, 3, byXP[0].Level)
	assert.Equal(t, "0xb", byXP[0].WalletAddress)

	bySwaps := RankUsers(users, MetricTotalSwaps, LeaderboardSize)
	assert.Equal(t, "a", bySwaps[0].Username)
	assert.Equal(t, 9.0, bySwaps[0].Value)

	byVolume := RankUsers(users, MetricTotalVolume, LeaderboardSize)
	assert.Equal(t, "c", byVolume[0].Username)

	assert.Equal(t, "a", users[0].Username, "input is not reordered")
}

func TestRankUsersTruncatesWithDenseRanks(t *testing.T) {
	var users []models.User
	for i := 0; i < 25; i++ {
		users = append(users, rankedUser(fmt.Sprintf("u%02d", i), int64(i*100), 0, 0))
	}

	top := RankUsers(users, MetricXP, LeaderboardSize)
	require.Len(t, top, 10)
	for i, e := range top {
		assert.Equal(t, i+1, e.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, top[i-1].Value, e.Value)
		}
	}
	assert.Equal(t, "u24", top[0].Username)
}

func TestRankUsersTiesKeepInputOrder(t *testing.T) {
	users := []models.User{
		rankedUser("first", 100, 0, 0),
		rankedUser("top", 900, 0, 0),
		rankedUser("second", 100, 0, 0),
		rankedUser("third", 100, 0, 0),
	}
	top := RankUsers(users, MetricXP, LeaderboardSize)
	assert.Equal(t, []string{"top", "first", "second", "third"},
		[]string{top[0].Username, top[1].Username, top[2].Username, top[3].Username})
	assert.Equal(t, []int{1, 2, 3, 4}, []int{top[0].Rank, top[1].Rank, top[2].Rank, top[3].Rank})
}

func TestParseLeaderboardMetric(t *testing.T) {
	for in, want := range map[string]LeaderboardMetric{
		"":               MetricXP,
		"xp":             MetricXP,
		"totalSwaps":     MetricTotalSwaps,
		"TOTALVOLUMEUSD": MetricTotalVolume,
	} {
		got, err := ParseLeaderboardMetric(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseLeaderboardMetric("streak")
	assert.True(t, apperrors.IsValidation(err))
}

func TestLeaderboardServiceTop(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore(t)
	base := time.Now().Add(-time.Hour)
	for i, xp := range []int64{300, 1500, 800} {
		u := models.NewUser(fmt.Sprintf("0x%d", i), fmt.Sprintf("p%d", i))
		u.XP = xp
		u.Level = int(xp/1000) + 1
		u.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, store.CreateUser(ctx, u))
	}

	top, err := NewLeaderboardService(store).Top(ctx, MetricXP)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "p1", top[0].Username)
	assert.Equal(t, 2, top[0].Level)
	assert.Equal(t, "p0", top[2].Username)
}
