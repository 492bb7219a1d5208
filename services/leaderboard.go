package services

import (
	"context"
	"sort"
	"strings"

	"shiftplay/models"
	"shiftplay/pkg/apperrors"
	"shiftplay/repository"
)

type LeaderboardMetric string

const (
	MetricXP          LeaderboardMetric = "xp"
	MetricTotalSwaps  LeaderboardMetric = "totalSwaps"
	MetricTotalVolume LeaderboardMetric = "totalVolumeUsd"
)

const LeaderboardSize = 10

// ParseLeaderboardMetric accepts the metric names case-insensitively; empty means xp.
func ParseLeaderboardMetric(s string) (LeaderboardMetric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xp":
		return MetricXP, nil
	case "totalswaps":
		return MetricTotalSwaps, nil
	case "totalvolumeusd":
		return MetricTotalVolume, nil
	}
	return "", apperrors.Validation("metric must be one of xp, totalSwaps, totalVolumeUsd")
}

func metricValue(u *models.User, metric LeaderboardMetric) float64 {
	switch metric {
	case MetricTotalSwaps:
		return float64(u.TotalSwaps)
	case MetricTotalVolume:
		return u.TotalVolumeUSD
	default:
		return float64(u.XP)
	}
}

// RankUsers sorts users descending by metric and keeps the first limit.
// Ties keep the input order, so callers pass users in creation order.
func RankUsers(users []models.User, metric LeaderboardMetric, limit int) []models.LeaderboardEntry {
	ranked := make([]models.User, len(users))
	copy(ranked, users)
	sort.SliceStable(ranked, func(i, j int) bool {
		return metricValue(&ranked[i], metric) > metricValue(&ranked[j], metric)
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	entries := make([]models.LeaderboardEntry, 0, len(ranked))
	for i := range ranked {
		u := &ranked[i]
		entries = append(entries, models.LeaderboardEntry{
			Rank:          i + 1,
			UserID:        u.ID,
			Username:      u.Username,
			WalletAddress: u.WalletAddress,
			Value:         metricValue(u, metric),
			Level:         u.Level,
		})
	}
	return entries
}

type LeaderboardService struct {
	Store repository.Store
}

func NewLeaderboardService(store repository.Store) *LeaderboardService {
	return &LeaderboardService{Store: store}
}

// Top recomputes the ranking from a fresh read of every user.
func (s *LeaderboardService) Top(ctx context.Context, metric LeaderboardMetric) ([]models.LeaderboardEntry, error) {
	users, err := s.Store.ListUsers(ctx)
	if err != nil {
		return nil, apperrors.Persistence("failed to load users", err)
	}
	return RankUsers(users, metric, LeaderboardSize), nil
}
