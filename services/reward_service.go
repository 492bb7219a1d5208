package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"shiftplay/models"
	"shiftplay/pkg/apperrors"
	"shiftplay/pkg/logger"
	"shiftplay/repository"

	"github.com/sirupsen/logrus"
)

type RewardService struct {
	Store              repository.Store
	Now                func() time.Time
	StreamPollInterval time.Duration
}

func NewRewardService(store repository.Store) *RewardService {
	return &RewardService{
		Store:              store,
		Now:                time.Now,
		StreamPollInterval: DefaultStreamPollInterval,
	}
}

// Claim marks a reward claimed. Claiming an already-claimed reward returns
// it unchanged.
func (s *RewardService) Claim(ctx context.Context, rewardID string) (*models.Reward, error) {
	rewardID = strings.TrimSpace(rewardID)
	if rewardID == "" {
		return nil, apperrors.Validation("reward id is required")
	}

	reward, err := s.Store.FindRewardByID(ctx, rewardID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Reward not found")
	}
	if err != nil {
		return nil, apperrors.Persistence("failed to load reward", err)
	}
	if reward.Claimed {
		return reward, nil
	}

	now := s.Now()
	reward.Claimed = true
	reward.ClaimedAt = &now
	if err := s.Store.SaveReward(ctx, reward); err != nil {
		return nil, apperrors.Persistence("failed to claim reward", err)
	}

	logger.WithFields(logrus.Fields{
		"reward_id": reward.ID,
		"user_id":   reward.UserID,
		"name":      reward.Name,
	}).Info("🎁 reward claimed")
	return reward, nil
}

// ListForUser returns a user's rewards, newest first.
func (s *RewardService) ListForUser(ctx context.Context, userID string) ([]models.Reward, error) {
	rewards, err := s.Store.ListRewardsByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Persistence("failed to fetch rewards", err)
	}
	if rewards == nil {
		rewards = []models.Reward{}
	}
	return rewards, nil
}
