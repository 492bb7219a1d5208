package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"shiftplay/models"
	"shiftplay/pkg/apperrors"
	"shiftplay/pkg/logger"
	"shiftplay/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type UserService struct {
	Store repository.Store
}

func NewUserService(store repository.Store) *UserService {
	return &UserService{Store: store}
}

// NormalizeWallet is the canonical (trimmed, lowercase) form of a wallet address.
func NormalizeWallet(wallet string) string {
	return strings.ToLower(strings.TrimSpace(wallet))
}

func defaultUsername() string {
	return fmt.Sprintf("Player%d", rand.Intn(10000))
}

// Connect finds the user for a wallet or creates one with zeroed counters.
// created reports whether a new record was written.
func (s *UserService) Connect(ctx context.Context, wallet, username string) (user *models.User, created bool, err error) {
	wallet = NormalizeWallet(wallet)
	if wallet == "" {
		return nil, false, apperrors.Validation("walletAddress is required")
	}

	user, err = s.Store.FindUserByWallet(ctx, wallet)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, apperrors.Persistence("failed to look up wallet", err)
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username = defaultUsername()
	}
	user = models.NewUser(wallet, username)
	if err := s.Store.CreateUser(ctx, user); err != nil {
		// A concurrent connect for the same wallet won the unique index.
		if existing, findErr := s.Store.FindUserByWallet(ctx, wallet); findErr == nil {
			return existing, false, nil
		}
		return nil, false, apperrors.Persistence("failed to create user", err)
	}

	logger.WithFields(logrus.Fields{"user_id": user.ID, "wallet": wallet}).Info("👤 new user connected")
	return user, true, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.Store.FindUserByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		return nil, apperrors.Persistence("failed to load user", err)
	}
	return user, nil
}

// Resolve accepts either a user id or a wallet address.
func (s *UserService) Resolve(ctx context.Context, idOrWallet string) (*models.User, error) {
	key := strings.TrimSpace(idOrWallet)
	if key == "" {
		return nil, apperrors.Validation("user id or wallet address is required")
	}

	var (
		user *models.User
		err  error
	)
	if _, parseErr := uuid.Parse(key); parseErr == nil {
		user, err = s.Store.FindUserByID(ctx, key)
	} else {
		user, err = s.Store.FindUserByWallet(ctx, NormalizeWallet(key))
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		return nil, apperrors.Persistence("failed to load user", err)
	}
	return user, nil
}

// ListSwaps returns the user's swaps newest first; an unknown user has none.
func (s *UserService) ListSwaps(ctx context.Context, idOrWallet string) ([]models.Swap, error) {
	user, err := s.Resolve(ctx, idOrWallet)
	if apperrors.IsNotFound(err) {
		return []models.Swap{}, nil
	}
	if err != nil {
		return nil, err
	}
	swaps, err := s.Store.ListSwapsByUser(ctx, user.ID)
	if err != nil {
		return nil, apperrors.Persistence("failed to fetch swaps", err)
	}
	if swaps == nil {
		swaps = []models.Swap{}
	}
	return swaps, nil
}

// ListRewards returns the user's rewards newest first; an unknown user has none.
func (s *UserService) ListRewards(ctx context.Context, idOrWallet string) ([]models.Reward, error) {
	user, err := s.Resolve(ctx, idOrWallet)
	if apperrors.IsNotFound(err) {
		return []models.Reward{}, nil
	}
	if err != nil {
		return nil, err
	}
	rewards, err := s.Store.ListRewardsByUser(ctx, user.ID)
	if err != nil {
		return nil, apperrors.Persistence("failed to fetch rewards", err)
	}
	if rewards == nil {
		rewards = []models.Reward{}
	}
	return rewards, nil
}
