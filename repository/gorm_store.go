package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shiftplay/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Store = (*GormStore)(nil)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// SQLite compares timestamps as text, so every stored time is UTC.
func utc(t *time.Time) {
	if !t.IsZero() {
		*t = t.UTC()
	}
}

func (s *GormStore) FindUserByWallet(ctx context.Context, wallet string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("wallet_address = ?", strings.ToLower(wallet)).
		First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *GormStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *GormStore) FindUserByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	// SQLite has no row locks; its dialect drops the clause and the single connection serializes writers.
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	user.WalletAddress = strings.ToLower(user.WalletAddress)
	utc(&user.CreatedAt)
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *GormStore) SaveUser(ctx context.Context, user *models.User) error {
	user.WalletAddress = strings.ToLower(user.WalletAddress)
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	return users, err
}

func (s *GormStore) FindSwapByID(ctx context.Context, id string) (*models.Swap, error) {
	var swap models.Swap
	if err := s.db.WithContext(ctx).First(&swap, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &swap, nil
}

func (s *GormStore) FindSwapByOrderID(ctx context.Context, orderID string) (*models.Swap, error) {
	var swap models.Swap
	if err := s.db.WithContext(ctx).First(&swap, "order_id = ?", orderID).Error; err != nil {
		return nil, notFound(err)
	}
	return &swap, nil
}

func (s *GormStore) CreateSwap(ctx context.Context, swap *models.Swap) error {
	utc(&swap.CreatedAt)
	return s.db.WithContext(ctx).Create(swap).Error
}

func (s *GormStore) SaveSwap(ctx context.Context, swap *models.Swap) error {
	return s.db.WithContext(ctx).Save(swap).Error
}

func (s *GormStore) ListSwapsByUser(ctx context.Context, userID string) ([]models.Swap, error) {
	var swaps []models.Swap
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&swaps).Error
	return swaps, err
}

func (s *GormStore) ListPendingSwaps(ctx context.Context, olderThan time.Time, limit int) ([]models.Swap, error) {
	var swaps []models.Swap
	q := s.db.WithContext(ctx).
		Where("status = ? AND order_id IS NOT NULL AND created_at < ?", models.SwapStatusPending, olderThan.UTC()).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&swaps).Error
	return swaps, err
}

func (s *GormStore) FinalizeSwap(ctx context.Context, swap *models.Swap) (bool, error) {
	if swap.IsPending() {
		return false, fmt.Errorf("finalize swap %s: target status must be terminal", swap.ID)
	}
	result := s.db.WithContext(ctx).
		Model(&models.Swap{}).
		Where("id = ? AND status = ?", swap.ID, models.SwapStatusPending).
		Updates(map[string]interface{}{
			"status":       swap.Status,
			"xp_earned":    swap.XPEarned,
			"to_amount":    swap.ToAmount,
			"completed_at": swap.CompletedAt,
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *GormStore) CreateReward(ctx context.Context, reward *models.Reward) error {
	utc(&reward.CreatedAt)
	return s.db.WithContext(ctx).Create(reward).Error
}

func (s *GormStore) FindRewardByID(ctx context.Context, id string) (*models.Reward, error) {
	var reward models.Reward
	if err := s.db.WithContext(ctx).First(&reward, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &reward, nil
}

func (s *GormStore) ListRewardsByUser(ctx context.Context, userID string) ([]models.Reward, error) {
	var rewards []models.Reward
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rewards).Error
	return rewards, err
}

func (s *GormStore) ListRewardsByUserSince(ctx context.Context, userID string, since time.Time) ([]models.Reward, error) {
	var rewards []models.Reward
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at > ?", userID, since.UTC()).
		Order("created_at ASC").
		Find(&rewards).Error
	return rewards, err
}

func (s *GormStore) SaveReward(ctx context.Context, reward *models.Reward) error {
	return s.db.WithContext(ctx).Save(reward).Error
}

func (s *GormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
