// Package repository is the persistence boundary for users, swaps and rewards.
package repository

import (
	"context"
	"errors"
	"time"

	"shiftplay/models"
)

// ErrNotFound is returned by every keyed lookup that matches no row.
var ErrNotFound = errors.New("record not found")

// Store is everything the services need from persistence. Wallet addresses
// are expected lowercase; implementations lowercase them again on the way in.
type Store interface {
	FindUserByWallet(ctx context.Context, wallet string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	// FindUserByIDForUpdate reads the user with a row lock (SELECT ... FOR UPDATE)
	// held until the surrounding transaction ends. Only meaningful inside Transaction.
	FindUserByIDForUpdate(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	SaveUser(ctx context.Context, user *models.User) error
	// ListUsers returns every user in creation order.
	ListUsers(ctx context.Context) ([]models.User, error)

	FindSwapByID(ctx context.Context, id string) (*models.Swap, error)
	FindSwapByOrderID(ctx context.Context, orderID string) (*models.Swap, error)
	CreateSwap(ctx context.Context, swap *models.Swap) error
	SaveSwap(ctx context.Context, swap *models.Swap) error
	ListSwapsByUser(ctx context.Context, userID string) ([]models.Swap, error)
	// ListPendingSwaps returns pending swaps with an order id created before olderThan, oldest first.
	ListPendingSwaps(ctx context.Context, olderThan time.Time, limit int) ([]models.Swap, error)
	// FinalizeSwap writes the swap's terminal state only if the stored row is
	// still pending. It reports false when another settlement got there first.
	FinalizeSwap(ctx context.Context, swap *models.Swap) (bool, error)

	CreateReward(ctx context.Context, reward *models.Reward) error
	FindRewardByID(ctx context.Context, id string) (*models.Reward, error)
	ListRewardsByUser(ctx context.Context, userID string) ([]models.Reward, error)
	// ListRewardsByUserSince returns rewards created strictly after since, oldest first.
	ListRewardsByUserSince(ctx context.Context, userID string, since time.Time) ([]models.Reward, error)
	SaveReward(ctx context.Context, reward *models.Reward) error

	// Transaction runs fn against a Store bound to one database transaction.
	// A non-nil error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(Store) error) error
}
