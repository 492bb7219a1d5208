package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shiftplay/metrics"
	"shiftplay/models"
	"shiftplay/pkg/apperrors"
	"shiftplay/pkg/logger"
	"shiftplay/repository"

	"github.com/sirupsen/logrus"
)

// Notification is a settlement callback (or a polled status) for one gateway order.
type Notification struct {
	OrderID string
	Status  string
	// SettleAmount is the gateway's decimal string for the destination amount, if known.
	SettleAmount string
	// SettledAt is when the gateway reached the status, if known. Zero means now.
	SettledAt time.Time
}

type SettlementOutcome string

const (
	OutcomeIgnored      SettlementOutcome = "ignored"
	OutcomeUnmatched    SettlementOutcome = "unmatched"
	OutcomeAlreadyFinal SettlementOutcome = "already_final"
	OutcomeCompleted    SettlementOutcome = "completed"
	OutcomeFailed       SettlementOutcome = "failed"
)

type SettlementResult struct {
	Outcome  SettlementOutcome
	Swap     *models.Swap
	User     *models.User
	XPEarned int64
	Rewards  []models.Reward
}

var errSwapRaced = errors.New("swap left pending state during settlement")

// TerminalStatus maps a gateway status to the swap status it settles into.
// Intermediate or unknown statuses return false.
func TerminalStatus(gatewayStatus string) (models.SwapStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(gatewayStatus)) {
	case "settled", "completed":
		return models.SwapStatusCompleted, true
	case "failed", "rejected":
		return models.SwapStatusFailed, true
	}
	return "", false
}

// SettlementService applies settlement notifications to swaps, users and rewards.
// Each notification is applied at most once per swap.
type SettlementService struct {
	Store  repository.Store
	Engine *Engine
	Pricer Pricer
	Now    func() time.Time

	locks *keyedMutex
}

func NewSettlementService(store repository.Store, engine *Engine, pricer Pricer) *SettlementService {
	return &SettlementService{
		Store:  store,
		Engine: engine,
		Pricer: pricer,
		Now:    time.Now,
		locks:  newKeyedMutex(),
	}
}

func (s *SettlementService) HandleNotification(ctx context.Context, n Notification) (*SettlementResult, error) {
	orderID := strings.TrimSpace(n.OrderID)
	if orderID == "" {
		return nil, apperrors.Validation("order id is required")
	}

	target, ok := TerminalStatus(n.Status)
	if !ok {
		return s.finish(&SettlementResult{Outcome: OutcomeIgnored}, orderID), nil
	}

	swap, err := s.Store.FindSwapByOrderID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return s.finish(&SettlementResult{Outcome: OutcomeUnmatched}, orderID), nil
	}
	if err != nil {
		return nil, apperrors.Persistence("failed to load swap", err)
	}
	if !swap.IsPending() {
		return s.finish(&SettlementResult{Outcome: OutcomeAlreadyFinal, Swap: swap}, orderID), nil
	}

	unlock := s.locks.Lock(swap.UserID)
	defer unlock()

	result := &SettlementResult{}
	err = s.Store.Transaction(ctx, func(tx repository.Store) error {
		current, err := tx.FindSwapByID(ctx, swap.ID)
		if err != nil {
			return fmt.Errorf("reload swap: %w", err)
		}
		result.Swap = current
		if !current.IsPending() {
			result.Outcome = OutcomeAlreadyFinal
			return nil
		}
		if target == models.SwapStatusFailed {
			return s.fail(ctx, tx, current, result)
		}
		return s.complete(ctx, tx, current, n, result)
	})
	if errors.Is(err, errSwapRaced) {
		return s.finish(&SettlementResult{Outcome: OutcomeAlreadyFinal, Swap: swap}, orderID), nil
	}
	if err != nil {
		metrics.RecordSettlement("error")
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.Persistence("settlement failed", err)
	}

	for _, r := range result.Rewards {
		metrics.RecordReward(string(r.Type))
	}
	return s.finish(result, orderID), nil
}

func (s *SettlementService) complete(ctx context.Context, tx repository.Store, swap *models.Swap, n Notification, result *SettlementResult) error {
	// The row lock covers other instances; s.locks only covers this process.
	user, err := tx.FindUserByIDForUpdate(ctx, swap.UserID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", swap.UserID, err)
	}

	volume, err := s.Pricer.USDVolume(swap.FromAsset, swap.FromAmount)
	if err != nil {
		return apperrors.Invalid("cannot price swap", err)
	}

	now := s.settledAt(n)
	out, err := s.Engine.Apply(user, SettlementEvent{VolumeUSD: volume, SettledAt: now})
	if err != nil {
		return apperrors.Invalid("cannot apply settlement", err)
	}

	if err := tx.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	for i := range out.Rewards {
		if err := tx.CreateReward(ctx, &out.Rewards[i]); err != nil {
			return fmt.Errorf("create reward: %w", err)
		}
	}

	swap.Status = models.SwapStatusCompleted
	swap.XPEarned = out.XPEarned
	swap.CompletedAt = &now
	if n.SettleAmount != "" {
		if amt, err := ParseAmount(n.SettleAmount); err == nil {
			f, _ := amt.Float64()
			swap.ToAmount = &f
		}
	}
	if err := s.finalize(ctx, tx, swap); err != nil {
		return err
	}

	result.Outcome = OutcomeCompleted
	result.User = user
	result.XPEarned = out.XPEarned
	result.Rewards = out.Rewards
	return nil
}

// settledAt prefers the gateway's timestamp so a late poll still counts the
// calendar day the swap actually settled. Future timestamps are clamped.
func (s *SettlementService) settledAt(n Notification) time.Time {
	now := s.Now()
	if n.SettledAt.IsZero() || n.SettledAt.After(now) {
		return now
	}
	return n.SettledAt
}

func (s *SettlementService) fail(ctx context.Context, tx repository.Store, swap *models.Swap, result *SettlementResult) error {
	swap.Status = models.SwapStatusFailed
	if err := s.finalize(ctx, tx, swap); err != nil {
		return err
	}
	result.Outcome = OutcomeFailed
	return nil
}

func (s *SettlementService) finalize(ctx context.Context, tx repository.Store, swap *models.Swap) error {
	ok, err := tx.FinalizeSwap(ctx, swap)
	if err != nil {
		return fmt.Errorf("finalize swap: %w", err)
	}
	if !ok {
		return errSwapRaced
	}
	return nil
}

func (s *SettlementService) finish(result *SettlementResult, orderID string) *SettlementResult {
	metrics.RecordSettlement(string(result.Outcome))

	fields := logrus.Fields{"order_id": orderID, "outcome": result.Outcome}
	if result.Swap != nil {
		fields["swap_id"] = result.Swap.ID
		fields["user_id"] = result.Swap.UserID
	}
	switch result.Outcome {
	case OutcomeCompleted:
		fields["xp_earned"] = result.XPEarned
		fields["rewards"] = len(result.Rewards)
		fields["level"] = result.User.Level
		logger.WithFields(fields).Info("[SETTLEMENT] ✅ swap completed")
	case OutcomeFailed:
		logger.WithFields(fields).Info("[SETTLEMENT] ❌ swap failed")
	default:
		logger.WithFields(fields).Debug("[SETTLEMENT] nothing to apply")
	}
	return result
}
