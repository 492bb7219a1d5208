package workers

import (
	"context"
	"fmt"
	"time"

	"shiftplay/models"
	"shiftplay/pkg/logger"
	"shiftplay/repository"
	"shiftplay/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

type OrderStatusSource interface {
	GetOrder(ctx context.Context, orderID string) (*services.Order, error)
}

type Settler interface {
	HandleNotification(ctx context.Context, n services.Notification) (*services.SettlementResult, error)
}

// OrderSyncWorker polls the gateway for swaps that stayed pending past
// MinAge and feeds their status through the normal settlement path, so a
// lost webhook cannot strand a swap.
type OrderSyncWorker struct {
	store     repository.Store
	gateway   OrderStatusSource
	settler   Settler
	interval  time.Duration
	minAge    time.Duration
	batchSize int
	now       func() time.Time

	scheduler gocron.Scheduler
}

func NewOrderSyncWorker(store repository.Store, gateway OrderStatusSource, settler Settler, interval, minAge time.Duration) *OrderSyncWorker {
	return &OrderSyncWorker{
		store:     store,
		gateway:   gateway,
		settler:   settler,
		interval:  interval,
		minAge:    minAge,
		batchSize: 50,
		now:       time.Now,
	}
}

// Start schedules SyncOnce every interval. Runs never overlap.
func (w *OrderSyncWorker) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("order sync scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), w.interval)
			defer cancel()
			if _, err := w.SyncOnce(ctx); err != nil {
				logger.Errorf("[ORDER_SYNC] ❌ sync failed: %v", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("order sync job: %w", err)
	}

	w.scheduler = sched
	sched.Start()
	logger.Infof("🔁 [ORDER_SYNC] polling pending swaps every %s (min age %s)", w.interval, w.minAge)
	return nil
}

func (w *OrderSyncWorker) Stop() error {
	if w.scheduler == nil {
		return nil
	}
	return w.scheduler.Shutdown()
}

// SyncOnce checks one batch of stale pending swaps and returns how many
// reached a terminal state. Gateway errors skip the swap until the next run.
func (w *OrderSyncWorker) SyncOnce(ctx context.Context) (int, error) {
	swaps, err := w.store.ListPendingSwaps(ctx, w.now().Add(-w.minAge), w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending swaps: %w", err)
	}
	if len(swaps) == 0 {
		return 0, nil
	}
	logger.Debugf("[ORDER_SYNC] checking %d pending swap(s)", len(swaps))

	finalized := 0
	for _, swap := range swaps {
		if ctx.Err() != nil {
			return finalized, ctx.Err()
		}
		if swap.OrderID == nil {
			continue
		}
		if w.syncSwap(ctx, swap) {
			finalized++
		}
	}
	return finalized, nil
}

func (w *OrderSyncWorker) syncSwap(ctx context.Context, swap models.Swap) bool {
	log := logger.WithFields(logrus.Fields{"order_id": *swap.OrderID, "swap_id": swap.ID})

	order, err := w.gateway.GetOrder(ctx, *swap.OrderID)
	if err != nil {
		log.Warnf("[ORDER_SYNC] status lookup failed: %v", err)
		return false
	}

	res, err := w.settler.HandleNotification(ctx, services.Notification{
		OrderID:      *swap.OrderID,
		Status:       order.Status,
		SettleAmount: order.SettleAmount,
		SettledAt:    order.StatusTime(),
	})
	if err != nil {
		log.Errorf("[ORDER_SYNC] settlement failed: %v", err)
		return false
	}
	return res.Outcome == services.OutcomeCompleted || res.Outcome == services.OutcomeFailed
}
