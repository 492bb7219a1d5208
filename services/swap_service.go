package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"shiftplay/models"
	"shiftplay/pkg/apperrors"
	"shiftplay/pkg/logger"
	"shiftplay/repository"

	"github.com/sirupsen/logrus"
)

// Gateway is the subset of the swap provider API the service relies on.
type Gateway interface {
	Coins(ctx context.Context) (json.RawMessage, error)
	Pairs(ctx context.Context) (json.RawMessage, error)
	RequestQuote(ctx context.Context, req QuoteRequest) (*Quote, error)
	CreateFixedOrder(ctx context.Context, quoteID, settleAddress string) (*Order, error)
	GetOrder(ctx context.Context, orderID string) (*Order, error)
}

type PlaceOrderRequest struct {
	UserWallet    string `json:"userWallet"`
	UserID        string `json:"userId"`
	QuoteID       string `json:"quoteId"`
	SettleAddress string `json:"settleAddress"`
}

type SwapService struct {
	Store   repository.Store
	Gateway Gateway
}

func NewSwapService(store repository.Store, gateway Gateway) *SwapService {
	return &SwapService{Store: store, Gateway: gateway}
}

func (s *SwapService) Coins(ctx context.Context) (json.RawMessage, error) {
	return s.Gateway.Coins(ctx)
}

func (s *SwapService) Pairs(ctx context.Context) (json.RawMessage, error) {
	return s.Gateway.Pairs(ctx)
}

func (s *SwapService) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	req.DepositCoin = strings.TrimSpace(req.DepositCoin)
	req.SettleCoin = strings.TrimSpace(req.SettleCoin)
	if req.DepositCoin == "" || req.SettleCoin == "" {
		return nil, apperrors.Validation("depositCoin and settleCoin are required")
	}
	amount, err := ParseAmount(req.DepositAmount)
	if err != nil || !amount.IsPositive() {
		return nil, apperrors.Validation("depositAmount must be a positive decimal")
	}
	req.DepositAmount = amount.String()
	return s.Gateway.RequestQuote(ctx, req)
}

// PlaceOrder confirms a quote with the gateway and records a pending swap for
// the user. The user is resolved first so an unknown user never creates a
// gateway order.
func (s *SwapService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, *models.Swap, error) {
	if strings.TrimSpace(req.QuoteID) == "" || strings.TrimSpace(req.SettleAddress) == "" {
		return nil, nil, apperrors.Validation("quoteId and settleAddress are required")
	}

	user, err := s.resolveOwner(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	order, err := s.Gateway.CreateFixedOrder(ctx, strings.TrimSpace(req.QuoteID), strings.TrimSpace(req.SettleAddress))
	if err != nil {
		return nil, nil, err
	}
	if order.ID == "" {
		return nil, nil, apperrors.Upstream("Failed to create order", errors.New("gateway returned an order without id"))
	}

	// The deposit amount prices the swap at settlement; a swap without one cannot earn XP correctly.
	deposit, err := ParseAmount(order.DepositAmount)
	if err != nil || !deposit.IsPositive() {
		logger.WithFields(logrus.Fields{"order_id": order.ID, "user_id": user.ID}).
			Errorf("❌ gateway order has unusable depositAmount %q, swap not recorded", order.DepositAmount)
		return nil, nil, apperrors.Upstream("Failed to create order", fmt.Errorf("gateway returned depositAmount %q", order.DepositAmount))
	}

	orderID := order.ID
	swap := &models.Swap{
		UserID:    user.ID,
		OrderID:   &orderID,
		FromAsset: order.DepositCoin,
		ToAsset:   order.SettleCoin,
		Status:    models.SwapStatusPending,
	}
	swap.FromAmount, _ = deposit.Float64()
	if amt, err := ParseAmount(order.SettleAmount); err == nil {
		f, _ := amt.Float64()
		swap.ToAmount = &f
	}

	if err := s.Store.CreateSwap(ctx, swap); err != nil {
		logger.WithFields(logrus.Fields{"order_id": order.ID, "user_id": user.ID}).
			Errorf("❌ gateway order created but swap not recorded: %v", err)
		return nil, nil, apperrors.Persistence("failed to record swap", err)
	}

	logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"swap_id":  swap.ID,
		"user_id":  user.ID,
		"from":     swap.FromAsset,
		"to":       swap.ToAsset,
	}).Info("[GATEWAY] order placed")
	return order, swap, nil
}

func (s *SwapService) resolveOwner(ctx context.Context, req PlaceOrderRequest) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	switch {
	case strings.TrimSpace(req.UserID) != "":
		user, err = s.Store.FindUserByID(ctx, strings.TrimSpace(req.UserID))
	case strings.TrimSpace(req.UserWallet) != "":
		user, err = s.Store.FindUserByWallet(ctx, NormalizeWallet(req.UserWallet))
	default:
		return nil, apperrors.Validation("userId or userWallet is required")
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Validation("User not found")
	}
	if err != nil {
		return nil, apperrors.Persistence("failed to load user", err)
	}
	return user, nil
}

func (s *SwapService) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, apperrors.Validation("order id is required")
	}
	return s.Gateway.GetOrder(ctx, orderID)
}
