package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SwapStatus string

const (
	SwapStatusPending   SwapStatus = "pending"
	SwapStatusCompleted SwapStatus = "completed"
	SwapStatusFailed    SwapStatus = "failed"
)

// Swap is one order placed through the gateway. Status leaves pending exactly once.
type Swap struct {
	ID     string  `gorm:"primaryKey;size:36" json:"id"`
	UserID string  `gorm:"index;not null" json:"userId"`
	// OrderID is the gateway's shift id; nil until the gateway assigns one.
	OrderID *string `gorm:"uniqueIndex" json:"orderId,omitempty"`

	FromAsset  string   `gorm:"not null" json:"fromAsset"`
	ToAsset    string   `gorm:"not null" json:"toAsset"`
	FromAmount float64  `gorm:"not null" json:"fromAmount"`
	ToAmount   *float64 `json:"toAmount,omitempty"`

	Status      SwapStatus `gorm:"index;not null;default:'pending'" json:"status"`
	XPEarned    int64      `gorm:"not null;default:0" json:"xpEarned"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	Timestamps
}

func (s *Swap) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = SwapStatusPending
	}
	return nil
}

func (s *Swap) IsPending() bool {
	return s.Status == SwapStatusPending
}
