package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is one connected wallet and its progression state.
// WalletAddress is always stored lowercase.
type User struct {
	ID            string `gorm:"primaryKey;size:36" json:"id"`
	WalletAddress string `gorm:"uniqueIndex;not null" json:"walletAddress"`
	Username      string `gorm:"not null" json:"username"`

	XP    int64 `gorm:"not null;default:0" json:"xp"`
	Level int   `gorm:"not null;default:1" json:"level"`

	TotalSwaps     int64   `gorm:"not null;default:0" json:"totalSwaps"`
	TotalVolumeUSD float64 `gorm:"not null;default:0" json:"totalVolumeUsd"`

	// LastSwapDate is a UTC midnight; nil until the first settlement.
	StreakDays   int        `gorm:"not null;default:0" json:"streakDays"`
	LastSwapDate *time.Time `json:"lastSwapDate,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// NewUser returns a user with zeroed counters at level 1.
func NewUser(walletAddress, username string) *User {
	return &User{
		ID:            uuid.NewString(),
		WalletAddress: walletAddress,
		Username:      username,
		Level:         1,
	}
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Level == 0 {
		u.Level = 1
	}
	return nil
}
