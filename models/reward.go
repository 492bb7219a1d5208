package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RewardType is the closed set of grant kinds.
type RewardType string

const (
	RewardTypeNFT        RewardType = "nft"
	RewardTypeBonusXP    RewardType = "bonus_xp"
	RewardTypeMysteryBox RewardType = "mystery_box"
)

// Reward is created only by settlement. Claimed is the one user-mutable field.
type Reward struct {
	ID     string     `gorm:"primaryKey;size:36" json:"id"`
	UserID string     `gorm:"index;not null" json:"userId"`
	Type   RewardType `gorm:"not null" json:"type"`
	Name   string     `gorm:"not null" json:"name"`
	// Slug keys the reward artwork, e.g. "bronze-swapper".
	Slug    string            `gorm:"index" json:"slug"`
	Payload datatypes.JSONMap `json:"payload"`

	Claimed   bool       `gorm:"not null;default:false" json:"claimed"`
	ClaimedAt *time.Time `json:"claimedAt,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Reward) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
