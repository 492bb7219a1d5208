package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"shiftplay/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
)

// ProgressionRules holds the tunable constants of the XP/level/reward rules.
type ProgressionRules struct {
	XPPerLevel            int64
	BaseXP                int64
	VolumeDivisor         float64 // 1 XP per this many USD
	StreakBonusThreshold  int
	StreakBonusMultiplier float64
	MysteryBoxEvery       int64
	WeekWarriorStreak     int
}

var DefaultProgressionRules = ProgressionRules{
	XPPerLevel:            1000,
	BaseXP:                100,
	VolumeDivisor:         10,
	StreakBonusThreshold:  3,
	StreakBonusMultiplier: 1.5,
	MysteryBoxEvery:       5,
	WeekWarriorStreak:     7,
}

const (
	MysteryBoxName  = "Mystery Box"
	WeekWarriorName = "Week Warrior"
)

// Tier thresholds: a level below MaxLevel belongs to the tier.
var levelTiers = []struct {
	MaxLevel   int
	Tier       string
	RewardName string
}{
	{5, "Bronze", "Bronze Swapper"},
	{10, "Silver", "Silver Trader"},
	{20, "Gold", "Gold Master"},
	{30, "Platinum", "Platinum Elite"},
}

const (
	topTier       = "Diamond"
	topRewardName = "Diamond Legend"
)

// LevelTier returns the cosmetic tier for a level.
func LevelTier(level int) string {
	for _, t := range levelTiers {
		if level < t.MaxLevel {
			return t.Tier
		}
	}
	return topTier
}

// LevelRewardName returns the collectible granted on reaching level.
func LevelRewardName(level int) string {
	for _, t := range levelTiers {
		if level < t.MaxLevel {
			return t.RewardName
		}
	}
	return topRewardName
}

var ErrInvalidVolume = errors.New("swap volume must be a finite, non-negative number")

// SettlementEvent is one settled swap as the engine sees it.
type SettlementEvent struct {
	VolumeUSD float64
	SettledAt time.Time
}

// Outcome is what a single settlement did to a user.
type Outcome struct {
	XPEarned      int64
	LeveledUp     bool
	PreviousLevel int
	Rewards       []models.Reward
}

// Engine applies settlements to in-memory users. It never touches storage;
// callers load the user before Apply and persist it with the rewards after.
type Engine struct {
	Rules ProgressionRules
}

func NewEngine(rules ProgressionRules) *Engine {
	return &Engine{Rules: rules}
}

// LevelForXP is floor(xp / XPPerLevel) + 1.
func (e *Engine) LevelForXP(xp int64) int {
	if xp < 0 {
		xp = 0
	}
	return int(xp/e.Rules.XPPerLevel) + 1
}

// Apply mutates user for one settled swap and returns the XP it earned plus
// any newly granted rewards. On error the user is left untouched.
func (e *Engine) Apply(user *models.User, ev SettlementEvent) (*Outcome, error) {
	if user == nil {
		return nil, errors.New("progression: nil user")
	}
	if math.IsNaN(ev.VolumeUSD) || math.IsInf(ev.VolumeUSD, 0) || ev.VolumeUSD < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVolume, ev.VolumeUSD)
	}

	prevStreak := user.StreakDays
	e.updateStreak(user, ev.SettledAt)

	xp := e.Rules.BaseXP + int64(math.Floor(ev.VolumeUSD/e.Rules.VolumeDivisor))
	if user.StreakDays >= e.Rules.StreakBonusThreshold {
		xp = int64(math.Floor(float64(xp) * e.Rules.StreakBonusMultiplier))
	}

	out := &Outcome{XPEarned: xp, PreviousLevel: user.Level}

	user.XP += xp
	user.TotalSwaps++
	user.TotalVolumeUSD += ev.VolumeUSD
	user.Level = e.LevelForXP(user.XP)

	unlockedAt := ev.SettledAt.UTC().Format(time.RFC3339)

	if user.Level > out.PreviousLevel {
		out.LeveledUp = true
		out.Rewards = append(out.Rewards, newReward(user.ID, models.RewardTypeNFT, LevelRewardName(user.Level), datatypes.JSONMap{
			"level":      user.Level,
			"unlockedAt": unlockedAt,
		}))
	}

	if e.Rules.MysteryBoxEvery > 0 && user.TotalSwaps%e.Rules.MysteryBoxEvery == 0 {
		out.Rewards = append(out.Rewards, newReward(user.ID, models.RewardTypeMysteryBox, MysteryBoxName, datatypes.JSONMap{
			"swapMilestone": user.TotalSwaps,
		}))
	}

	// Only on the settlement that moves the streak to exactly seven; a second
	// swap the same day or a streak of fourteen does not re-grant it.
	if user.StreakDays == e.Rules.WeekWarriorStreak && prevStreak != user.StreakDays {
		out.Rewards = append(out.Rewards, newReward(user.ID, models.RewardTypeNFT, WeekWarriorName, datatypes.JSONMap{
			"streakDays": user.StreakDays,
		}))
	}

	return out, nil
}

// updateStreak compares UTC calendar days. A settlement dated on or before
// the last swap day leaves the streak and the date alone.
func (e *Engine) updateStreak(user *models.User, settledAt time.Time) {
	day := utcDay(settledAt)

	if user.LastSwapDate == nil {
		user.StreakDays = 1
		user.LastSwapDate = &day
		return
	}

	last := utcDay(*user.LastSwapDate)
	gap := int(day.Sub(last).Hours() / 24)

	switch {
	case gap <= 0:
		return
	case gap == 1:
		user.StreakDays++
	default:
		user.StreakDays = 1
	}
	user.LastSwapDate = &day
}

func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func newReward(userID string, kind models.RewardType, name string, payload datatypes.JSONMap) models.Reward {
	return models.Reward{
		ID:      uuid.NewString(),
		UserID:  userID,
		Type:    kind,
		Name:    name,
		Slug:    slug.Make(name),
		Payload: payload,
	}
}
