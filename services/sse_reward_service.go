package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"shiftplay/models"
	"shiftplay/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

const DefaultStreamPollInterval = 2 * time.Second

// StreamUserRewardsSSE pushes an `event: reward` frame for every reward
// granted to the user after the stream opened. Expects Locals("user_id").
func (s *RewardService) StreamUserRewardsSSE(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user id required"})
	}

	interval := s.StreamPollInterval
	if interval <= 0 {
		interval = DefaultStreamPollInterval
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	// The fiber ctx is recycled once this handler returns; only the request ctx outlives it.
	done := c.Context().Done()
	cursor := s.Now()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case <-ticker.C:
				rewards, next, err := s.rewardsSince(context.Background(), userID, cursor)
				if err != nil {
					logger.Errorf("[SSE] query error for user %s: %v", userID, err)
					continue
				}
				cursor = next
				if len(rewards) == 0 {
					// keepalive
					w.WriteString(":\n\n")
				} else if err := writeRewardEvents(w, rewards); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}
			case <-done:
				return
			}
		}
	})

	return nil
}

// rewardsSince returns rewards created after cursor and the advanced cursor.
func (s *RewardService) rewardsSince(ctx context.Context, userID string, cursor time.Time) ([]models.Reward, time.Time, error) {
	rewards, err := s.Store.ListRewardsByUserSince(ctx, userID, cursor)
	if err != nil {
		return nil, cursor, err
	}
	if len(rewards) > 0 {
		cursor = rewards[len(rewards)-1].CreatedAt
	}
	return rewards, cursor, nil
}

func writeRewardEvents(w io.Writer, rewards []models.Reward) error {
	for _, r := range rewards {
		payload, err := json.Marshal(r)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: reward\ndata: %s\n\n", payload); err != nil {
			return err
		}
	}
	return nil
}
