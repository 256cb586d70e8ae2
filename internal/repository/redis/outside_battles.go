package redis

import (
	"clanManager/domain"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// key format: "outside_battles:queue"
const outsideBattlesKey = "outside_battles:queue"

type OutsideBattlesQueue struct {
	client *redis.Client
}

func NewOutsideBattlesQueue(client *redis.Client) *OutsideBattlesQueue {
	return &OutsideBattlesQueue{
		client: client,
	}
}

func (q *OutsideBattlesQueue) Push(ctx context.Context, warning domain.OutsideBattlesWarning) error {
	data, err := json.Marshal(warning)
	if err != nil {
		return fmt.Errorf("failed to marshal outside battles warning: %w", err)
	}

	if err := q.client.RPush(ctx, outsideBattlesKey, data).Err(); err != nil {
		return fmt.Errorf("failed to queue outside battles warning: %w", err)
	}

	return nil
}

// Pop removes the oldest queued warning. ok is false when the queue is empty.
func (q *OutsideBattlesQueue) Pop(ctx context.Context) (domain.OutsideBattlesWarning, bool, error) {
	val, err := q.client.LPop(ctx, outsideBattlesKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.OutsideBattlesWarning{}, false, nil
		}
		return domain.OutsideBattlesWarning{}, false, fmt.Errorf("failed to pop outside battles warning: %w", err)
	}

	var warning domain.OutsideBattlesWarning
	if err := json.Unmarshal(val, &warning); err != nil {
		return domain.OutsideBattlesWarning{}, false, fmt.Errorf("failed to unmarshal outside battles warning: %w", err)
	}

	return warning, true, nil
}
