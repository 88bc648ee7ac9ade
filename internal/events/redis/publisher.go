package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	interfaces "github.com/sheikh-saqib/jobs-ledger/internal/interfaces"
)

// Publisher publishes events on Redis pub/sub channels named after the topic.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(addr, password string) *Publisher {
	return &Publisher{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

func (p *Publisher) Publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.rdb.Close()
}

var _ interfaces.EventPublisher = (*Publisher)(nil)
