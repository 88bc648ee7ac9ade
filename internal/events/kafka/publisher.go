package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/jobs-ledger/internal/interfaces"
	"github.com/sheikh-saqib/jobs-ledger/internal/models/events"
	"github.com/segmentio/kafka-go"
)

const eventIDHeader = "event_id"

type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher returns a publisher writing to brokers. The topic is chosen
// per message, so the writer itself has none. compression is one of
// "", "none", "gzip", "snappy", "lz4" or "zstd".
func NewPublisher(brokers []string, compression string) (*Publisher, error) {
	codec, err := parseCompression(compression)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			Compression:            codec,
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, topic string, event any) error {
	msg, err := newMessage(topic, event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// newMessage encodes event as JSON. Transaction events are keyed by their id
// so every event of one transaction lands on the same partition.
func newMessage(topic string, event any) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal %T: %w", event, err)
	}

	msg := kafka.Message{
		Topic: topic,
		Value: data,
		Headers: []kafka.Header{
			{Key: eventIDHeader, Value: []byte(uuid.NewString())},
		},
	}
	if ev, ok := event.(events.TransactionCreated); ok {
		msg.Key = []byte(strconv.FormatInt(ev.ID, 10))
	}
	return msg, nil
}

func parseCompression(name string) (kafka.Compression, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return 0, nil
	case "gzip":
		return kafka.Gzip, nil
	case "snappy":
		return kafka.Snappy, nil
	case "lz4":
		return kafka.Lz4, nil
	case "zstd":
		return kafka.Zstd, nil
	default:
		return 0, fmt.Errorf("unknown kafka compression %q", name)
	}
}

var _ interfaces.EventPublisher = (*Publisher)(nil)
