package queue

import (
	"context"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/rs/zerolog"
)

// Consumer wraps a Kafka consumer-group member reading one topic.
//
// Offsets are committed manually: the processor calls Commit only after
// the durable write succeeds, so a crash between write and commit leads
// to redelivery, never loss. The idempotent upsert absorbs the replay.
type Consumer struct {
	c    *kafka.Consumer
	last *kafka.Message
	log  zerolog.Logger
}

// NewConsumer joins the consumer group and subscribes to the topic.
func NewConsumer(broker, topic, groupID string, log zerolog.Logger) (*Consumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  broker,
		"group.id":           groupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		return nil, fmt.Errorf("create consumer: %w", err)
	}

	if err := c.SubscribeTopics([]string{topic}, nil); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	return &Consumer{c: c, log: log}, nil
}

// Fetch blocks until the next message arrives or the context ends.
// Transient broker errors are logged and retried indefinitely by the
// client itself; only fatal client errors are returned.
func (c *Consumer) Fetch(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		ev := c.c.Poll(100)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			c.last = e
			return e.Value, nil
		case kafka.Error:
			if e.IsFatal() {
				return nil, fmt.Errorf("consumer failed: %w", e)
			}
			c.log.Warn().Err(e).Msg("transient broker error")
		}
	}
}

// Commit records the offset of the message most recently returned by
// Fetch. The processor is strictly sequential, so commit-last is safe.
func (c *Consumer) Commit() error {
	if c.last == nil {
		return nil
	}
	if _, err := c.c.CommitMessage(c.last); err != nil {
		return fmt.Errorf("commit offset: %w", err)
	}
	return nil
}

// Close leaves the group and releases the client.
func (c *Consumer) Close() error {
	return c.c.Close()
}
