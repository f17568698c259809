package queue

import (
	"context"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/rs/zerolog"
)

// Message is one event bound for the tracking topic. Key carries the
// event_id when the event has one, giving per-key ordering on the
// partitioned topic; an empty key lets the broker pick any partition.
type Message struct {
	Key   []byte
	Value []byte
}

// Producer wraps a long-lived Kafka producer publishing to a single
// topic. The underlying client is safe for concurrent use, so one
// Producer is shared by all in-flight collector requests.
type Producer struct {
	p     *kafka.Producer
	topic string
	log   zerolog.Logger
}

// NewProducer connects to the broker. The client connects lazily, so
// broker unavailability surfaces on publish, not here.
func NewProducer(broker, topic string, log zerolog.Logger) (*Producer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": broker})
	if err != nil {
		return nil, fmt.Errorf("create producer: %w", err)
	}
	return &Producer{p: p, topic: topic, log: log}, nil
}

// PublishBatch enqueues every message and waits for all delivery
// reports before returning, so a nil error means the broker has
// durably accepted the whole batch. A failed delivery fails the batch;
// already-delivered messages are not rolled back (at-least-once).
func (p *Producer) PublishBatch(ctx context.Context, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}

	deliveries := make(chan kafka.Event, len(msgs))
	for _, m := range msgs {
		kmsg := &kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
			Key:            m.Key,
			Value:          m.Value,
		}
		if err := p.p.Produce(kmsg, deliveries); err != nil {
			return fmt.Errorf("produce message: %w", err)
		}
	}

	// Synchronous flush: collect one report per enqueued message.
	var firstErr error
	for i := 0; i < len(msgs); i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-deliveries:
			m, ok := e.(*kafka.Message)
			if !ok {
				continue
			}
			if m.TopicPartition.Error != nil && firstErr == nil {
				firstErr = fmt.Errorf("delivery failed: %w", m.TopicPartition.Error)
			}
		}
	}
	if firstErr != nil {
		return firstErr
	}

	p.log.Debug().Int("count", len(msgs)).Msg("batch delivered to broker")
	return nil
}

// Close flushes outstanding messages and releases the client.
func (p *Producer) Close() {
	p.p.Flush(5000)
	p.p.Close()
}
