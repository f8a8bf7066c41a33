// Package events publishes cart activity to Kafka for downstream consumers
// (analytics, abandoned-cart jobs). Publishing is strictly best effort:
// failures are logged and swallowed so the UI path never blocks on a broker.
package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dkress/shopfront/internal/cart/store"
	"github.com/dkress/shopfront/internal/checkout"
)

const (
	cartActivityTopic = "cart-activity"
	confirmedTopic    = "checkout-confirmed"
)

type Publisher struct {
	activity  *kafka.Writer
	confirmed *kafka.Writer
	timeout   time.Duration
}

func NewPublisher(brokers ...string) *Publisher {
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		}
	}
	return &Publisher{
		activity:  newWriter(cartActivityTopic),
		confirmed: newWriter(confirmedTopic),
		timeout:   5 * time.Second,
	}
}

// Attach subscribes the publisher to the store so every cart mutation
// publishes a snapshot message. The publish runs in its own goroutine: the
// notification callback returns immediately, so a slow or dead broker never
// stalls the mutation that triggered it. Returns the unsubscribe function.
func (p *Publisher) Attach(s *store.Store) func() {
	return s.Subscribe(func() {
		go p.publishActivity(s)
	})
}

func (p *Publisher) publishActivity(s *store.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	cart := s.Read(ctx)
	payload, err := json.Marshal(map[string]interface{}{
		"lines":       cart.Lines,
		"total_qty":   cart.TotalQuantity(),
		"occurred_at": time.Now().UTC(),
	})
	if err != nil {
		log.Printf("failed to marshal cart activity: %v", err)
		return
	}

	if err := p.activity.WriteMessages(ctx, kafka.Message{Value: payload}); err != nil {
		log.Printf("failed to publish cart activity: %v", err)
	}
}

func (p *Publisher) PublishConfirmation(ctx context.Context, conf checkout.Confirmation) error {
	payload, err := json.Marshal(conf)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.confirmed.WriteMessages(ctx, kafka.Message{
		Key:   []byte(conf.OrderID),
		Value: payload,
	})
}

func (p *Publisher) Close() {
	if err := p.activity.Close(); err != nil {
		log.Printf("error closing activity writer: %v", err)
	}
	if err := p.confirmed.Close(); err != nil {
		log.Printf("error closing confirmed writer: %v", err)
	}
}
