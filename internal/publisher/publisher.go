package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/fjod/go_cart/cart-widget/internal/service"
	"github.com/fjod/go_cart/cart-widget/pkg/circuitbreaker"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	DefaultTopic   = "cart-events"
	publishTimeout = 2 * time.Second
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the JSON payload published for every cart change.
type Event struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	ProductID  int64     `json:"product_id,omitempty"`
	Quantity   int       `json:"quantity"`
	ItemCount  int       `json:"item_count"`
	Total      string    `json:"total"`
	Revision   uint64    `json:"revision"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher forwards cart changes to Kafka. A circuit breaker keeps an
// unreachable broker from slowing down every cart mutation.
type Publisher struct {
	writer  MessageWriter
	breaker *gobreaker.CircuitBreaker[struct{}]
	log     *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return NewPublisher(w, log)
}

func NewPublisher(writer MessageWriter, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Publisher{writer: writer, log: log}
	p.breaker = circuitbreaker.New[struct{}](circuitbreaker.Settings{Name: "cart-events"}, log)
	return p
}

// OnChange publishes change. Notifications that left the cart untouched,
// refreshes included, are skipped.
func (p *Publisher) OnChange(ctx context.Context, change service.Change) {
	if !change.Mutated {
		return
	}

	err := p.Publish(ctx, change)
	if circuitbreaker.IsOpen(err) {
		p.log.Debug("cart event dropped, broker circuit open", zap.String("type", string(change.Kind)))
		return
	}
	if err != nil {
		p.log.Error("failed to publish cart event",
			zap.String("type", string(change.Kind)),
			zap.Int64("product_id", change.ProductID),
			zap.Error(err),
		)
	}
}

func (p *Publisher) Publish(ctx context.Context, change service.Change) error {
	event := NewEvent(change)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal cart event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(change.ProductID, 10)), // per-product ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		return struct{}{}, p.writer.WriteMessages(ctx, msg)
	})
	return err
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func NewEvent(change service.Change) Event {
	return Event{
		EventID:    uuid.NewString(),
		Type:       string(change.Kind),
		ProductID:  change.ProductID,
		Quantity:   change.Quantity,
		ItemCount:  len(change.Snapshot.Items),
		Total:      change.Snapshot.Total.StringFixed(2),
		Revision:   change.Snapshot.Revision,
		OccurredAt: time.Now().UTC(),
	}
}
