package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"smarttrack/internal/domain"
	"smarttrack/internal/log"
)

// SaleCreated is published once a sale has been committed.
type SaleCreated struct {
	SaleID        int64                `json:"sale_id"`
	SaleDate      domain.Date          `json:"sale_date"`
	TotalAmount   domain.Money         `json:"total_amount"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	Items         []SaleCreatedItem    `json:"items"`
	Timestamp     time.Time            `json:"timestamp"`
}

type SaleCreatedItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func NewSaleCreated(s domain.Sale, at time.Time) SaleCreated {
	items := make([]SaleCreatedItem, 0, len(s.SaleItems))
	for _, it := range s.SaleItems {
		items = append(items, SaleCreatedItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return SaleCreated{
		SaleID:        s.ID,
		SaleDate:      s.SaleDate,
		TotalAmount:   s.TotalAmount,
		PaymentMethod: s.PaymentMethod,
		Items:         items,
		Timestamp:     at.UTC(),
	}
}

func (m SaleCreated) ToJSON() ([]byte, error) { return json.Marshal(m) }

type Publisher interface {
	PublishSaleCreated(ctx context.Context, msg SaleCreated) error
	Close() error
}

// Nop drops every event; used when no broker is configured.
type Nop struct{}

func (Nop) PublishSaleCreated(context.Context, SaleCreated) error { return nil }
func (Nop) Close() error                                          { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []SaleCreated
	Err    error
}

func (r *Recorder) PublishSaleCreated(_ context.Context, msg SaleCreated) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, msg)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []SaleCreated {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SaleCreated(nil), r.events...)
}

// AMQPPublisher sends events to a durable direct exchange.
type AMQPPublisher struct {
	mu         sync.Mutex
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	exchange   string
	routingKey string
}

func NewAMQPPublisher(url, exchange, routingKey string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange, routingKey: routingKey}, nil
}

func (p *AMQPPublisher) PublishSaleCreated(ctx context.Context, msg SaleCreated) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// a channel must not be used for concurrent publishes
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    msg.Timestamp,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	log.L().Info("sale.event.published", "sale_id", msg.SaleID, "exchange", p.exchange, "routing_key", p.routingKey)
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
