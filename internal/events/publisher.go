// Package events publishes order lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"

	"shopkart_back_end/internal/models"
)

const EventOrderPaid = "order.paid"

type OrderPaidItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type OrderPaid struct {
	OrderID         string          `json:"order_id"`
	CustomerID      string          `json:"customer_id"`
	PaymentID       string          `json:"payment_id"`
	PaymentProvider string          `json:"payment_provider"`
	Amount          float64         `json:"amount"`
	Currency        string          `json:"currency"`
	Items           []OrderPaidItem `json:"items"`
	PaidAt          time.Time       `json:"paid_at"`
}

func NewOrderPaid(o *models.Order, paidAt time.Time) OrderPaid {
	items := make([]OrderPaidItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderPaidItem{ProductID: it.ProductID.Hex(), Quantity: it.Quantity}
	}
	return OrderPaid{
		OrderID:         o.ID.Hex(),
		CustomerID:      o.Customer.Hex(),
		PaymentID:       o.PaymentID,
		PaymentProvider: string(o.PaymentProvider),
		Amount:          o.DiscountedOrderPrice,
		Currency:        "INR",
		Items:           items,
		PaidAt:          paidAt,
	}
}

// Message keys by order id so every event of an order lands on one partition.
func (e OrderPaid) Message() (kafka.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "encode order.paid")
	}
	return kafka.Message{
		Key:   []byte(e.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderPaid)},
		},
	}, nil
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}}
}

func (p *KafkaPublisher) OrderPaid(ctx context.Context, e OrderPaid) error {
	msg, err := e.Message()
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, "publish order.paid")
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type Nop struct{}

func (Nop) OrderPaid(context.Context, OrderPaid) error { return nil }

func (Nop) Close() error { return nil }
