package kafka

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"

	"github.com/quickbite/backend/order/models"
)

// ProducerAPI is what the order service needs from the event producer.
type ProducerAPI interface {
	SendOrderEvent(evt models.OrderEvent) error
	Close() error
}

type Producer struct {
	writer *kafka.Writer
	topic  string
}

func NewProducer(brokers []string, topic string) *Producer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Printf("[OrderService][KafkaProducer] initialized topic=%s brokers=%v", topic, brokers)
	return &Producer{writer: w, topic: topic}
}

// SendOrderEvent publishes an order lifecycle event keyed by order id so all
// events for one order land on the same partition.
func (p *Producer) SendOrderEvent(evt models.OrderEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(evt.OrderID),
		Value: data,
	}
	if err := p.writer.WriteMessages(context.Background(), msg); err != nil {
		log.Printf("❌ [OrderService][KafkaProducer] failed to publish %s order=%s topic=%s err=%v", evt.Type, evt.OrderID, p.topic, err)
		return err
	}
	log.Printf("✅ [OrderService][KafkaProducer] %s published order=%s amount=%d topic=%s", evt.Type, evt.OrderID, evt.Amount, p.topic)
	return nil
}

func (p *Producer) Close() error {
	log.Printf("[OrderService][KafkaProducer] closing writer topic=%s", p.topic)
	return p.writer.Close()
}
