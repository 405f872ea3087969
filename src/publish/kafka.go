// Package publish announces executed commands to a Kafka topic so
// downstream consumers (fills reporting, risk, analytics) see them
// without polling the engine. Grounded on
// UmarFarooq-MP-Loki/infra/kafka/producer.go.
package publish

import (
	"context"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"limitcore/src/engine"
)

// Producer writes one message per executed command, keyed by symbol so
// a partitioned topic preserves per-symbol ordering.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer builds a producer targeting topic across brokers.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireOne,
			Async:        true,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// PublishExecuted satisfies runtime.Publisher.
func (p *Producer) PublishExecuted(symbol string, opcode engine.Opcode, response []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	value := make([]byte, 1+len(response))
	value[0] = byte(opcode)
	copy(value[1:], response)

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(symbol),
		Value: value,
	})
}

// Close flushes and releases the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
