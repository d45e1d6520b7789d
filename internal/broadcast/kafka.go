package broadcast

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageWriter is satisfied by *kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes traffic events to a Kafka topic keyed by source IP, so
// events from one client stay ordered within a partition.
type KafkaSink struct {
	writer messageWriter
}

// NewKafkaWriter builds a writer for topic on brokers.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

// NewKafkaSink writes through w.
func NewKafkaSink(w messageWriter) *KafkaSink {
	return &KafkaSink{writer: w}
}

// Run subscribes to hub and forwards events until ctx is done, then closes
// the writer.
func (s *KafkaSink) Run(ctx context.Context, hub *Hub) {
	defer s.writer.Close()
	forward(ctx, hub.Subscribe("kafka"), func(ctx context.Context, evt Event, data []byte) error {
		return s.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(evt.SourceIP),
			Value: data,
			Time:  evt.Timestamp,
		})
	})
}
