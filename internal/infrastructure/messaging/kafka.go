package messaging

import (
	"context"
	"fmt"
	"time"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Producer escribe mensajes en Kafka (implementado por el writer instrumentado con OTel).
type Producer interface {
	WriteMessage(ctx context.Context, msg kafkago.Message) error
	Close() error
}

// Consumer lee mensajes de Kafka (implementado por el reader instrumentado con OTel).
type Consumer interface {
	ReadMessage(ctx context.Context) (*kafkago.Message, error)
	Close() error
}

// WriterConfig parámetros del productor de eventos.
type WriterConfig struct {
	Brokers      []string
	ClientID     string
	BatchTimeout time.Duration
	BatchSize    int
}

// NewProducer crea un writer asíncrono (WriteMessage no espera al broker) sin tópico fijo:
// cada mensaje lleva su tópico. Los fallos de entrega se registran en Completion.
func NewProducer(cfg WriterConfig, tp trace.TracerProvider, log zerolog.Logger) (Producer, error) {
	base := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Balancer:               &kafkago.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		BatchSize:              cfg.BatchSize,
		Async:                  true,
		AllowAutoTopicCreation: true,
		Completion: func(messages []kafkago.Message, err error) {
			if err == nil {
				return
			}
			for _, m := range messages {
				log.Error().Err(err).
					Str("topic", m.Topic).
					Bytes("key", m.Key).
					Msg("entrega de evento fallida")
			}
		},
	}
	writer, err := otelkafka.NewWriter(base,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes([]attribute.KeyValue{
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.kafka.client_id", cfg.ClientID),
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("crear writer Kafka: %w", err)
	}
	return writer, nil
}

// ReaderConfig parámetros del consumidor de ajustes.
type ReaderConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// NewConsumer crea un reader de grupo instrumentado con OTel.
func NewConsumer(cfg ReaderConfig) (Consumer, error) {
	base := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
	reader, err := otelkafka.NewReader(base)
	if err != nil {
		return nil, fmt.Errorf("crear reader Kafka: %w", err)
	}
	return reader, nil
}
