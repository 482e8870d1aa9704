package messaging

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
)

var (
	_ inventory.EventPublisher = (*KafkaPublisher)(nil)
	_ inventory.EventPublisher = (*LogPublisher)(nil)
)

const headerEventName = "event-name"

// keyed lo implementan los payloads que tienen clave de partición (DTOs de inventario).
type keyed interface {
	EventKey() string
}

// KafkaPublisher publica eventos de dominio en Kafka, un tópico por nombre de evento.
// Fire-and-forget: nunca devuelve error al caso de uso; los fallos quedan en el log.
type KafkaPublisher struct {
	producer Producer
	log      zerolog.Logger
}

// NewKafkaPublisher construye el publicador sobre un Producer.
func NewKafkaPublisher(producer Producer, log zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		log:      log.With().Str("component", "event-publisher").Logger(),
	}
}

// Publish serializa el payload a JSON y lo entrega al writer asíncrono.
// El contexto se desacopla de la cancelación del request que originó el evento.
func (p *KafkaPublisher) Publish(ctx context.Context, name string, payload any) {
	value, err := json.Marshal(payload)
	if err != nil {
		p.log.Error().Err(err).Str("event", name).Msg("serializar evento")
		return
	}
	msg := kafkago.Message{
		Topic:   name,
		Value:   value,
		Headers: []kafkago.Header{{Key: headerEventName, Value: []byte(name)}},
	}
	if k, ok := payload.(keyed); ok {
		msg.Key = []byte(k.EventKey())
	}
	if err := p.producer.WriteMessage(context.WithoutCancel(ctx), msg); err != nil {
		p.log.Error().Err(err).Str("event", name).Bytes("key", msg.Key).Msg("publicar evento")
		return
	}
	p.log.Debug().Str("event", name).Bytes("key", msg.Key).Msg("evento publicado")
}

// LogPublisher registra los eventos en el log; se usa cuando Kafka no está configurado.
type LogPublisher struct {
	log zerolog.Logger
}

// NewLogPublisher construye el publicador de log.
func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log.With().Str("component", "event-publisher").Logger()}
}

// Publish escribe el evento en el log a nivel info.
func (p *LogPublisher) Publish(_ context.Context, name string, payload any) {
	ev := p.log.Info().Str("event", name)
	if k, ok := payload.(keyed); ok {
		ev = ev.Str("key", k.EventKey())
	}
	ev.Interface("payload", payload).Msg("evento de inventario")
}
