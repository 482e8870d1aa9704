package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
)

// StockAdjuster es la parte del caso de uso de inventario que consume el tópico de ajustes.
type StockAdjuster interface {
	AdjustStock(ctx context.Context, in dto.AdjustStockRequest) (*dto.InventoryDTO, error)
}

// AdjustConsumer lee comandos de ajuste de stock ({product_id, warehouse_id, quantity})
// y los aplica uno por uno.
type AdjustConsumer struct {
	consumer Consumer
	adjuster StockAdjuster
	log      zerolog.Logger
}

// NewAdjustConsumer construye el consumidor con dependencias explícitas.
func NewAdjustConsumer(consumer Consumer, adjuster StockAdjuster, log zerolog.Logger) *AdjustConsumer {
	return &AdjustConsumer{
		consumer: consumer,
		adjuster: adjuster,
		log:      log.With().Str("component", "adjust-consumer").Logger(),
	}
}

// Start bloquea leyendo mensajes hasta que ctx se cancela.
// Un mensaje inválido o un ajuste rechazado se registra y no detiene el loop.
func (c *AdjustConsumer) Start(ctx context.Context) error {
	c.log.Info().Msg("consumidor de ajustes iniciado")
	for {
		msg, err := c.consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				c.log.Info().Msg("contexto finalizado, cerrando consumidor de ajustes")
				return nil
			}
			c.log.Error().Err(err).Msg("leer mensaje de Kafka")
			continue
		}
		_ = c.Handle(ctx, *msg)
	}
}

// Handle decodifica y aplica un comando de ajuste.
func (c *AdjustConsumer) Handle(ctx context.Context, msg kafkago.Message) error {
	msgCtx := extractTraceContext(ctx, msg.Headers)

	var cmd dto.AdjustStockRequest
	if err := json.Unmarshal(msg.Value, &cmd); err != nil {
		c.log.Error().Err(err).
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("JSON inválido en comando de ajuste")
		return fmt.Errorf("decodificar ajuste: %w", err)
	}

	rec, err := c.adjuster.AdjustStock(msgCtx, cmd)
	if err != nil {
		c.log.Warn().Err(err).
			Str("product_id", cmd.ProductID).
			Str("warehouse_id", cmd.WarehouseID).
			Int64("offset", msg.Offset).
			Msg("ajuste rechazado")
		return err
	}

	c.log.Info().
		Str("inventory_id", rec.ID).
		Str("product_id", rec.ProductID).
		Str("warehouse_id", rec.WarehouseID).
		Int("quantity", rec.Quantity).
		Msg("ajuste aplicado")
	return nil
}

// Close cierra el reader subyacente.
func (c *AdjustConsumer) Close() error {
	return c.consumer.Close()
}

// extractTraceContext conecta el span del ajuste con el del productor del mensaje.
func extractTraceContext(ctx context.Context, headers []kafkago.Header) context.Context {
	carrier := propagation.MapCarrier{}
	for _, h := range headers {
		carrier[h.Key] = string(h.Value)
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
