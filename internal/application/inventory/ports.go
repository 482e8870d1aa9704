package inventory

import (
	"context"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// CatalogClient consulta el servicio de catálogo (request/reply síncrono).
// Devuelve slice vacío, nunca error, cuando ningún id coincide; los fallos de red o timeout
// se reportan como domain.ErrCatalogUnavailable (reintentable por el llamador).
type CatalogClient interface {
	LookupByIDs(ctx context.Context, ids []string) ([]entity.CatalogProduct, error)
}

// EventPublisher emite eventos de dominio sin esperar confirmación.
// Un fallo al publicar no falla la operación de origen; el publicador lo registra en el log.
type EventPublisher interface {
	Publish(ctx context.Context, name string, payload any)
}
