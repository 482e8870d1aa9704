package repository

import (
	"context"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// StockRepository define el puerto del almacén de existencias (par único producto+almacén).
// Las operaciones de escritura son atómicas respecto a la unicidad del par y a quantity >= 0:
// el repositorio es el único punto de serialización entre llamadas concurrentes.
type StockRepository interface {
	// FindByProductWarehouse devuelve nil, nil si el par no existe.
	FindByProductWarehouse(ctx context.Context, productID, warehouseID string) (*entity.StockRecord, error)
	// FindByID devuelve nil, nil si el id no existe.
	FindByID(ctx context.Context, id string) (*entity.StockRecord, error)
	// Insert crea el registro si el par no existe (check-and-insert atómico); domain.ErrDuplicate si existe.
	Insert(ctx context.Context, record *entity.StockRecord) (*entity.StockRecord, error)
	// UpdateFields aplica el patch; domain.ErrNotFound si el id no existe.
	UpdateFields(ctx context.Context, id string, patch entity.StockPatch) (*entity.StockRecord, error)
	// ApplyDelta suma delta a quantity en una única operación read-modify-write.
	// Sin registro: crea con quantity = delta si delta >= 0, si no domain.ErrInvalidAdjustment.
	// Con registro: domain.ErrNegativeStock si el resultado sería negativo (registro intacto).
	ApplyDelta(ctx context.Context, productID, warehouseID string, delta int) (*entity.StockRecord, error)
	// Delete elimina y devuelve el registro borrado; domain.ErrNotFound si no existe.
	Delete(ctx context.Context, id string) (*entity.StockRecord, error)
	// PageQuery cuenta y lee limit registros desde offset en una misma instantánea.
	// offset >= 0, limit >= 1; domain.ErrInvalidInput en otro caso.
	PageQuery(ctx context.Context, filter entity.StockFilter, offset, limit int) ([]*entity.StockRecord, int, error)
	// ListByWarehouse lista los registros activos del almacén, sin paginación.
	ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.StockRecord, error)
}
