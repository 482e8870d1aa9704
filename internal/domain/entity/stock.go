package entity

import "time"

// StockRecord representa la existencia de un producto en un almacén (par único producto+almacén).
// Quantity nunca es negativa después de una operación confirmada.
type StockRecord struct {
	ID          string
	ProductID   string
	WarehouseID string
	Quantity    int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StockPatch actualización parcial de un registro; los campos nil no se modifican.
type StockPatch struct {
	Quantity *int
	IsActive *bool
}

// IsEmpty indica si el patch no modifica ningún campo.
func (p StockPatch) IsEmpty() bool {
	return p.Quantity == nil && p.IsActive == nil
}

// StockFilter filtro de listados paginados. Siempre implica IsActive = true.
type StockFilter struct {
	WarehouseID string // vacío = todos los almacenes
}

// Matches indica si el registro entra en el filtro.
func (f StockFilter) Matches(r *StockRecord) bool {
	if !r.IsActive {
		return false
	}
	return f.WarehouseID == "" || r.WarehouseID == f.WarehouseID
}
