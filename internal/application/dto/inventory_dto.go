package dto

import (
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// CreateInventoryRequest body para POST /api/inventories.
type CreateInventoryRequest struct {
	ProductID   string `json:"product_id" validate:"required"`
	WarehouseID string `json:"warehouse_id" validate:"required"`
	Quantity    int    `json:"quantity" validate:"min=0"`
	IsActive    *bool  `json:"is_active,omitempty"` // nil = true
}

// UpdateInventoryRequest body para PATCH /api/inventories/:id. Solo quantity e is_active son mutables.
type UpdateInventoryRequest struct {
	Quantity *int  `json:"quantity,omitempty"`
	IsActive *bool `json:"is_active,omitempty"`
}

// Patch convierte el request al patch de dominio.
func (r UpdateInventoryRequest) Patch() entity.StockPatch {
	return entity.StockPatch{Quantity: r.Quantity, IsActive: r.IsActive}
}

// AdjustStockRequest body para POST /api/inventories/adjust y mensajes del tópico de ajustes.
// Quantity es el delta con signo; nil significa que no vino en el mensaje.
type AdjustStockRequest struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    *int   `json:"quantity"`
}

// InventoryDTO registro de inventario sin enriquecer (remove, adjust, evento de borrado).
type InventoryDTO struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	WarehouseID string    `json:"warehouse_id"`
	Quantity    int       `json:"quantity"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InventoryItemDTO registro enriquecido con los datos del catálogo. Nunca se persiste.
// Product es nil si el catálogo no devolvió el producto.
type InventoryItemDTO struct {
	InventoryDTO
	Product *entity.CatalogProduct `json:"product"`
}

// InventoryResponse salida de create/update.
type InventoryResponse struct {
	Message   string           `json:"message"`
	Inventory InventoryItemDTO `json:"inventory"`
}

// InventoryPageMeta metadatos de paginación de findAllInventories.
type InventoryPageMeta struct {
	Page     int `json:"page"`
	LastPage int `json:"last_page"`
	Total    int `json:"total"`
}

// InventoryPageResponse página de inventarios enriquecidos.
type InventoryPageResponse struct {
	Inventory []InventoryItemDTO `json:"inventory"`
	Meta      InventoryPageMeta  `json:"meta"`
}

// WarehouseProductDTO campos del catálogo más quantity (quantity siempre viene del inventario).
type WarehouseProductDTO map[string]any

// ToInventoryDTO convierte la entidad al DTO de salida.
func ToInventoryDTO(r *entity.StockRecord) InventoryDTO {
	return InventoryDTO{
		ID:          r.ID,
		ProductID:   r.ProductID,
		WarehouseID: r.WarehouseID,
		Quantity:    r.Quantity,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// EventKey clave de partición de los eventos de inventario (id del registro).
func (d InventoryDTO) EventKey() string {
	return d.ID
}
