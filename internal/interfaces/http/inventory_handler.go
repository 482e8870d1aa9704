package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
)

// InventoryHandler expone las operaciones del inventario por HTTP.
type InventoryHandler struct {
	uc  *inventory.LedgerUseCase
	log zerolog.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.LedgerUseCase, log zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{uc: uc, log: log.With().Str("component", "http").Logger()}
}

// Create godoc
// @Summary      Registrar producto en almacén
// @Tags         inventories
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInventoryRequest  true  "product_id, warehouse_id, quantity, is_active"
// @Success      201   {object}  dto.InventoryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventories [post]
func (h *InventoryHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInventoryRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Actualizar quantity / is_active
// @Tags         inventories
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID del inventario"
// @Param        body  body  dto.UpdateInventoryRequest  true  "quantity, is_active"
// @Success      200   {object}  dto.InventoryResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventories/{id} [patch]
func (h *InventoryHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateInventoryRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Remove godoc
// @Summary      Eliminar inventario
// @Tags         inventories
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del inventario"
// @Success      200  {object}  dto.InventoryDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventories/{id} [delete]
func (h *InventoryHandler) Remove(c *fiber.Ctx) error {
	out, err := h.uc.Remove(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar inventarios activos (paginado)
// @Tags         inventories
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Filtrar por almacén"
// @Param        page          query  int     false  "Página (desde 1)"  default(1)
// @Param        limit         query  int     false  "Tamaño de página"  default(10)
// @Success      200  {object}  dto.InventoryPageResponse
// @Router       /api/inventories [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "page y limit deben ser enteros"})
	}
	out, err := h.uc.List(c.UserContext(), c.Query("warehouse_id"), page)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// ProductsByWarehouse godoc
// @Summary      Productos de un almacén con su quantity
// @Tags         warehouses
// @Security     Bearer
// @Produce      json
// @Param        warehouseId  path  string  true  "ID del almacén"
// @Success      200  {array}  dto.WarehouseProductDTO
// @Router       /api/warehouses/{warehouseId}/products [get]
func (h *InventoryHandler) ProductsByWarehouse(c *fiber.Ctx) error {
	out, err := h.uc.FindProductsByWarehouse(c.UserContext(), c.Params("warehouseId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Adjust godoc
// @Summary      Ajustar stock (delta con signo)
// @Tags         inventories
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "product_id, warehouse_id, quantity (delta)"
// @Success      200   {object}  dto.InventoryDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventories/adjust [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.AdjustStock(c.UserContext(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

func (h *InventoryHandler) fail(c *fiber.Ctx, err error) error {
	if code := ErrorCode(err); code == "STORE_ERROR" || code == "ADJUSTMENT_FAILED" {
		h.log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error en operación de inventario")
	}
	return writeError(c, err)
}
