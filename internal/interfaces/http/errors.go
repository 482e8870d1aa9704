package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
)

// errorMapping traduce un error de dominio a status HTTP y código estable.
type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrMissingQuantity, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrDuplicate, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrProductNotFound, fiber.StatusBadRequest, "PRODUCT_NOT_FOUND"},
	{domain.ErrNegativeStock, fiber.StatusConflict, "NEGATIVE_STOCK"},
	{domain.ErrInvalidAdjustment, fiber.StatusBadRequest, "INVALID_ADJUSTMENT"},
	{domain.ErrCatalogUnavailable, fiber.StatusServiceUnavailable, "CATALOG_UNAVAILABLE"},
	{domain.ErrAdjustmentFailed, fiber.StatusInternalServerError, "ADJUSTMENT_FAILED"},
}

// ErrorCode devuelve el código estable del error ("STORE_ERROR" si no es de dominio).
func ErrorCode(err error) string {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.code
		}
	}
	return "STORE_ERROR"
}

// writeError responde con el status y código del error. Los errores no tipados
// (persistencia) se responden con un mensaje genérico, sin detalle del motor.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.status == fiber.StatusServiceUnavailable {
				c.Set(fiber.HeaderRetryAfter, "1")
			}
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Code:    "STORE_ERROR",
		Message: "error interno de inventario",
	})
}
