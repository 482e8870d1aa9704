package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger    *inventory.LedgerUseCase
	Logger    zerolog.Logger
	JWTSecret string // vacío = rutas sin autenticación (solo desarrollo)
	JWTIssuer string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	scoped := func(scope string, h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{h}
	}
	if deps.JWTSecret != "" {
		api.Use(AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
		scoped = func(scope string, h fiber.Handler) []fiber.Handler {
			return []fiber.Handler{RequireScope(scope), h}
		}
	}

	h := NewInventoryHandler(deps.Ledger, deps.Logger)

	// Inventories
	inv := api.Group("/inventories")
	inv.Get("/", scoped(jwt.ScopeInventoryRead, h.List)...)
	inv.Post("/", scoped(jwt.ScopeInventoryWrite, h.Create)...)
	inv.Post("/adjust", scoped(jwt.ScopeInventoryWrite, h.Adjust)...)
	inv.Patch("/:id", scoped(jwt.ScopeInventoryWrite, h.Update)...)
	inv.Delete("/:id", scoped(jwt.ScopeInventoryWrite, h.Remove)...)

	// Warehouses
	api.Get("/warehouses/:warehouseId/products", scoped(jwt.ScopeInventoryRead, h.ProductsByWarehouse)...)
}
