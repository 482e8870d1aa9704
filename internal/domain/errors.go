package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Los adaptadores los traducen a códigos estables con errors.Is.
var (
	ErrNotFound           = errors.New("registro de inventario no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("ya se registró este item en este almacén")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrProductNotFound    = errors.New("no se encontró el producto")
	ErrMissingQuantity    = errors.New("quantity es obligatorio para ajuste de inventario")
	ErrNegativeStock      = errors.New("no se puede ajustar inventario a valor negativo")
	ErrInvalidAdjustment  = errors.New("no existe inventario previo para restar")
	ErrAdjustmentFailed   = errors.New("error accediendo a inventario")
	ErrCatalogUnavailable = errors.New("catálogo de productos no disponible")
)
