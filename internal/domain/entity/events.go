package entity

// Nombres de los eventos de dominio emitidos después de cada mutación confirmada.
const (
	EventInventoryCreated = "inventory.created"
	EventInventoryUpdated = "inventory.updated"
	EventInventoryDeleted = "inventory.deleted"
)
