package postgres

import (
	"context"
	"fmt"
)

// schemaSQL crea la tabla de inventarios. La unicidad del par y quantity >= 0 se imponen en la BD
// además de en las sentencias del repositorio.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS inventories (
	id           UUID PRIMARY KEY,
	product_id   TEXT NOT NULL,
	warehouse_id TEXT NOT NULL,
	quantity     BIGINT NOT NULL CHECK (quantity >= 0),
	is_active    BOOLEAN NOT NULL DEFAULT TRUE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT inventories_product_warehouse_key UNIQUE (product_id, warehouse_id)
);
CREATE INDEX IF NOT EXISTS inventories_warehouse_active_idx
	ON inventories (warehouse_id, created_at, id) WHERE is_active;
`

// EnsureSchema aplica el esquema (idempotente).
func EnsureSchema(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("aplicar esquema: %w", err)
	}
	return nil
}
