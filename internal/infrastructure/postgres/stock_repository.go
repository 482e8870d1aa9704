package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

const stockColumns = `id::text, product_id, warehouse_id, quantity, is_active, created_at, updated_at`

// StockRepo implementación de StockRepository sobre PostgreSQL.
// Cada escritura es una sola sentencia; la fila bloqueada por PostgreSQL serializa los
// accesos concurrentes al mismo par producto+almacén.
type StockRepo struct {
	q  Querier
	tx *TxRunner
}

// NewStockRepository construye el adaptador de stock sobre el pool.
func NewStockRepository(db DB) *StockRepo {
	return &StockRepo{q: db, tx: NewTxRunner(db)}
}

// FindByProductWarehouse obtiene el registro del par; nil si no existe.
func (r *StockRepo) FindByProductWarehouse(ctx context.Context, productID, warehouseID string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM inventories WHERE product_id = $1 AND warehouse_id = $2`
	rec, err := scanStock(r.q.QueryRow(ctx, query, productID, warehouseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory by product/warehouse: %w", err)
	}
	return rec, nil
}

// FindByID obtiene un registro por ID; nil si no existe o el ID no es un UUID.
func (r *StockRepo) FindByID(ctx context.Context, id string) (*entity.StockRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	query := `SELECT ` + stockColumns + ` FROM inventories WHERE id = $1`
	rec, err := scanStock(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	return rec, nil
}

// Insert crea el registro solo si el par no existe (ON CONFLICT DO NOTHING).
// Sin fila devuelta = el par ya existía → domain.ErrDuplicate.
func (r *StockRepo) Insert(ctx context.Context, record *entity.StockRecord) (*entity.StockRecord, error) {
	id := record.ID
	if id == "" {
		id = uuid.New().String()
	}
	query := `
		INSERT INTO inventories (id, product_id, warehouse_id, quantity, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (product_id, warehouse_id) DO NOTHING
		RETURNING ` + stockColumns
	rec, err := scanStock(r.q.QueryRow(ctx, query,
		id, record.ProductID, record.WarehouseID, record.Quantity, record.IsActive,
	))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows), isUniqueViolation(err):
			return nil, domain.ErrDuplicate
		case isCheckViolation(err):
			return nil, domain.ErrInvalidInput
		}
		return nil, fmt.Errorf("insert inventory: %w", err)
	}
	return rec, nil
}

// UpdateFields aplica el patch en una sola sentencia; los campos nil conservan su valor.
func (r *StockRepo) UpdateFields(ctx context.Context, id string, patch entity.StockPatch) (*entity.StockRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	query := `
		UPDATE inventories
		SET quantity = COALESCE($2, quantity),
		    is_active = COALESCE($3, is_active),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + stockColumns
	rec, err := scanStock(r.q.QueryRow(ctx, query, id, patch.Quantity, patch.IsActive))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, domain.ErrNotFound
		case isCheckViolation(err):
			return nil, domain.ErrInvalidInput
		}
		return nil, fmt.Errorf("update inventory: %w", err)
	}
	return rec, nil
}

// ApplyDelta suma delta a quantity de forma atómica.
//   - delta >= 0: upsert; crea con quantity = delta o suma sobre la fila existente (bloqueada por ON CONFLICT).
//   - delta < 0: UPDATE condicionado a quantity + delta >= 0; PostgreSQL reevalúa el WHERE sobre la
//     versión más reciente de la fila, así que restas concurrentes no pueden dejar stock negativo.
func (r *StockRepo) ApplyDelta(ctx context.Context, productID, warehouseID string, delta int) (*entity.StockRecord, error) {
	if delta >= 0 {
		query := `
			INSERT INTO inventories (id, product_id, warehouse_id, quantity, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, TRUE, now(), now())
			ON CONFLICT (product_id, warehouse_id) DO UPDATE
			SET quantity = inventories.quantity + EXCLUDED.quantity,
			    updated_at = now()
			RETURNING ` + stockColumns
		rec, err := scanStock(r.q.QueryRow(ctx, query, uuid.New().String(), productID, warehouseID, delta))
		if err != nil {
			return nil, fmt.Errorf("apply stock delta: %w", err)
		}
		return rec, nil
	}

	query := `
		UPDATE inventories
		SET quantity = quantity + $3, updated_at = now()
		WHERE product_id = $1 AND warehouse_id = $2 AND quantity + $3 >= 0
		RETURNING ` + stockColumns
	rec, err := scanStock(r.q.QueryRow(ctx, query, productID, warehouseID, delta))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("apply stock delta: %w", err)
	}

	// Ninguna fila afectada: solo se clasifica el rechazo, no se escribe nada.
	current, err := r.FindByProductWarehouse(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w; quantity debe ser >= 0 para crear: recibido %d", domain.ErrInvalidAdjustment, delta)
	}
	return nil, fmt.Errorf("%w (actual: %d, ajuste: %d)", domain.ErrNegativeStock, current.Quantity, delta)
}

// Delete elimina el registro y devuelve la instantánea borrada.
func (r *StockRepo) Delete(ctx context.Context, id string) (*entity.StockRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	query := `DELETE FROM inventories WHERE id = $1 RETURNING ` + stockColumns
	rec, err := scanStock(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("delete inventory: %w", err)
	}
	return rec, nil
}

// PageQuery cuenta y lee la página dentro de una transacción REPEATABLE READ de solo lectura,
// de modo que total y filas corresponden a la misma instantánea.
func (r *StockRepo) PageQuery(ctx context.Context, filter entity.StockFilter, offset, limit int) ([]*entity.StockRecord, int, error) {
	if offset < 0 || limit < 1 {
		return nil, 0, domain.ErrInvalidInput
	}
	var (
		list  []*entity.StockRecord
		total int
	)
	err := r.tx.Run(ctx, SnapshotReadOnly, func(q Querier) error {
		countQuery := `SELECT count(*) FROM inventories WHERE is_active AND ($1 = '' OR warehouse_id = $1)`
		if err := q.QueryRow(ctx, countQuery, filter.WarehouseID).Scan(&total); err != nil {
			return fmt.Errorf("count inventories: %w", err)
		}
		pageQuery := `
			SELECT ` + stockColumns + `
			FROM inventories
			WHERE is_active AND ($1 = '' OR warehouse_id = $1)
			ORDER BY created_at, id
			LIMIT $2 OFFSET $3`
		rows, err := q.Query(ctx, pageQuery, filter.WarehouseID, limit, offset)
		if err != nil {
			return fmt.Errorf("list inventories: %w", err)
		}
		list, err = collectStock(rows)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListByWarehouse lista los registros activos de un almacén.
func (r *StockRepo) ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.StockRecord, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM inventories
		WHERE warehouse_id = $1 AND is_active
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("list inventories by warehouse: %w", err)
	}
	return collectStock(rows)
}

func scanStock(row pgx.Row) (*entity.StockRecord, error) {
	var s entity.StockRecord
	if err := row.Scan(&s.ID, &s.ProductID, &s.WarehouseID, &s.Quantity, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func collectStock(rows pgx.Rows) ([]*entity.StockRecord, error) {
	defer rows.Close()
	list := make([]*entity.StockRecord, 0)
	for rows.Next() {
		rec, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}
