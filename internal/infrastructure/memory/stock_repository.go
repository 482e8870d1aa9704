// Package memory implementa el StockRepository en memoria para desarrollo local y pruebas.
// Tiene la misma semántica atómica que el adaptador PostgreSQL: un mutex es el punto de
// serialización de todas las escrituras.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

type pairKey struct {
	productID   string
	warehouseID string
}

// StockRepo almacén de existencias en memoria, seguro para uso concurrente.
type StockRepo struct {
	mu     sync.RWMutex
	byID   map[string]*entity.StockRecord
	byPair map[pairKey]string
	seq    int64 // orden de inserción
	order  map[string]int64
	now    func() time.Time
}

// NewStockRepository construye el repositorio vacío.
func NewStockRepository() *StockRepo {
	return &StockRepo{
		byID:   make(map[string]*entity.StockRecord),
		byPair: make(map[pairKey]string),
		order:  make(map[string]int64),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// FindByProductWarehouse obtiene una copia del registro del par; nil si no existe.
func (r *StockRepo) FindByProductWarehouse(_ context.Context, productID, warehouseID string) (*entity.StockRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPair[pairKey{productID, warehouseID}]
	if !ok {
		return nil, nil
	}
	return clone(r.byID[id]), nil
}

// FindByID obtiene una copia del registro; nil si no existe.
func (r *StockRepo) FindByID(_ context.Context, id string) (*entity.StockRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return clone(rec), nil
}

// Insert crea el registro si el par no existe; domain.ErrDuplicate si existe.
func (r *StockRepo) Insert(_ context.Context, record *entity.StockRecord) (*entity.StockRecord, error) {
	if record.Quantity < 0 {
		return nil, domain.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey{record.ProductID, record.WarehouseID}
	if _, exists := r.byPair[key]; exists {
		return nil, domain.ErrDuplicate
	}
	rec := r.insertLocked(record.ID, record.ProductID, record.WarehouseID, record.Quantity, record.IsActive)
	return clone(rec), nil
}

// UpdateFields aplica el patch; domain.ErrNotFound si el id no existe.
func (r *StockRepo) UpdateFields(_ context.Context, id string, patch entity.StockPatch) (*entity.StockRecord, error) {
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return nil, domain.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.Quantity != nil {
		rec.Quantity = *patch.Quantity
	}
	if patch.IsActive != nil {
		rec.IsActive = *patch.IsActive
	}
	rec.UpdatedAt = r.now()
	return clone(rec), nil
}

// ApplyDelta lee, valida y escribe bajo el mismo lock.
func (r *StockRepo) ApplyDelta(_ context.Context, productID, warehouseID string, delta int) (*entity.StockRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byPair[pairKey{productID, warehouseID}]
	if !ok {
		if delta < 0 {
			return nil, fmt.Errorf("%w; quantity debe ser >= 0 para crear: recibido %d", domain.ErrInvalidAdjustment, delta)
		}
		return clone(r.insertLocked("", productID, warehouseID, delta, true)), nil
	}
	rec := r.byID[id]
	if rec.Quantity+delta < 0 {
		return nil, fmt.Errorf("%w (actual: %d, ajuste: %d)", domain.ErrNegativeStock, rec.Quantity, delta)
	}
	rec.Quantity += delta
	rec.UpdatedAt = r.now()
	return clone(rec), nil
}

// Delete elimina y devuelve el registro borrado.
func (r *StockRepo) Delete(_ context.Context, id string) (*entity.StockRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byPair, pairKey{rec.ProductID, rec.WarehouseID})
	delete(r.order, id)
	return rec, nil
}

// PageQuery cuenta y pagina bajo el mismo read lock (misma instantánea).
func (r *StockRepo) PageQuery(_ context.Context, filter entity.StockFilter, offset, limit int) ([]*entity.StockRecord, int, error) {
	if offset < 0 || limit < 1 {
		return nil, 0, domain.ErrInvalidInput
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := r.selectLocked(filter)
	total := len(matched)
	if offset >= total {
		return []*entity.StockRecord{}, total, nil
	}
	end := total
	if limit < total-offset {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

// ListByWarehouse lista los registros activos del almacén.
func (r *StockRepo) ListByWarehouse(_ context.Context, warehouseID string) ([]*entity.StockRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selectLocked(entity.StockFilter{WarehouseID: warehouseID}), nil
}

func (r *StockRepo) insertLocked(id, productID, warehouseID string, quantity int, isActive bool) *entity.StockRecord {
	if id == "" {
		id = uuid.New().String()
	}
	now := r.now()
	rec := &entity.StockRecord{
		ID:          id,
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    quantity,
		IsActive:    isActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.seq++
	r.byID[id] = rec
	r.byPair[pairKey{productID, warehouseID}] = id
	r.order[id] = r.seq
	return rec
}

// selectLocked devuelve copias de los registros que cumplen el filtro, en orden de inserción.
func (r *StockRepo) selectLocked(filter entity.StockFilter) []*entity.StockRecord {
	out := make([]*entity.StockRecord, 0, len(r.byID))
	for _, rec := range r.byID {
		if filter.Matches(rec) {
			out = append(out, clone(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.order[out[i].ID] < r.order[out[j].ID]
	})
	return out
}

func clone(rec *entity.StockRecord) *entity.StockRecord {
	c := *rec
	return &c
}
