package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de test
// ──────────────────────────────────────────────────────────────────────────────

// fakeCatalog responde con los productos conocidos y cuenta las llamadas.
type fakeCatalog struct {
	mu       sync.Mutex
	products map[string]entity.CatalogProduct
	err      error
	calls    [][]string
}

func newFakeCatalog(ids ...string) *fakeCatalog {
	c := &fakeCatalog{products: map[string]entity.CatalogProduct{}}
	for _, id := range ids {
		c.add(id)
	}
	return c
}

func (c *fakeCatalog) add(id string) {
	name := "Producto " + id
	c.products[id] = entity.CatalogProduct{
		ID:     id,
		Name:   name,
		Fields: map[string]any{"id": id, "name": name, "sku": "SKU-" + id},
	}
}

func (c *fakeCatalog) LookupByIDs(_ context.Context, ids []string) ([]entity.CatalogProduct, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, append([]string(nil), ids...))
	if c.err != nil {
		return nil, c.err
	}
	out := []entity.CatalogProduct{}
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type publishedEvent struct {
	name    string
	payload any
}

// recordingPublisher guarda los eventos emitidos.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, name string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{name: name, payload: payload})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.name)
	}
	return out
}

// failingDeltaStore falla en ApplyDelta con un error del motor.
type failingDeltaStore struct {
	*memory.StockRepo
}

func (failingDeltaStore) ApplyDelta(context.Context, string, string, int) (*entity.StockRecord, error) {
	return nil, errors.New("apply stock delta: conn closed")
}

type fixture struct {
	uc        *inventory.LedgerUseCase
	store     *memory.StockRepo
	catalog   *fakeCatalog
	publisher *recordingPublisher
}

func newFixture(productIDs ...string) fixture {
	f := fixture{
		store:     memory.NewStockRepository(),
		catalog:   newFakeCatalog(productIDs...),
		publisher: &recordingPublisher{},
	}
	f.uc = inventory.NewLedgerUseCase(f.store, f.catalog, f.publisher, zerolog.Nop())
	return f
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func create(t *testing.T, f fixture, productID, warehouseID string, qty int) *dto.InventoryResponse {
	t.Helper()
	out, err := f.uc.Create(context.Background(), dto.CreateInventoryRequest{
		ProductID: productID, WarehouseID: warehouseID, Quantity: qty,
	})
	require.NoError(t, err)
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Create
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_EnriqueceYEmiteEvento(t *testing.T) {
	f := newFixture("P1")

	out := create(t, f, "P1", "W1", 5)

	assert.Equal(t, "Item registrado con éxito", out.Message)
	assert.Equal(t, 5, out.Inventory.Quantity)
	assert.True(t, out.Inventory.IsActive)
	require.NotNil(t, out.Inventory.Product)
	assert.Equal(t, "Producto P1", out.Inventory.Product.Name)
	assert.Equal(t, []string{entity.EventInventoryCreated}, f.publisher.names())

	item, ok := f.publisher.events[0].payload.(dto.InventoryItemDTO)
	require.True(t, ok, "el evento lleva el registro enriquecido")
	assert.Equal(t, out.Inventory.ID, item.ID)
}

func TestCreate_IsActiveExplicito(t *testing.T) {
	f := newFixture("P1")

	out, err := f.uc.Create(context.Background(), dto.CreateInventoryRequest{
		ProductID: "P1", WarehouseID: "W1", Quantity: 0, IsActive: boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, out.Inventory.IsActive)
}

func TestCreate_Unicidad(t *testing.T) {
	f := newFixture("P1")
	create(t, f, "P1", "W1", 5)

	_, err := f.uc.Create(context.Background(), dto.CreateInventoryRequest{ProductID: "P1", WarehouseID: "W1", Quantity: 9})
	require.ErrorIs(t, err, domain.ErrDuplicate)

	rec, err := f.store.FindByProductWarehouse(context.Background(), "P1", "W1")
	require.NoError(t, err)
	assert.Equal(t, 5, rec.Quantity, "el segundo create no escribe")
	assert.Len(t, f.publisher.names(), 1)
}

func TestCreate_ConcurrenteMismoPar_UnSoloRegistro(t *testing.T) {
	f := newFixture("P1")

	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, conflicts := 0, 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Create(context.Background(), dto.CreateInventoryRequest{ProductID: "P1", WarehouseID: "W1", Quantity: 1})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, domain.ErrDuplicate) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestCreate_ProductoInexistente_NoPersiste(t *testing.T) {
	f := newFixture("P1")

	_, err := f.uc.Create(context.Background(), dto.CreateInventoryRequest{ProductID: "P9", WarehouseID: "W1", Quantity: 1})
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	rec, err := f.store.FindByProductWarehouse(context.Background(), "P9", "W1")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Empty(t, f.publisher.names())
}

func TestCreate_CatalogoNoDisponible(t *testing.T) {
	f := newFixture("P1")
	f.catalog.err = fmt.Errorf("%w: HTTP 502", domain.ErrCatalogUnavailable)

	_, err := f.uc.Create(context.Background(), dto.CreateInventoryRequest{ProductID: "P1", WarehouseID: "W1", Quantity: 1})
	require.ErrorIs(t, err, domain.ErrCatalogUnavailable)

	rec, _ := f.store.FindByProductWarehouse(context.Background(), "P1", "W1")
	assert.Nil(t, rec)
}

func TestCreate_EntradaInvalida(t *testing.T) {
	f := newFixture("P1")
	cases := []dto.CreateInventoryRequest{
		{WarehouseID: "W1", Quantity: 1},
		{ProductID: "P1", Quantity: 1},
		{ProductID: "P1", WarehouseID: "W1", Quantity: -1},
	}
	for _, in := range cases {
		_, err := f.uc.Create(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
	assert.Empty(t, f.catalog.calls, "la validación local va antes del catálogo")
}

// ──────────────────────────────────────────────────────────────────────────────
// Update / Remove
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdate_ModificaYEmiteEvento(t *testing.T) {
	f := newFixture("P1")
	created := create(t, f, "P1", "W1", 5)

	out, err := f.uc.Update(context.Background(), created.Inventory.ID, dto.UpdateInventoryRequest{Quantity: intPtr(8)})
	require.NoError(t, err)

	assert.Equal(t, "Item actualizado con éxito", out.Message)
	assert.Equal(t, 8, out.Inventory.Quantity)
	assert.True(t, out.Inventory.IsActive, "is_active no cambia si no viene")
	require.NotNil(t, out.Inventory.Product)
	assert.Equal(t, []string{entity.EventInventoryCreated, entity.EventInventoryUpdated}, f.publisher.names())
}

func TestUpdate_Inexistente(t *testing.T) {
	f := newFixture("P1")

	_, err := f.uc.Update(context.Background(), "no-existe", dto.UpdateInventoryRequest{Quantity: intPtr(1)})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.publisher.names())
}

func TestUpdate_QuantityNegativa(t *testing.T) {
	f := newFixture("P1")
	created := create(t, f, "P1", "W1", 5)

	_, err := f.uc.Update(context.Background(), created.Inventory.ID, dto.UpdateInventoryRequest{Quantity: intPtr(-1)})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdate_CatalogoCaido_RegistroIntacto(t *testing.T) {
	f := newFixture("P1")
	created := create(t, f, "P1", "W1", 5)
	f.catalog.err = domain.ErrCatalogUnavailable

	_, err := f.uc.Update(context.Background(), created.Inventory.ID, dto.UpdateInventoryRequest{Quantity: intPtr(99)})
	require.ErrorIs(t, err, domain.ErrCatalogUnavailable)

	rec, err := f.store.FindByID(context.Background(), created.Inventory.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, rec.Quantity)
}

func TestUpdate_ProductoBorradoDelCatalogo_ProductNil(t *testing.T) {
	f := newFixture("P1")
	created := create(t, f, "P1", "W1", 5)
	delete(f.catalog.products, "P1")

	out, err := f.uc.Update(context.Background(), created.Inventory.ID, dto.UpdateInventoryRequest{IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.Nil(t, out.Inventory.Product)
	assert.False(t, out.Inventory.IsActive)
}

func TestRemove_DevuelveBorradoYEmiteEvento(t *testing.T) {
	f := newFixture("P1")
	created := create(t, f, "P1", "W1", 5)

	out, err := f.uc.Remove(context.Background(), created.Inventory.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Inventory.ID, out.ID)
	assert.Equal(t, 5, out.Quantity)
	assert.Equal(t, entity.EventInventoryDeleted, f.publisher.names()[1])

	_, err = f.uc.Remove(context.Background(), created.Inventory.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, f.publisher.names(), 2)
}

// ──────────────────────────────────────────────────────────────────────────────
// List / FindProductsByWarehouse
// ──────────────────────────────────────────────────────────────────────────────

func TestList_Paginacion25Registros(t *testing.T) {
	f := newFixture()
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("P%02d", i)
		f.catalog.add(id)
		create(t, f, id, "W1", i)
	}
	f.catalog.add("OTRO")
	create(t, f, "OTRO", "W2", 1)
	f.catalog.calls = nil

	out, err := f.uc.List(context.Background(), "W1", dto.PageRequest{Page: 2, Limit: 10})
	require.NoError(t, err)

	assert.Len(t, out.Inventory, 10)
	assert.Equal(t, dto.InventoryPageMeta{Page: 2, LastPage: 3, Total: 25}, out.Meta)
	assert.Equal(t, "P10", out.Inventory[0].ProductID)
	for _, item := range out.Inventory {
		require.NotNil(t, item.Product)
		assert.Equal(t, item.ProductID, item.Product.ID)
	}
	require.Len(t, f.catalog.calls, 1, "una sola consulta al catálogo por página")
	assert.Len(t, f.catalog.calls[0], 10)
}

func TestList_Defaults(t *testing.T) {
	f := newFixture("P1")
	create(t, f, "P1", "W1", 1)

	out, err := f.uc.List(context.Background(), "", dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, dto.InventoryPageMeta{Page: 1, LastPage: 1, Total: 1}, out.Meta)
}

func TestList_ExcluyeInactivos(t *testing.T) {
	f := newFixture("P1", "P2")
	create(t, f, "P1", "W1", 1)
	_, err := f.uc.Create(context.Background(), dto.CreateInventoryRequest{
		ProductID: "P2", WarehouseID: "W1", Quantity: 1, IsActive: boolPtr(false),
	})
	require.NoError(t, err)

	out, err := f.uc.List(context.Background(), "W1", dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, out.Inventory, 1)
	assert.Equal(t, "P1", out.Inventory[0].ProductID)
}

func TestList_ProductoAusente_ProductNil(t *testing.T) {
	f := newFixture("P1")
	create(t, f, "P1", "W1", 1)
	delete(f.catalog.products, "P1")

	out, err := f.uc.List(context.Background(), "W1", dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, out.Inventory, 1)
	assert.Nil(t, out.Inventory[0].Product)
}

func TestList_PaginaInvalida(t *testing.T) {
	f := newFixture()

	_, err := f.uc.List(context.Background(), "", dto.PageRequest{Page: 1, Limit: 101})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.List(context.Background(), "", dto.PageRequest{Page: -1, Limit: 10})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestList_PaginaEnorme_NoDesborda(t *testing.T) {
	f := newFixture("P1")
	create(t, f, "P1", "W1", 1)

	require.NotPanics(t, func() {
		_, err := f.uc.List(context.Background(), "", dto.PageRequest{Page: math.MaxInt64 / 50, Limit: 100})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	out, err := f.uc.List(context.Background(), "", dto.PageRequest{Page: math.MaxInt / 100, Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, out.Inventory)
	assert.Equal(t, 1, out.Meta.Total)
}

func TestList_PaginaVacia_SinLlamarAlCatalogo(t *testing.T) {
	f := newFixture()

	out, err := f.uc.List(context.Background(), "W1", dto.PageRequest{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, out.Inventory)
	assert.Equal(t, 0, out.Meta.LastPage)
	assert.Empty(t, f.catalog.calls)
}

func TestFindProductsByWarehouse_LecturaTrasEscritura(t *testing.T) {
	f := newFixture("P1")
	create(t, f, "P1", "W1", 5)

	rows, err := f.uc.FindProductsByWarehouse(context.Background(), "W1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "P1", rows[0]["id"])
	assert.Equal(t, "SKU-P1", rows[0]["sku"])
	assert.Equal(t, 5, rows[0]["quantity"])
}

func TestFindProductsByWarehouse_QuantityDelInventario(t *testing.T) {
	f := newFixture()
	f.catalog.products["P1"] = entity.CatalogProduct{ID: "P1", Fields: map[string]any{"id": "P1", "quantity": 999}}
	create(t, f, "P1", "W1", 5)

	rows, err := f.uc.FindProductsByWarehouse(context.Background(), "W1")
	require.NoError(t, err)
	assert.Equal(t, 5, rows[0]["quantity"], "quantity del inventario prevalece sobre el del catálogo")
}

// ──────────────────────────────────────────────────────────────────────────────
// AdjustStock
// ──────────────────────────────────────────────────────────────────────────────

func adjust(f fixture, productID, warehouseID string, delta int) (*dto.InventoryDTO, error) {
	return f.uc.AdjustStock(context.Background(), dto.AdjustStockRequest{
		ProductID: productID, WarehouseID: warehouseID, Quantity: &delta,
	})
}

func TestAdjustStock_AutoCreaYRechazaNegativo(t *testing.T) {
	f := newFixture()

	out, err := adjust(f, "P2", "W1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Quantity)
	assert.True(t, out.IsActive)

	_, err = adjust(f, "P2", "W1", -10)
	require.ErrorIs(t, err, domain.ErrNegativeStock)

	rec, err := f.store.FindByProductWarehouse(context.Background(), "P2", "W1")
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Quantity)

	assert.Empty(t, f.publisher.names(), "el ajuste no emite eventos")
	assert.Empty(t, f.catalog.calls, "el ajuste no consulta el catálogo")
}

func TestAdjustStock_RestaSinRegistro(t *testing.T) {
	f := newFixture()

	_, err := adjust(f, "P1", "W1", -1)
	require.ErrorIs(t, err, domain.ErrInvalidAdjustment)

	rec, _ := f.store.FindByProductWarehouse(context.Background(), "P1", "W1")
	assert.Nil(t, rec)
}

func TestAdjustStock_HastaCero(t *testing.T) {
	f := newFixture()
	_, err := adjust(f, "P1", "W1", 4)
	require.NoError(t, err)

	out, err := adjust(f, "P1", "W1", -4)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Quantity)
}

func TestAdjustStock_SinQuantity(t *testing.T) {
	f := newFixture()

	_, err := f.uc.AdjustStock(context.Background(), dto.AdjustStockRequest{ProductID: "P1", WarehouseID: "W1"})
	require.ErrorIs(t, err, domain.ErrMissingQuantity)
}

func TestAdjustStock_ErrorDelAlmacen_Envuelto(t *testing.T) {
	store := failingDeltaStore{memory.NewStockRepository()}
	uc := inventory.NewLedgerUseCase(store, newFakeCatalog(), &recordingPublisher{}, zerolog.Nop())

	_, err := uc.AdjustStock(context.Background(), dto.AdjustStockRequest{ProductID: "P1", WarehouseID: "W1", Quantity: intPtr(1)})
	require.ErrorIs(t, err, domain.ErrAdjustmentFailed)
	assert.Contains(t, err.Error(), "conn closed", "conserva el mensaje de la causa")
}

func TestAdjustStock_ConcurrenteSinPerdidas(t *testing.T) {
	f := newFixture()

	// Stock inicial suficiente para que ninguna resta falle en cualquier intercalado.
	_, err := adjust(f, "P1", "W1", 100)
	require.NoError(t, err)

	const n = 100
	var wg sync.WaitGroup
	errs := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := adjust(f, "P1", "W1", 3)
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := adjust(f, "P1", "W1", -1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rec, err := f.store.FindByProductWarehouse(context.Background(), "P1", "W1")
	require.NoError(t, err)
	assert.Equal(t, 100+3*n-n, rec.Quantity)
}
