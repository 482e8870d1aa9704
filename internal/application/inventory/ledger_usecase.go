package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

const tracerName = "github.com/jhoicas/inventory-ledger/internal/application/inventory"

// LedgerUseCase orquesta el almacén de existencias y el catálogo para las operaciones del
// inventario. No guarda estado entre llamadas; la exclusión mutua por par producto+almacén
// es responsabilidad del StockRepository.
type LedgerUseCase struct {
	stock     repository.StockRepository
	catalog   CatalogClient
	publisher EventPublisher
	log       zerolog.Logger
	tracer    trace.Tracer
}

// NewLedgerUseCase construye el caso de uso con sus dependencias explícitas.
func NewLedgerUseCase(
	stock repository.StockRepository,
	catalog CatalogClient,
	publisher EventPublisher,
	log zerolog.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		stock:     stock,
		catalog:   catalog,
		publisher: publisher,
		log:       log.With().Str("component", "ledger").Logger(),
		tracer:    otel.Tracer(tracerName),
	}
}

// Create registra un producto en un almacén.
// Orden: duplicado (local) → catálogo (remoto) → insert.
// La validación contra el catálogo es previa, no una garantía fuerte: el producto puede
// borrarse en el catálogo después del insert.
func (uc *LedgerUseCase) Create(ctx context.Context, in dto.CreateInventoryRequest) (_ *dto.InventoryResponse, err error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.Create", trace.WithAttributes(
		attribute.String("inventory.product_id", in.ProductID),
		attribute.String("inventory.warehouse_id", in.WarehouseID),
	))
	defer func() { endSpan(span, err) }()

	if in.ProductID == "" || in.WarehouseID == "" || in.Quantity < 0 {
		return nil, domain.ErrInvalidInput
	}

	existing, err := uc.stock.FindByProductWarehouse(ctx, in.ProductID, in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	products, err := uc.catalog.LookupByIDs(ctx, []string{in.ProductID})
	if err != nil {
		return nil, err
	}
	product := findProduct(products, in.ProductID)
	if product == nil {
		return nil, domain.ErrProductNotFound
	}

	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}
	// Insert también rechaza el duplicado de forma atómica si otra llamada ganó la carrera.
	created, err := uc.stock.Insert(ctx, &entity.StockRecord{
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Quantity:    in.Quantity,
		IsActive:    isActive,
	})
	if err != nil {
		return nil, err
	}

	item := enrich(created, product)
	uc.publisher.Publish(ctx, entity.EventInventoryCreated, item)
	uc.log.Info().
		Str("inventory_id", created.ID).
		Str("product_id", created.ProductID).
		Str("warehouse_id", created.WarehouseID).
		Int("quantity", created.Quantity).
		Msg("inventario creado")

	return &dto.InventoryResponse{Message: "Item registrado con éxito", Inventory: item}, nil
}

// Update modifica quantity y/o is_active de un registro existente.
// No repite las validaciones de create: confía en el vínculo producto+almacén ya existente.
// Si el catálogo falla, el registro queda sin cambios.
func (uc *LedgerUseCase) Update(ctx context.Context, id string, in dto.UpdateInventoryRequest) (_ *dto.InventoryResponse, err error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.Update", trace.WithAttributes(
		attribute.String("inventory.id", id),
	))
	defer func() { endSpan(span, err) }()

	if id == "" || (in.Quantity != nil && *in.Quantity < 0) {
		return nil, domain.ErrInvalidInput
	}

	current, err := uc.stock.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}

	products, err := uc.catalog.LookupByIDs(ctx, []string{current.ProductID})
	if err != nil {
		return nil, err
	}

	updated, err := uc.stock.UpdateFields(ctx, id, in.Patch())
	if err != nil {
		return nil, err
	}

	item := enrich(updated, findProduct(products, updated.ProductID))
	uc.publisher.Publish(ctx, entity.EventInventoryUpdated, item)
	uc.log.Info().
		Str("inventory_id", updated.ID).
		Int("quantity", updated.Quantity).
		Bool("is_active", updated.IsActive).
		Msg("inventario actualizado")

	return &dto.InventoryResponse{Message: "Item actualizado con éxito", Inventory: item}, nil
}

// Remove elimina el registro (borrado físico) y devuelve la instantánea borrada.
func (uc *LedgerUseCase) Remove(ctx context.Context, id string) (_ *dto.InventoryDTO, err error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.Remove", trace.WithAttributes(
		attribute.String("inventory.id", id),
	))
	defer func() { endSpan(span, err) }()

	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	deleted, err := uc.stock.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	out := dto.ToInventoryDTO(deleted)
	uc.publisher.Publish(ctx, entity.EventInventoryDeleted, out)
	uc.log.Info().Str("inventory_id", deleted.ID).Msg("inventario eliminado")
	return &out, nil
}

// List devuelve una página de inventarios activos (opcionalmente de un almacén) enriquecida
// con una sola consulta al catálogo. Un producto ausente en el catálogo deja product en nil.
func (uc *LedgerUseCase) List(ctx context.Context, warehouseID string, page dto.PageRequest) (_ *dto.InventoryPageResponse, err error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.List", trace.WithAttributes(
		attribute.String("inventory.warehouse_id", warehouseID),
		attribute.Int("inventory.page", page.Page),
		attribute.Int("inventory.limit", page.Limit),
	))
	defer func() { endSpan(span, err) }()

	page.ApplyDefaults()
	if !page.Valid() {
		return nil, domain.ErrInvalidInput
	}

	records, total, err := uc.stock.PageQuery(ctx, entity.StockFilter{WarehouseID: warehouseID}, page.Skip(), page.Limit)
	if err != nil {
		return nil, err
	}

	byID, err := uc.lookupProducts(ctx, records)
	if err != nil {
		return nil, err
	}

	items := make([]dto.InventoryItemDTO, 0, len(records))
	for _, r := range records {
		items = append(items, enrich(r, byID[r.ProductID]))
	}

	return &dto.InventoryPageResponse{
		Inventory: items,
		Meta: dto.InventoryPageMeta{
			Page:     page.Page,
			LastPage: dto.LastPage(total, page.Limit),
			Total:    total,
		},
	}, nil
}

// FindProductsByWarehouse devuelve, por cada registro activo del almacén, los campos del
// producto en el catálogo con quantity tomado del inventario.
func (uc *LedgerUseCase) FindProductsByWarehouse(ctx context.Context, warehouseID string) (_ []dto.WarehouseProductDTO, err error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.FindProductsByWarehouse", trace.WithAttributes(
		attribute.String("inventory.warehouse_id", warehouseID),
	))
	defer func() { endSpan(span, err) }()

	if warehouseID == "" {
		return nil, domain.ErrInvalidInput
	}

	records, err := uc.stock.ListByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	byID, err := uc.lookupProducts(ctx, records)
	if err != nil {
		return nil, err
	}

	out := make([]dto.WarehouseProductDTO, 0, len(records))
	for _, r := range records {
		row := dto.WarehouseProductDTO{}
		if p := byID[r.ProductID]; p != nil {
			row = p.Flatten()
		}
		row["quantity"] = r.Quantity
		out = append(out, row)
	}
	return out, nil
}

// AdjustStock suma delta (con signo) al par producto+almacén; crea el registro si no existe y
// delta >= 0. Es la primitiva de bajo nivel del inventario: no enriquece con catálogo ni emite
// eventos. ErrNegativeStock y ErrInvalidAdjustment se devuelven tal cual; cualquier otro fallo
// del almacén se envuelve en ErrAdjustmentFailed con el mensaje de la causa.
func (uc *LedgerUseCase) AdjustStock(ctx context.Context, in dto.AdjustStockRequest) (_ *dto.InventoryDTO, err error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.AdjustStock", trace.WithAttributes(
		attribute.String("inventory.product_id", in.ProductID),
		attribute.String("inventory.warehouse_id", in.WarehouseID),
	))
	defer func() { endSpan(span, err) }()

	if in.Quantity == nil {
		return nil, domain.ErrMissingQuantity
	}
	if in.ProductID == "" || in.WarehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	span.SetAttributes(attribute.Int("inventory.delta", *in.Quantity))

	rec, err := uc.stock.ApplyDelta(ctx, in.ProductID, in.WarehouseID, *in.Quantity)
	if err != nil {
		if errors.Is(err, domain.ErrNegativeStock) || errors.Is(err, domain.ErrInvalidAdjustment) {
			return nil, err
		}
		uc.log.Error().Err(err).
			Str("product_id", in.ProductID).
			Str("warehouse_id", in.WarehouseID).
			Int("delta", *in.Quantity).
			Msg("ajuste de inventario fallido")
		return nil, fmt.Errorf("%w: %s", domain.ErrAdjustmentFailed, err.Error())
	}

	out := dto.ToInventoryDTO(rec)
	return &out, nil
}

// lookupProducts hace una única consulta al catálogo con los productIds distintos de la página.
func (uc *LedgerUseCase) lookupProducts(ctx context.Context, records []*entity.StockRecord) (map[string]*entity.CatalogProduct, error) {
	ids := make([]string, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, ok := seen[r.ProductID]; ok {
			continue
		}
		seen[r.ProductID] = struct{}{}
		ids = append(ids, r.ProductID)
	}
	if len(ids) == 0 {
		return map[string]*entity.CatalogProduct{}, nil
	}

	products, err := uc.catalog.LookupByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.CatalogProduct, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return byID, nil
}

func findProduct(products []entity.CatalogProduct, id string) *entity.CatalogProduct {
	for i := range products {
		if products[i].ID == id {
			return &products[i]
		}
	}
	return nil
}

func enrich(r *entity.StockRecord, product *entity.CatalogProduct) dto.InventoryItemDTO {
	return dto.InventoryItemDTO{InventoryDTO: dto.ToInventoryDTO(r), Product: product}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
