package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// Verificar en tiempo de compilación que HTTPClient implementa CatalogClient.
var _ inventory.CatalogClient = (*HTTPClient)(nil)

const (
	findByIDsPath   = "/products/find-by-ids"
	maxResponseSize = 4 << 20
	defaultTimeout  = 5 * time.Second
)

// HTTPClient adaptador request/reply contra el servicio de catálogo.
// Una llamada por consulta, con todos los ids en el mismo request.
type HTTPClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	log        zerolog.Logger
}

// NewHTTPClient construye el cliente. timeout <= 0 usa 5 s.
func NewHTTPClient(baseURL string, timeout time.Duration, log zerolog.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
		log:        log.With().Str("component", "catalog-client").Logger(),
	}
}

type findByIDsRequest struct {
	IDs []string `json:"ids"`
}

// LookupByIDs devuelve los productos del catálogo para los ids pedidos.
// Respuesta vacía bien formada = slice vacío sin error.
// Timeout, error de red, HTTP != 2xx o cuerpo ilegible = domain.ErrCatalogUnavailable.
func (c *HTTPClient) LookupByIDs(ctx context.Context, ids []string) ([]entity.CatalogProduct, error) {
	if len(ids) == 0 {
		return []entity.CatalogProduct{}, nil
	}

	body, err := json.Marshal(findByIDsRequest{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("catálogo: serializar request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+findByIDsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: crear request: %v", domain.ErrCatalogUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: timeout o cancelación: %v", domain.ErrCatalogUnavailable, ctx.Err())
		}
		return nil, fmt.Errorf("%w: llamada HTTP fallida: %v", domain.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: leer respuesta: %v", domain.ErrCatalogUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d", domain.ErrCatalogUnavailable, resp.StatusCode)
	}

	products := make([]entity.CatalogProduct, 0, len(ids))
	if len(bytes.TrimSpace(rawBody)) == 0 {
		return products, nil
	}
	if err := json.Unmarshal(rawBody, &products); err != nil {
		return nil, fmt.Errorf("%w: deserializar respuesta: %v", domain.ErrCatalogUnavailable, err)
	}
	if products == nil {
		products = []entity.CatalogProduct{}
	}
	for i := range products {
		if products[i].HasInvalidPrice() {
			c.log.Warn().
				Str("product_id", products[i].ID).
				Interface("price", products[i].Fields["price"]).
				Msg("price no numérico en catálogo, se usa 0")
		}
	}
	return products, nil
}
