package entity

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// CatalogProduct es un producto tal como lo devuelve el servicio de catálogo.
// El inventario no es dueño de su esquema: conserva todos los campos recibidos en Fields
// y expone ID, Name y Price para acceso tipado.
type CatalogProduct struct {
	ID     string
	Name   string
	Price  decimal.Decimal
	Fields map[string]any

	invalidPrice bool
}

// UnmarshalJSON decodifica el objeto completo y extrae los campos conocidos.
// Un price no numérico deja Price en cero (el valor original sigue en Fields) y
// marca el producto con HasInvalidPrice; no invalida la respuesta completa.
func (p *CatalogProduct) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("producto de catálogo vacío")
	}
	p.Fields = fields
	p.ID = stringField(fields["id"])
	p.Name = stringField(fields["name"])
	p.Price = decimal.Zero
	p.invalidPrice = false
	if raw, ok := fields["price"]; ok && raw != nil {
		price, err := decimal.NewFromString(stringField(raw))
		if err != nil {
			p.invalidPrice = true
			return nil
		}
		p.Price = price
	}
	return nil
}

// HasInvalidPrice indica que el catálogo envió un price que no es un número.
func (p CatalogProduct) HasInvalidPrice() bool {
	return p.invalidPrice
}

// MarshalJSON emite el mismo conjunto de campos recibido del catálogo.
func (p CatalogProduct) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Flatten())
}

// Flatten devuelve una copia de los campos del catálogo, con id/name presentes siempre.
func (p CatalogProduct) Flatten() map[string]any {
	out := make(map[string]any, len(p.Fields)+2)
	for k, v := range p.Fields {
		out[k] = v
	}
	if p.ID != "" {
		out["id"] = p.ID
	}
	if p.Name != "" {
		out["name"] = p.Name
	}
	return out
}

func stringField(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return decimal.NewFromFloat(t).String()
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
