package dto

import "math"

// Valores por defecto y límites de paginación.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageRequest paginación por número de página (page empieza en 1).
type PageRequest struct {
	Page  int `query:"page" validate:"min=1"`
	Limit int `query:"limit" validate:"min=1,max=100"`
}

// ApplyDefaults aplica valores por defecto si Page/Limit vienen en cero (ausentes).
func (p *PageRequest) ApplyDefaults() {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
}

// Valid indica si la página está en rango después de aplicar defaults.
// Rechaza páginas cuyo desplazamiento (page-1)*limit desbordaría int.
func (p PageRequest) Valid() bool {
	if p.Page < 1 || p.Limit < 1 || p.Limit > MaxLimit {
		return false
	}
	return p.Page-1 <= math.MaxInt/p.Limit
}

// Skip devuelve el desplazamiento (page-1)*limit. Solo es seguro si Valid() es true.
func (p PageRequest) Skip() int {
	return (p.Page - 1) * p.Limit
}

// LastPage devuelve ceil(total/limit).
func LastPage(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
