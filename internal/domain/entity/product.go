package entity

import "time"

// Product es la vista mínima del catálogo que el motor necesita: existencia y
// pertenencia a la empresa. Precios y metadatos los posee el catálogo externo.
type Product struct {
	ID        string
	TenantID  string
	SKU       string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
