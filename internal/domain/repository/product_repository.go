package repository

import (
	"context"

	"github.com/farmapos/farmacore/internal/domain/entity"
)

// ProductRepository es la interfaz estrecha hacia el catálogo: el motor solo
// confirma existencia y pertenencia, no valida precios ni metadatos.
type ProductRepository interface {
	// GetByID devuelve el producto o nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}
