package repository

import (
	"context"

	"github.com/farmapos/farmacore/internal/domain/entity"
)

// TransferRepository es el puerto de persistencia de traslados de stock.
type TransferRepository interface {
	// Create persiste un traslado nuevo (status pending). Asigna ID si falta.
	Create(ctx context.Context, transfer *entity.StockTransfer) error

	// GetByID devuelve un traslado o nil si no existe. El tenant puede ser el
	// origen o el destino (traslados cross-tenant son visibles para ambos).
	GetByID(ctx context.Context, tenantID, id string) (*entity.StockTransfer, error)

	// GetForUpdate bloquea la fila del traslado; garantiza que dos approve
	// concurrentes no escriban el ledger dos veces.
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.StockTransfer, error)

	// UpdateStatus fija el estado terminal, quién decidió y las notas.
	UpdateStatus(ctx context.Context, transfer *entity.StockTransfer) error

	// Delete elimina un traslado. El caso de uso garantiza status != completed.
	Delete(ctx context.Context, tenantID, id string) error

	// ListByTenant lista traslados donde la empresa es origen o destino,
	// opcionalmente filtrados por estado.
	ListByTenant(ctx context.Context, tenantID, status string, limit, offset int) ([]*entity.StockTransfer, error)
}
