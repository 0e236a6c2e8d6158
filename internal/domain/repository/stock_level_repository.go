package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmapos/farmacore/internal/domain/entity"
)

// StockLevelRepository es el puerto del índice materializado de stock.
// El índice solo se muta dentro de la misma transacción que el append del
// movimiento correspondiente.
type StockLevelRepository interface {
	// Get devuelve el nivel o nil si la clave no existe.
	Get(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error)

	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) y la devuelve. Si la
	// clave no existe devuelve un nivel en cero sin persistir; ApplyDelta
	// crea la fila.
	GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error)

	// ApplyDelta suma el delta firmado a la cantidad de la clave, creando la
	// fila si no existe, y devuelve el nivel resultante. La suma es relativa
	// en el almacén (nunca escribe una cantidad absoluta): dos transacciones
	// que estrenan la misma clave acumulan ambos deltas en vez de pisarse.
	ApplyDelta(ctx context.Context, key entity.StockKey, delta decimal.Decimal, at time.Time) (*entity.StockLevel, error)

	// UpdateThresholds actualiza min/max/punto de reorden de una clave
	// existente. Clave ausente: domain.ErrStockRecordNotFound (no auto-crea).
	UpdateThresholds(ctx context.Context, level *entity.StockLevel) error

	// Delete elimina el registro del índice (solo mantenimiento; el ledger
	// queda intacto). Clave ausente: domain.ErrStockRecordNotFound.
	Delete(ctx context.Context, key entity.StockKey) error

	// ListByTenant lista los niveles de una empresa, opcionalmente filtrados
	// por ubicación.
	ListByTenant(ctx context.Context, tenantID string, location *entity.Location, limit, offset int) ([]*entity.StockLevel, error)

	// ListBelowReorderPoint devuelve los niveles en o bajo su punto de reorden.
	ListBelowReorderPoint(ctx context.Context, tenantID string, location *entity.Location) ([]*entity.StockLevel, error)
}
