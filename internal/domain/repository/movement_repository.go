package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmapos/farmacore/internal/domain/entity"
)

// MovementRepository es el puerto de persistencia del ledger de movimientos.
// Append-only: no hay Update ni Delete.
type MovementRepository interface {
	// Create persiste un movimiento. Asigna ID si viene vacío.
	Create(ctx context.Context, movement *entity.Movement) error

	// GetByID devuelve un movimiento o nil si no existe.
	GetByID(ctx context.Context, tenantID, id string) (*entity.Movement, error)

	// ListByProduct lista movimientos de un producto, más recientes primero.
	ListByProduct(ctx context.Context, tenantID, productID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error)

	// ListByLocation lista movimientos de una ubicación, más recientes primero.
	ListByLocation(ctx context.Context, tenantID string, location entity.Location, from, to *time.Time, limit, offset int) ([]*entity.Movement, error)

	// ListByReference lista los movimientos ligados a una referencia (venta,
	// traslado, factura). Se usa para validar devoluciones contra lo vendido.
	ListByReference(ctx context.Context, tenantID, reference string) ([]*entity.Movement, error)

	// ListBatches devuelve el estado derivado de los lotes de un producto en
	// una ubicación: remanente (suma firmada), vencimiento del primer IN y
	// timestamp del último movimiento. Incluye lotes con remanente <= 0 no;
	// solo los que aún tienen existencia.
	ListBatches(ctx context.Context, key entity.StockKey) ([]entity.Batch, error)

	// SumByKey suma las cantidades firmadas del ledger para una clave de stock.
	// Existe para verificar el invariante ledger == índice.
	SumByKey(ctx context.Context, key entity.StockKey) (decimal.Decimal, error)
}
