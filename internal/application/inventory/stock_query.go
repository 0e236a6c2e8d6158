package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmapos/farmacore/internal/domain"
	"github.com/farmapos/farmacore/internal/domain/entity"
	"github.com/farmapos/farmacore/internal/domain/repository"
)

// StockQueryUseCase consultas de solo lectura sobre el índice y el ledger.
type StockQueryUseCase struct {
	stockRepo        repository.StockLevelRepository
	movementRepo     repository.MovementRepository
	nearExpiryWindow time.Duration
	now              func() time.Time
}

// NewStockQueryUseCase construye el caso de uso. days <= 0 usa el default.
func NewStockQueryUseCase(stockRepo repository.StockLevelRepository, movementRepo repository.MovementRepository, days int) *StockQueryUseCase {
	if days <= 0 {
		days = DefaultNearExpiryDays
	}
	return &StockQueryUseCase{
		stockRepo:        stockRepo,
		movementRepo:     movementRepo,
		nearExpiryWindow: time.Duration(days) * 24 * time.Hour,
		now:              time.Now,
	}
}

// GetLevel devuelve el nivel actual de una clave, o ErrStockRecordNotFound.
func (uc *StockQueryUseCase) GetLevel(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error) {
	level, err := uc.stockRepo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if level == nil {
		return nil, domain.ErrStockRecordNotFound
	}
	return level, nil
}

// ListBatches devuelve los lotes con remanente de un producto en una
// ubicación, con su marca near-expiry evaluada a "now".
func (uc *StockQueryUseCase) ListBatches(ctx context.Context, key entity.StockKey) ([]entity.Batch, []bool, error) {
	batches, err := uc.movementRepo.ListBatches(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	now := uc.now()
	near := make([]bool, len(batches))
	for i := range batches {
		near[i] = batches[i].NearExpiry(now, uc.nearExpiryWindow)
	}
	return batches, near, nil
}

// ListLevels lista los niveles de la empresa, opcionalmente por ubicación.
func (uc *StockQueryUseCase) ListLevels(ctx context.Context, tenantID string, location *entity.Location, limit, offset int) ([]*entity.StockLevel, error) {
	return uc.stockRepo.ListByTenant(ctx, tenantID, location, limit, offset)
}

// ListLowStock devuelve las claves en o bajo su punto de reorden con la
// cantidad sugerida de pedido (reorden * 1.5 − actual, mínimo el faltante).
func (uc *StockQueryUseCase) ListLowStock(ctx context.Context, tenantID string, location *entity.Location) ([]*entity.StockLevel, []decimal.Decimal, error) {
	levels, err := uc.stockRepo.ListBelowReorderPoint(ctx, tenantID, location)
	if err != nil {
		return nil, nil, err
	}
	suggested := make([]decimal.Decimal, len(levels))
	ideal := decimal.NewFromFloat(1.5)
	for i, lvl := range levels {
		if lvl.ReorderPoint == nil {
			continue
		}
		qty := lvl.ReorderPoint.Mul(ideal).Sub(lvl.Quantity)
		if qty.LessThan(decimal.Zero) {
			qty = decimal.Zero
		}
		suggested[i] = qty
	}
	return levels, suggested, nil
}

// MovementsByProduct historial del ledger para un producto.
func (uc *StockQueryUseCase) MovementsByProduct(ctx context.Context, tenantID, productID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	return uc.movementRepo.ListByProduct(ctx, tenantID, productID, from, to, limit, offset)
}

// MovementsByLocation historial del ledger para una ubicación.
func (uc *StockQueryUseCase) MovementsByLocation(ctx context.Context, tenantID string, location entity.Location, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	return uc.movementRepo.ListByLocation(ctx, tenantID, location, from, to, limit, offset)
}

// CheckConsistency verifica el invariante índice == Σ ledger para una clave.
// Devuelve ambas cifras; difieren solo ante un bug o una mutación por fuera
// del motor.
func (uc *StockQueryUseCase) CheckConsistency(ctx context.Context, key entity.StockKey) (indexQty, ledgerQty decimal.Decimal, consistent bool, err error) {
	level, err := uc.stockRepo.Get(ctx, key)
	if err != nil {
		return decimal.Zero, decimal.Zero, false, err
	}
	if level != nil {
		indexQty = level.Quantity
	}
	ledgerQty, err = uc.movementRepo.SumByKey(ctx, key)
	if err != nil {
		return decimal.Zero, decimal.Zero, false, err
	}
	return indexQty, ledgerQty, indexQty.Equal(ledgerQty), nil
}
