package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmapos/farmacore/internal/domain"
	"github.com/farmapos/farmacore/internal/domain/entity"
	"github.com/farmapos/farmacore/internal/domain/repository"
)

// StockMaintenanceUseCase operaciones administrativas sobre el índice:
// umbrales de reorden y limpieza de registros. A diferencia del registro de
// movimientos, aquí una clave ausente NO se auto-crea.
type StockMaintenanceUseCase struct {
	stockRepo repository.StockLevelRepository
	reporter  *Reporter
}

// NewStockMaintenanceUseCase construye el caso de uso.
func NewStockMaintenanceUseCase(stockRepo repository.StockLevelRepository, reporter *Reporter) *StockMaintenanceUseCase {
	return &StockMaintenanceUseCase{stockRepo: stockRepo, reporter: reporter}
}

// UpdateThresholds fija min/max/punto de reorden de una clave existente.
// Clave ausente: ErrStockRecordNotFound.
func (uc *StockMaintenanceUseCase) UpdateThresholds(ctx context.Context, key entity.StockKey, minLevel, maxLevel, reorderPoint *decimal.Decimal) error {
	level, err := uc.stockRepo.Get(ctx, key)
	if err != nil {
		return err
	}
	if level == nil {
		return domain.ErrStockRecordNotFound
	}
	level.MinStockLevel = minLevel
	level.MaxStockLevel = maxLevel
	level.ReorderPoint = reorderPoint
	level.UpdatedAt = time.Now()
	if err := uc.stockRepo.UpdateThresholds(ctx, level); err != nil {
		return err
	}
	uc.reporter.Audit(ctx, AuditEntry{
		Action:   "inventory.thresholds.updated",
		EntityID: key.String(),
		TenantID: key.TenantID,
		Details:  map[string]any{"product_id": key.ProductID, "location": key.Location.Key()},
	})
	return nil
}

// DeleteRecord elimina un registro del índice (el ledger queda intacto).
// Clave ausente: ErrStockRecordNotFound.
func (uc *StockMaintenanceUseCase) DeleteRecord(ctx context.Context, key entity.StockKey) error {
	level, err := uc.stockRepo.Get(ctx, key)
	if err != nil {
		return err
	}
	if level == nil {
		return domain.ErrStockRecordNotFound
	}
	if err := uc.stockRepo.Delete(ctx, key); err != nil {
		return err
	}
	uc.reporter.Audit(ctx, AuditEntry{
		Action:   "inventory.stock_record.deleted",
		EntityID: key.String(),
		TenantID: key.TenantID,
		Details:  map[string]any{"product_id": key.ProductID, "location": key.Location.Key()},
	})
	uc.reporter.InvalidateStock(ctx, key.TenantID, key.ProductID, key.Location)
	return nil
}
