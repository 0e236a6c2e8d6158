package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmapos/farmacore/internal/domain"
	"github.com/farmapos/farmacore/internal/domain/entity"
	"github.com/farmapos/farmacore/internal/domain/repository"
)

// RecordMovementUseCase registra entradas del ledger de forma transaccional:
// append del movimiento + delta sobre el índice de stock en la misma tx, con
// bloqueo de fila (SELECT FOR UPDATE). Esta capa NO valida suficiencia: un
// saldo negativo es posible aquí; prevenir sobreventa es trabajo del
// BatchAllocator, que debe usarse para toda salida por venta o traslado.
type RecordMovementUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	reporter    *Reporter
}

// NewRecordMovementUseCase construye el caso de uso.
func NewRecordMovementUseCase(txRunner TxRunner, productRepo repository.ProductRepository, reporter *Reporter) *RecordMovementUseCase {
	return &RecordMovementUseCase{txRunner: txRunner, productRepo: productRepo, reporter: reporter}
}

// MovementInput entrada para registrar un movimiento.
type MovementInput struct {
	TenantID    string
	ProductID   string
	VariantID   string
	Location    entity.Location
	BatchNumber string
	ExpiryDate  *time.Time
	Quantity    decimal.Decimal // firmada, != 0
	Type        string
	Reference   string
	CostPrice   *decimal.Decimal
	CreatedBy   string
}

// Execute valida, abre la transacción y aplica el movimiento. Devuelve el
// registro persistido. Dos llamadas idénticas producen dos filas y doble
// delta: la deduplicación es responsabilidad del caller vía Reference.
func (uc *RecordMovementUseCase) Execute(ctx context.Context, in MovementInput) (*entity.Movement, error) {
	if in.Quantity.IsZero() || !entity.ValidMovementType(in.Type) {
		return nil, domain.ErrInvalidMovement
	}
	if in.TenantID == "" || in.ProductID == "" || in.Location.IsZero() {
		return nil, domain.ErrInvalidInput
	}

	// Confirmar existencia en el catálogo (interfaz estrecha, solo lectura).
	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil || product == nil {
		return nil, domain.ErrNotFound
	}
	if product.TenantID != in.TenantID {
		return nil, domain.ErrForbidden
	}

	now := time.Now()
	mov := &entity.Movement{
		TenantID:    in.TenantID,
		ProductID:   in.ProductID,
		VariantID:   in.VariantID,
		Location:    in.Location,
		BatchNumber: in.BatchNumber,
		ExpiryDate:  in.ExpiryDate,
		Quantity:    in.Quantity,
		Type:        in.Type,
		Reference:   in.Reference,
		CostPrice:   in.CostPrice,
		CreatedAt:   now,
		CreatedBy:   in.CreatedBy,
	}

	var before, after *entity.StockLevel
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockLevelRepository,
		_ repository.TransferRepository,
	) error {
		before, after, err = ApplyMovement(ctx, movRepo, stockRepo, mov)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Efectos post-commit, best-effort.
	uc.reporter.Audit(ctx, AuditEntry{
		Action:   "inventory.movement.recorded",
		EntityID: mov.ID,
		TenantID: mov.TenantID,
		Details: map[string]any{
			"product_id": mov.ProductID,
			"location":   mov.Location.Key(),
			"type":       mov.Type,
			"quantity":   mov.Quantity.String(),
		},
	})
	uc.reporter.Emit(ctx, EventMovementRecorded, mov.TenantID, map[string]any{
		"movement_id": mov.ID,
		"product_id":  mov.ProductID,
		"location":    mov.Location.Key(),
		"type":        mov.Type,
		"quantity":    mov.Quantity.String(),
	})
	uc.reporter.InvalidateStock(ctx, mov.TenantID, mov.ProductID, mov.Location)
	EmitLowStockIfCrossed(ctx, uc.reporter, before, after)

	return mov, nil
}

// ApplyMovement aplica un movimiento dentro de una transacción YA abierta:
// bloquea la fila del índice, persiste la entrada del ledger y suma el delta
// firmado vía ApplyDelta. Clave ausente: se crea con quantity = delta; la
// suma relativa garantiza que dos transacciones que estrenan la misma clave
// acumulan ambos movimientos. Devuelve el nivel antes y después del delta
// (para detectar cruce del punto de reorden).
func ApplyMovement(
	ctx context.Context,
	movRepo repository.MovementRepository,
	stockRepo repository.StockLevelRepository,
	mov *entity.Movement,
) (before, after *entity.StockLevel, err error) {
	level, err := stockRepo.GetForUpdate(ctx, mov.StockKey())
	if err != nil {
		return nil, nil, err
	}

	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, nil, err
	}
	after, err = stockRepo.ApplyDelta(ctx, mov.StockKey(), mov.Quantity, mov.CreatedAt)
	if err != nil {
		return nil, nil, err
	}
	return level, after, nil
}

// EmitLowStockIfCrossed emite inventory.stock.low cuando una deducción deja el
// nivel en o bajo su punto de reorden, solo en el cruce (no en cada venta
// posterior ya bajo el umbral).
func EmitLowStockIfCrossed(ctx context.Context, reporter *Reporter, before, after *entity.StockLevel) {
	if reporter == nil || before == nil || after == nil || after.ReorderPoint == nil {
		return
	}
	if !before.BelowReorderPoint() && after.BelowReorderPoint() {
		reporter.Emit(ctx, EventStockLow, after.Key.TenantID, map[string]any{
			"product_id":    after.Key.ProductID,
			"variant_id":    after.Key.VariantID,
			"location":      after.Key.Location.Key(),
			"quantity":      after.Quantity.String(),
			"reorder_point": after.ReorderPoint.String(),
		})
	}
}
