package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmapos/farmacore/internal/domain"
	"github.com/farmapos/farmacore/internal/domain/entity"
	domaininv "github.com/farmapos/farmacore/internal/domain/inventory"
	"github.com/farmapos/farmacore/internal/domain/repository"
)

// DefaultNearExpiryDays es la ventana por defecto para marcar lotes por
// vencer; configurable por despliegue (INVENTORY_NEAR_EXPIRY_DAYS).
const DefaultNearExpiryDays = 30

// BatchAllocator decide de qué lotes sale una cantidad solicitada (FIFO por
// vencimiento) y escribe las salidas del ledger dentro de la transacción del
// caller. Todo OUT de venta o traslado pasa por aquí: es la única pieza que
// previene sobreventa.
type BatchAllocator struct {
	nearExpiryWindow time.Duration
	now              func() time.Time
}

// NewBatchAllocator construye el asignador. days <= 0 usa el valor por defecto.
func NewBatchAllocator(days int) *BatchAllocator {
	if days <= 0 {
		days = DefaultNearExpiryDays
	}
	return &BatchAllocator{
		nearExpiryWindow: time.Duration(days) * 24 * time.Hour,
		now:              time.Now,
	}
}

// WithClock reemplaza el reloj (tests). "now" se evalúa en el momento de la
// asignación, nunca precomputado.
func (a *BatchAllocator) WithClock(now func() time.Time) *BatchAllocator {
	a.now = now
	return a
}

// AllocationRequest una salida a asignar.
type AllocationRequest struct {
	Key          entity.StockKey
	Quantity     decimal.Decimal // > 0
	MovementType string          // SALE, TRANSFER_OUT, WASTAGE, ...
	Reference    string
	CreatedBy    string
	BatchNumber  string // opcional: restringir a un lote puntual (traslados)
}

// AllocationResult porciones consumidas más el nivel antes/después, para que
// el caller emita el evento de bajo stock tras el commit.
type AllocationResult struct {
	Consumptions []domaininv.Consumption
	Before       *entity.StockLevel
	After        *entity.StockLevel
}

// AllocateOut ejecuta la asignación DENTRO de la transacción del caller:
//  1. bloquea la fila del índice (antes de leer candidatos, así dos
//     asignadores concurrentes no gastan el mismo lote dos veces);
//  2. carga lotes con remanente y sin vencer a "now";
//  3. ordena por (vencimiento, último movimiento) ascendente y consume;
//  4. si el total elegible no alcanza, aborta con InsufficientStockError y
//     la tx entera rueda atrás: cero movimientos parciales;
//  5. si alcanza, escribe un movimiento OUT por porción consumida y baja el
//     índice por el total.
func (a *BatchAllocator) AllocateOut(
	ctx context.Context,
	movRepo repository.MovementRepository,
	stockRepo repository.StockLevelRepository,
	req AllocationRequest,
) (*AllocationResult, error) {
	if !req.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	if !entity.OutboundMovementType(req.MovementType) {
		return nil, domain.ErrInvalidMovement
	}

	level, err := stockRepo.GetForUpdate(ctx, req.Key)
	if err != nil {
		return nil, err
	}
	before := *level

	batches, err := movRepo.ListBatches(ctx, req.Key)
	if err != nil {
		return nil, err
	}
	now := a.now()
	if req.BatchNumber != "" {
		filtered := batches[:0]
		for _, b := range batches {
			if b.BatchNumber == req.BatchNumber {
				filtered = append(filtered, b)
			}
		}
		batches = filtered
	} else {
		// Stock sin lote: lo que el índice tiene por encima de la suma de los
		// lotes. Entra como candidato sin vencimiento, después de los lotes
		// fechados.
		batchedTotal := decimal.Zero
		for _, b := range batches {
			batchedTotal = batchedTotal.Add(b.Remaining)
		}
		if unbatched := level.Quantity.Sub(batchedTotal); unbatched.GreaterThan(decimal.Zero) {
			batches = append(batches, entity.Batch{Remaining: unbatched, LastMovementAt: now})
		}
	}
	plan, available, ok := domaininv.PlanAllocation(batches, req.Quantity, now, a.nearExpiryWindow)
	if !ok {
		return nil, &domain.InsufficientStockError{
			ProductID:   req.Key.ProductID,
			LocationKey: req.Key.Location.Key(),
			Requested:   req.Quantity,
			Available:   available,
		}
	}

	for _, portion := range plan {
		mov := &entity.Movement{
			TenantID:    req.Key.TenantID,
			ProductID:   req.Key.ProductID,
			VariantID:   req.Key.VariantID,
			Location:    req.Key.Location,
			BatchNumber: portion.BatchNumber,
			ExpiryDate:  portion.ExpiryDate,
			Quantity:    portion.Quantity.Neg(),
			Type:        req.MovementType,
			Reference:   req.Reference,
			CreatedAt:   now,
			CreatedBy:   req.CreatedBy,
		}
		if err := movRepo.Create(ctx, mov); err != nil {
			return nil, err
		}
	}

	after, err := stockRepo.ApplyDelta(ctx, req.Key, req.Quantity.Neg(), now)
	if err != nil {
		return nil, err
	}

	return &AllocationResult{Consumptions: plan, Before: &before, After: after}, nil
}
