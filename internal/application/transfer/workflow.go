package transfer

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmapos/farmacore/internal/application/inventory"
	"github.com/farmapos/farmacore/internal/domain"
	"github.com/farmapos/farmacore/internal/domain/entity"
	"github.com/farmapos/farmacore/internal/domain/repository"
)

// WorkflowUseCase orquesta la máquina de estados de traslados:
// pending -> {completed | rejected | cancelled}, todos terminales.
// Un traslado escribe el ledger a lo sumo una vez, y solo vía Approve.
type WorkflowUseCase struct {
	txRunner     inventory.TxRunner
	transferRepo repository.TransferRepository
	productRepo  repository.ProductRepository
	allocator    *inventory.BatchAllocator
	reporter     *inventory.Reporter
}

// NewWorkflowUseCase construye el caso de uso.
func NewWorkflowUseCase(
	txRunner inventory.TxRunner,
	transferRepo repository.TransferRepository,
	productRepo repository.ProductRepository,
	allocator *inventory.BatchAllocator,
	reporter *inventory.Reporter,
) *WorkflowUseCase {
	return &WorkflowUseCase{
		txRunner:     txRunner,
		transferRepo: transferRepo,
		productRepo:  productRepo,
		allocator:    allocator,
		reporter:     reporter,
	}
}

// CreateInput datos para solicitar un traslado.
type CreateInput struct {
	TenantID            string
	RequestedBy         string
	Source              entity.Location
	Destination         entity.Location
	DestinationTenantID string // vacío = misma empresa
	ProductID           string
	VariantID           string
	Quantity            decimal.Decimal
	BatchNumber         string
	ExpiryDate          *time.Time
	Notes               string
}

// Create valida y persiste el traslado en pending. La suficiencia de stock NO
// se revisa aquí: se revisa al aprobar, que es cuando el stock sale de verdad.
func (uc *WorkflowUseCase) Create(ctx context.Context, in CreateInput) (*entity.StockTransfer, error) {
	if in.TenantID == "" || in.ProductID == "" || in.Source.IsZero() || in.Destination.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	if in.Source.Equal(in.Destination) && (in.DestinationTenantID == "" || in.DestinationTenantID == in.TenantID) {
		return nil, domain.ErrInvalidInput
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil || product == nil {
		return nil, domain.ErrNotFound
	}
	if product.TenantID != in.TenantID {
		return nil, domain.ErrForbidden
	}

	transferType := entity.TransferTypeIntraTenant
	if in.DestinationTenantID != "" && in.DestinationTenantID != in.TenantID {
		transferType = entity.TransferTypeCrossTenant
	}

	now := time.Now()
	t := &entity.StockTransfer{
		ID:                  uuid.New().String(),
		TenantID:            in.TenantID,
		Source:              in.Source,
		Destination:         in.Destination,
		DestinationTenantID: in.DestinationTenantID,
		ProductID:           in.ProductID,
		VariantID:           in.VariantID,
		Quantity:            in.Quantity,
		TransferType:        transferType,
		Status:              entity.TransferStatusPending,
		RequestedBy:         in.RequestedBy,
		BatchNumber:         in.BatchNumber,
		ExpiryDate:          in.ExpiryDate,
		Notes:               in.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := uc.transferRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Approve ejecuta el traslado en una sola transacción: bloquea el traslado,
// bloquea ambas filas de stock en orden determinista (ascendente por clave
// canónica, para que dos traslados en sentidos opuestos entre el mismo par de
// ubicaciones no se bloqueen mutuamente), descuenta por lotes en origen
// (TRANSFER_OUT) y acredita en destino (TRANSFER_IN) con el lote/vencimiento
// consumido, y recién entonces marca completed. Si el origen no alcanza, toda
// la transacción rueda atrás y el traslado sigue pending.
//
// Traslados cross-tenant: la aprobación autoritativa es la de la empresa
// DESTINO (quien recibe el stock decide).
func (uc *WorkflowUseCase) Approve(ctx context.Context, tenantID, transferID, approvedBy string) (*entity.StockTransfer, error) {
	var (
		approved *entity.StockTransfer
		alloc    *inventory.AllocationResult
		destKey  entity.StockKey
	)

	err := uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockLevelRepository,
		transferRepo repository.TransferRepository,
	) error {
		t, err := transferRepo.GetForUpdate(ctx, tenantID, transferID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrTransferNotFound
		}
		if !t.Pending() {
			return domain.ErrTransferNotPending
		}
		if t.CrossTenant() && tenantID != t.ReceivingTenantID() {
			return domain.ErrForbidden
		}

		sourceKey := entity.StockKey{
			TenantID:  t.TenantID,
			ProductID: t.ProductID,
			VariantID: t.VariantID,
			Location:  t.Source,
		}
		destKey = entity.StockKey{
			TenantID:  t.ReceivingTenantID(),
			ProductID: t.ProductID,
			VariantID: t.VariantID,
			Location:  t.Destination,
		}

		// Orden de bloqueo determinista sobre ambas filas.
		keys := []entity.StockKey{sourceKey, destKey}
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			if _, err := stockRepo.GetForUpdate(ctx, k); err != nil {
				return err
			}
		}

		// Salida en origen vía asignador (respeta FIFO por vencimiento; si el
		// traslado pide un lote puntual, se restringe a ese lote).
		alloc, err = uc.allocator.AllocateOut(ctx, movRepo, stockRepo, inventory.AllocationRequest{
			Key:          sourceKey,
			Quantity:     t.Quantity,
			MovementType: entity.MovementTypeTRANSFEROUT,
			Reference:    t.ID,
			CreatedBy:    approvedBy,
			BatchNumber:  t.BatchNumber,
		})
		if err != nil {
			return err
		}

		// Entrada en destino, porción por porción, conservando lote y
		// vencimiento para que la trazabilidad sobreviva al traslado.
		now := time.Now()
		for _, portion := range alloc.Consumptions {
			inMov := &entity.Movement{
				TenantID:    destKey.TenantID,
				ProductID:   destKey.ProductID,
				VariantID:   destKey.VariantID,
				Location:    destKey.Location,
				BatchNumber: portion.BatchNumber,
				ExpiryDate:  portion.ExpiryDate,
				Quantity:    portion.Quantity,
				Type:        entity.MovementTypeTRANSFERIN,
				Reference:   t.ID,
				CreatedAt:   now,
				CreatedBy:   approvedBy,
			}
			if err := movRepo.Create(ctx, inMov); err != nil {
				return err
			}
		}
		if _, err := stockRepo.ApplyDelta(ctx, destKey, t.Quantity, now); err != nil {
			return err
		}

		t.Status = entity.TransferStatusCompleted
		t.ApprovedBy = approvedBy
		t.UpdatedAt = now
		if err := transferRepo.UpdateStatus(ctx, t); err != nil {
			return err
		}
		approved = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.reporter.Audit(ctx, inventory.AuditEntry{
		Action:   "transfer.approved",
		EntityID: approved.ID,
		TenantID: approved.TenantID,
		Details: map[string]any{
			"product_id":  approved.ProductID,
			"source":      approved.Source.Key(),
			"destination": approved.Destination.Key(),
			"quantity":    approved.Quantity.String(),
			"approved_by": approvedBy,
		},
	})
	uc.reporter.Emit(ctx, inventory.EventTransferApproved, approved.TenantID, map[string]any{
		"transfer_id": approved.ID,
		"product_id":  approved.ProductID,
		"source":      approved.Source.Key(),
		"destination": approved.Destination.Key(),
		"quantity":    approved.Quantity.String(),
	})
	uc.reporter.InvalidateStock(ctx, approved.TenantID, approved.ProductID, approved.Source)
	uc.reporter.InvalidateStock(ctx, destKey.TenantID, approved.ProductID, approved.Destination)
	inventory.EmitLowStockIfCrossed(ctx, uc.reporter, alloc.Before, alloc.After)

	return approved, nil
}

// Reject pasa pending -> rejected sin tocar el ledger. La autoridad es la
// misma que la de Approve.
func (uc *WorkflowUseCase) Reject(ctx context.Context, tenantID, transferID, rejectedBy, notes string) (*entity.StockTransfer, error) {
	t, err := uc.decide(ctx, tenantID, transferID, entity.TransferStatusRejected, rejectedBy, notes, func(t *entity.StockTransfer) error {
		if t.CrossTenant() && tenantID != t.ReceivingTenantID() {
			return domain.ErrForbidden
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.reporter.Emit(ctx, inventory.EventTransferRejected, t.TenantID, map[string]any{
		"transfer_id": t.ID, "rejected_by": rejectedBy,
	})
	return t, nil
}

// Cancel pasa pending -> cancelled sin tocar el ledger. Pensado para el lado
// que inició el traslado, antes de cualquier decisión.
func (uc *WorkflowUseCase) Cancel(ctx context.Context, tenantID, transferID, cancelledBy, notes string) (*entity.StockTransfer, error) {
	t, err := uc.decide(ctx, tenantID, transferID, entity.TransferStatusCancelled, cancelledBy, notes, func(t *entity.StockTransfer) error {
		if tenantID != t.TenantID {
			return domain.ErrForbidden
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.reporter.Emit(ctx, inventory.EventTransferCancelled, t.TenantID, map[string]any{
		"transfer_id": t.ID, "cancelled_by": cancelledBy,
	})
	return t, nil
}

// decide aplica una transición terminal sin escritura de ledger. Va en tx con
// la fila del traslado bloqueada para no pisar un Approve concurrente.
// ApprovedBy queda vacío: ese campo pertenece exclusivamente a los traslados
// completados; quién rechazó o canceló va en la auditoría.
func (uc *WorkflowUseCase) decide(
	ctx context.Context,
	tenantID, transferID, status, decidedBy, notes string,
	authorize func(*entity.StockTransfer) error,
) (*entity.StockTransfer, error) {
	var decided *entity.StockTransfer
	err := uc.txRunner.Run(ctx, func(
		_ repository.MovementRepository,
		_ repository.StockLevelRepository,
		transferRepo repository.TransferRepository,
	) error {
		t, err := transferRepo.GetForUpdate(ctx, tenantID, transferID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrTransferNotFound
		}
		if !t.Pending() {
			return domain.ErrTransferNotPending
		}
		if err := authorize(t); err != nil {
			return err
		}
		t.Status = status
		if notes != "" {
			t.Notes = notes
		}
		t.UpdatedAt = time.Now()
		if err := transferRepo.UpdateStatus(ctx, t); err != nil {
			return err
		}
		decided = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.reporter.Audit(ctx, inventory.AuditEntry{
		Action:   "transfer." + status,
		EntityID: decided.ID,
		TenantID: decided.TenantID,
		Details:  map[string]any{"decided_by": decidedBy},
	})
	return decided, nil
}

// Delete elimina un traslado no completado. Un traslado completed quedó
// ligado al ledger y no se borra jamás.
func (uc *WorkflowUseCase) Delete(ctx context.Context, tenantID, transferID string) error {
	t, err := uc.transferRepo.GetByID(ctx, tenantID, transferID)
	if err != nil {
		return err
	}
	if t == nil {
		return domain.ErrTransferNotFound
	}
	if t.Status == entity.TransferStatusCompleted {
		return domain.ErrConflict
	}
	return uc.transferRepo.Delete(ctx, tenantID, transferID)
}

// Get devuelve un traslado visible para la empresa.
func (uc *WorkflowUseCase) Get(ctx context.Context, tenantID, transferID string) (*entity.StockTransfer, error) {
	t, err := uc.transferRepo.GetByID(ctx, tenantID, transferID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrTransferNotFound
	}
	return t, nil
}

// List lista traslados de la empresa (origen o destino).
func (uc *WorkflowUseCase) List(ctx context.Context, tenantID, status string, limit, offset int) ([]*entity.StockTransfer, error) {
	return uc.transferRepo.ListByTenant(ctx, tenantID, status, limit, offset)
}
