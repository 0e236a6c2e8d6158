package pos

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmapos/farmacore/internal/application/dto"
	"github.com/farmapos/farmacore/internal/application/inventory"
	"github.com/farmapos/farmacore/internal/domain"
	"github.com/farmapos/farmacore/internal/domain/entity"
	"github.com/farmapos/farmacore/internal/domain/repository"
)

// ReturnUseCase registra devoluciones de venta. La devolución NO re-asigna
// lotes: acredita movimientos IN de tipo RETURN etiquetados con el lote y
// vencimiento ORIGINALES de la venta, y valida que lo devuelto no exceda lo
// vendido para cada línea.
type ReturnUseCase struct {
	txRunner inventory.TxRunner
	reporter *inventory.Reporter
}

// NewReturnUseCase construye el caso de uso.
func NewReturnUseCase(txRunner inventory.TxRunner, reporter *inventory.Reporter) *ReturnUseCase {
	return &ReturnUseCase{txRunner: txRunner, reporter: reporter}
}

// lineKey identifica una línea devuelta dentro de la venta original.
type lineKey struct {
	productID string
	variantID string
}

// soldPortion porción vendida de un lote, con lo ya devuelto descontado.
type soldPortion struct {
	batchNumber string
	expiryDate  *time.Time
	returnable  decimal.Decimal
}

// RegisterReturn valida contra el ledger de la venta original y acredita.
func (uc *ReturnUseCase) RegisterReturn(ctx context.Context, tenantID, userID string, in dto.RegisterReturnRequest) (*dto.RegisterReturnResponse, error) {
	if tenantID == "" || in.StoreID == "" || in.SaleReference == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, line := range in.Lines {
		if line.ProductID == "" || !line.Quantity.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
	}

	returnID := uuid.New().String()
	location := entity.StoreLocation(in.StoreID)
	resp := &dto.RegisterReturnResponse{ReturnID: returnID}

	err := uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockLevelRepository,
		_ repository.TransferRepository,
	) error {
		// Bloquear las filas de stock de las líneas (en orden determinista)
		// ANTES de leer el historial: dos devoluciones concurrentes de la
		// misma venta se serializan aquí y la segunda ve los RETURN de la
		// primera al validar el tope de lo vendido.
		keys := make([]entity.StockKey, 0, len(in.Lines))
		for _, line := range in.Lines {
			keys = append(keys, entity.StockKey{
				TenantID:  tenantID,
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Location:  location,
			})
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			if _, err := stockRepo.GetForUpdate(ctx, k); err != nil {
				return err
			}
		}

		history, err := movRepo.ListByReference(ctx, tenantID, in.SaleReference)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			return domain.ErrNotFound
		}

		// Reconstruir qué se vendió por lote y qué ya se devolvió.
		portions := map[lineKey][]*soldPortion{}
		for _, mov := range history {
			k := lineKey{productID: mov.ProductID, variantID: mov.VariantID}
			switch mov.Type {
			case entity.MovementTypeSALE:
				portions[k] = append(portions[k], &soldPortion{
					batchNumber: mov.BatchNumber,
					expiryDate:  mov.ExpiryDate,
					returnable:  mov.Quantity.Neg(), // vendida en positivo
				})
			case entity.MovementTypeRETURN:
				// Descontar devoluciones previas del mismo lote.
				remaining := mov.Quantity
				for _, p := range portions[k] {
					if p.batchNumber != mov.BatchNumber || !remaining.GreaterThan(decimal.Zero) {
						continue
					}
					used := decimal.Min(p.returnable, remaining)
					p.returnable = p.returnable.Sub(used)
					remaining = remaining.Sub(used)
				}
			}
		}

		now := time.Now()
		for _, line := range in.Lines {
			k := lineKey{productID: line.ProductID, variantID: line.VariantID}
			available := decimal.Zero
			for _, p := range portions[k] {
				available = available.Add(p.returnable)
			}
			if line.Quantity.GreaterThan(available) {
				// Se pide devolver más de lo que queda devolvible.
				return domain.ErrInvalidInput
			}

			outstanding := line.Quantity
			for _, p := range portions[k] {
				if !outstanding.GreaterThan(decimal.Zero) {
					break
				}
				take := decimal.Min(p.returnable, outstanding)
				if !take.GreaterThan(decimal.Zero) {
					continue
				}
				mov := &entity.Movement{
					TenantID:    tenantID,
					ProductID:   line.ProductID,
					VariantID:   line.VariantID,
					Location:    location,
					BatchNumber: p.batchNumber,
					ExpiryDate:  p.expiryDate,
					Quantity:    take,
					Type:        entity.MovementTypeRETURN,
					Reference:   in.SaleReference,
					CreatedAt:   now,
					CreatedBy:   userID,
				}
				if _, _, err := inventory.ApplyMovement(ctx, movRepo, stockRepo, mov); err != nil {
					return err
				}
				p.returnable = p.returnable.Sub(take)
				outstanding = outstanding.Sub(take)

				resp.Movements = append(resp.Movements, dto.MovementResponse{
					ID:          mov.ID,
					ProductID:   mov.ProductID,
					VariantID:   mov.VariantID,
					Location:    dto.LocationDTO{Type: string(mov.Location.Kind()), ID: mov.Location.ID()},
					BatchNumber: mov.BatchNumber,
					ExpiryDate:  mov.ExpiryDate,
					Type:        mov.Type,
					Quantity:    mov.Quantity,
					Reference:   mov.Reference,
					CreatedAt:   mov.CreatedAt,
					CreatedBy:   mov.CreatedBy,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.reporter.Audit(ctx, inventory.AuditEntry{
		Action:   "pos.return.recorded",
		EntityID: returnID,
		TenantID: tenantID,
		Details: map[string]any{
			"store_id":       in.StoreID,
			"sale_reference": in.SaleReference,
			"lines":          len(in.Lines),
		},
	})
	uc.reporter.Emit(ctx, inventory.EventReturnRecorded, tenantID, map[string]any{
		"return_id":      returnID,
		"sale_reference": in.SaleReference,
	})
	for _, line := range in.Lines {
		uc.reporter.InvalidateStock(ctx, tenantID, line.ProductID, location)
	}

	return resp, nil
}
