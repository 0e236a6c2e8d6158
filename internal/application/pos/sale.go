package pos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmapos/farmacore/internal/application/dto"
	"github.com/farmapos/farmacore/internal/application/inventory"
	"github.com/farmapos/farmacore/internal/domain"
	"github.com/farmapos/farmacore/internal/domain/entity"
	"github.com/farmapos/farmacore/internal/domain/repository"
)

// SaleUseCase convierte un carrito POS en movimientos del ledger más totales.
// Todas las líneas salen por el BatchAllocator en UNA transacción: si a
// cualquier línea le falta stock, la venta completa rueda atrás; una venta
// parcialmente surtida no es un estado final válido.
type SaleUseCase struct {
	txRunner    inventory.TxRunner
	productRepo repository.ProductRepository
	allocator   *inventory.BatchAllocator
	reporter    *inventory.Reporter
}

// NewSaleUseCase construye el caso de uso.
func NewSaleUseCase(txRunner inventory.TxRunner, productRepo repository.ProductRepository, allocator *inventory.BatchAllocator, reporter *inventory.Reporter) *SaleUseCase {
	return &SaleUseCase{txRunner: txRunner, productRepo: productRepo, allocator: allocator, reporter: reporter}
}

// RegisterSale registra la venta. Los avisos de lotes por vencer son
// informativos: la venta procede igual.
func (uc *SaleUseCase) RegisterSale(ctx context.Context, tenantID, userID string, in dto.RegisterSaleRequest) (*dto.RegisterSaleResponse, error) {
	if tenantID == "" || in.StoreID == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, line := range in.Lines {
		if line.ProductID == "" || !line.Quantity.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		if line.UnitPrice.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
	}

	// Existencia en catálogo, fuera de la tx (solo lectura).
	for _, line := range in.Lines {
		product, err := uc.productRepo.GetByID(ctx, line.ProductID)
		if err != nil || product == nil {
			return nil, domain.ErrNotFound
		}
		if product.TenantID != tenantID {
			return nil, domain.ErrForbidden
		}
	}

	saleID := uuid.New().String()
	reference := in.Reference
	if reference == "" {
		reference = saleID
	}
	location := entity.StoreLocation(in.StoreID)

	resp := &dto.RegisterSaleResponse{SaleID: saleID}
	var lowStockChecks []*inventory.AllocationResult

	err := uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockLevelRepository,
		_ repository.TransferRepository,
	) error {
		for _, line := range in.Lines {
			key := entity.StockKey{
				TenantID:  tenantID,
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Location:  location,
			}
			alloc, err := uc.allocator.AllocateOut(ctx, movRepo, stockRepo, inventory.AllocationRequest{
				Key:          key,
				Quantity:     line.Quantity,
				MovementType: entity.MovementTypeSALE,
				Reference:    reference,
				CreatedBy:    userID,
			})
			if err != nil {
				// El error de stock ya nombra el primer producto ofensor.
				return err
			}
			lowStockChecks = append(lowStockChecks, alloc)

			lineResp := uc.settleLine(line, alloc, resp)
			resp.Lines = append(resp.Lines, lineResp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	shipping := decimal.Zero
	if in.ShippingFee != nil {
		shipping = *in.ShippingFee
	}
	overall := decimal.Zero
	if in.OverallDiscount != nil {
		overall = *in.OverallDiscount
	}
	resp.ShippingFee = shipping
	resp.DiscountTotal = resp.DiscountTotal.Add(overall)
	resp.TotalAmount = resp.Subtotal.Add(resp.TaxTotal).Add(shipping).Sub(overall)

	uc.reporter.Audit(ctx, inventory.AuditEntry{
		Action:   "pos.sale.recorded",
		EntityID: saleID,
		TenantID: tenantID,
		Details: map[string]any{
			"store_id":  in.StoreID,
			"reference": reference,
			"total":     resp.TotalAmount.String(),
			"lines":     len(in.Lines),
		},
	})
	uc.reporter.Emit(ctx, inventory.EventSaleRecorded, tenantID, map[string]any{
		"sale_id":   saleID,
		"store_id":  in.StoreID,
		"reference": reference,
		"total":     resp.TotalAmount.String(),
	})
	for i, line := range in.Lines {
		uc.reporter.InvalidateStock(ctx, tenantID, line.ProductID, location)
		inventory.EmitLowStockIfCrossed(ctx, uc.reporter, lowStockChecks[i].Before, lowStockChecks[i].After)
	}

	return resp, nil
}

// settleLine calcula subtotal e impuesto de la línea porción por porción y
// acumula en los totales de la venta.
func (uc *SaleUseCase) settleLine(line dto.SaleLineRequest, alloc *inventory.AllocationResult, resp *dto.RegisterSaleResponse) dto.SaleLineResponse {
	discount := decimal.Zero
	if line.Discount != nil {
		discount = *line.Discount
	}
	taxRate := decimal.Zero
	if line.TaxRate != nil {
		taxRate = *line.TaxRate
	}
	effectiveUnit := line.UnitPrice.Sub(discount)

	lineResp := dto.SaleLineResponse{
		ProductID: line.ProductID,
		VariantID: line.VariantID,
		Quantity:  line.Quantity,
		UnitPrice: line.UnitPrice,
	}
	for _, portion := range alloc.Consumptions {
		portionSubtotal := effectiveUnit.Mul(portion.Quantity)
		portionTax := portionSubtotal.Mul(taxRate)

		lineResp.LineSubtotal = lineResp.LineSubtotal.Add(portionSubtotal)
		lineResp.TaxAmount = lineResp.TaxAmount.Add(portionTax)
		lineResp.Portions = append(lineResp.Portions, dto.SalePortionDTO{
			BatchNumber: portion.BatchNumber,
			ExpiryDate:  portion.ExpiryDate,
			Quantity:    portion.Quantity,
			NearExpiry:  portion.NearExpiry,
		})

		resp.Subtotal = resp.Subtotal.Add(portionSubtotal)
		resp.TaxTotal = resp.TaxTotal.Add(portionTax)
		resp.DiscountTotal = resp.DiscountTotal.Add(discount.Mul(portion.Quantity))

		if portion.NearExpiry {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf(
				"producto %s: lote %s próximo a vencer (%s)",
				line.ProductID, portion.BatchNumber, formatExpiry(portion.ExpiryDate)))
		}
	}
	return lineResp
}

func formatExpiry(t *time.Time) string {
	if t == nil {
		return "sin fecha"
	}
	return t.Format("2006-01-02")
}
