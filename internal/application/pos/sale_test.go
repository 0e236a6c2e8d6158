package pos_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmapos/farmacore/internal/application/dto"
	"github.com/farmapos/farmacore/internal/application/inventory"
	"github.com/farmapos/farmacore/internal/application/pos"
	"github.com/farmapos/farmacore/internal/domain"
	"github.com/farmapos/farmacore/internal/domain/entity"
	"github.com/farmapos/farmacore/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	empresa = "tenant-1"
	tienda  = "tienda-1"
	cajero  = "user-1"
)

var reloj = time.Date(2023, 12, 15, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

type cajaTest struct {
	store *memory.Store
	venta *pos.SaleUseCase
}

func armarCaja(t *testing.T) *cajaTest {
	t.Helper()
	store := memory.NewStore()
	allocator := inventory.NewBatchAllocator(30).WithClock(func() time.Time { return reloj })
	venta := pos.NewSaleUseCase(
		memory.NewRunner(store),
		memory.NewProductRepository(store),
		allocator,
		nil,
	)
	return &cajaTest{store: store, venta: venta}
}

// sembrarProducto registra el producto y una compra que deja stock en tienda.
func (c *cajaTest) sembrarProducto(t *testing.T, productID, batch string, expiry *time.Time, qty int64) {
	t.Helper()
	c.store.SeedProduct(&entity.Product{ID: productID, TenantID: empresa, SKU: "SKU-" + productID, Name: productID, IsActive: true})
	if qty == 0 {
		return
	}
	_, _, err := inventory.ApplyMovement(context.Background(),
		memory.NewMovementRepository(c.store),
		memory.NewStockLevelRepository(c.store),
		&entity.Movement{
			TenantID:    empresa,
			ProductID:   productID,
			Location:    entity.StoreLocation(tienda),
			BatchNumber: batch,
			ExpiryDate:  expiry,
			Quantity:    decimal.NewFromInt(qty),
			Type:        entity.MovementTypePURCHASE,
			CreatedAt:   reloj.Add(-time.Hour),
			CreatedBy:   cajero,
		})
	require.NoError(t, err)
}

func (c *cajaTest) stockEnTienda(t *testing.T, productID string) decimal.Decimal {
	t.Helper()
	level, err := memory.NewStockLevelRepository(c.store).Get(context.Background(), entity.StockKey{
		TenantID:  empresa,
		ProductID: productID,
		Location:  entity.StoreLocation(tienda),
	})
	require.NoError(t, err)
	if level == nil {
		return decimal.Zero
	}
	return level.Quantity
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

// Venta de dos líneas: cada línea descuenta stock, los totales salen de las
// porciones y el total general suma impuesto y envío menos descuento global.
func TestRegisterSale_TotalesMultilinea(t *testing.T) {
	c := armarCaja(t)
	c.sembrarProducto(t, "prod-1", "B1", nil, 10)
	c.sembrarProducto(t, "prod-2", "B2", nil, 5)

	resp, err := c.venta.RegisterSale(context.Background(), empresa, cajero, dto.RegisterSaleRequest{
		StoreID: tienda,
		Lines: []dto.SaleLineRequest{
			// 2 × (1000 − 100) = 1800, IVA 19% = 342
			{ProductID: "prod-1", Quantity: dec("2"), UnitPrice: dec("1000"), Discount: ptr(dec("100")), TaxRate: ptr(dec("0.19"))},
			// 1 × 500 = 500, sin impuesto
			{ProductID: "prod-2", Quantity: dec("1"), UnitPrice: dec("500")},
		},
		ShippingFee:     ptr(dec("50")),
		OverallDiscount: ptr(dec("30")),
	})
	require.NoError(t, err)
	require.Len(t, resp.Lines, 2)

	assert.True(t, resp.Subtotal.Equal(dec("2300")), "subtotal: %s", resp.Subtotal)
	assert.True(t, resp.TaxTotal.Equal(dec("342")), "impuesto: %s", resp.TaxTotal)
	// 2 unidades × 100 por unidad + 30 global.
	assert.True(t, resp.DiscountTotal.Equal(dec("230")), "descuento: %s", resp.DiscountTotal)
	// 2300 + 342 + 50 − 30
	assert.True(t, resp.TotalAmount.Equal(dec("2662")), "total: %s", resp.TotalAmount)

	assert.True(t, c.stockEnTienda(t, "prod-1").Equal(dec("8")))
	assert.True(t, c.stockEnTienda(t, "prod-2").Equal(dec("4")))
}

// Sin referencia del caller, los movimientos quedan referenciados al sale_id.
func TestRegisterSale_ReferenciaPorDefecto(t *testing.T) {
	c := armarCaja(t)
	c.sembrarProducto(t, "prod-1", "B1", nil, 10)

	resp, err := c.venta.RegisterSale(context.Background(), empresa, cajero, dto.RegisterSaleRequest{
		StoreID: tienda,
		Lines:   []dto.SaleLineRequest{{ProductID: "prod-1", Quantity: dec("1"), UnitPrice: dec("100")}},
	})
	require.NoError(t, err)

	movs := c.store.Movements()
	require.Len(t, movs, 2) // compra semilla + venta
	assert.Equal(t, resp.SaleID, movs[1].Reference)
	assert.Equal(t, entity.MovementTypeSALE, movs[1].Type)
	assert.True(t, movs[1].Quantity.Equal(dec("-1")), "la salida va firmada en negativo")
}

// Un lote dentro de la ventana de vencimiento genera advertencia pero la venta
// procede igual.
func TestRegisterSale_AdvertenciaPorVencer(t *testing.T) {
	c := armarCaja(t)
	vence := reloj.Add(10 * 24 * time.Hour)
	c.sembrarProducto(t, "prod-1", "LOTE-PV", &vence, 10)

	resp, err := c.venta.RegisterSale(context.Background(), empresa, cajero, dto.RegisterSaleRequest{
		StoreID: tienda,
		Lines:   []dto.SaleLineRequest{{ProductID: "prod-1", Quantity: dec("3"), UnitPrice: dec("100")}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "LOTE-PV")
	assert.Contains(t, resp.Warnings[0], "próximo a vencer")
	require.Len(t, resp.Lines[0].Portions, 1)
	assert.True(t, resp.Lines[0].Portions[0].NearExpiry)
}

// Si a UNA línea le falta stock, la venta completa se descarta: ninguna línea
// queda aplicada al ledger.
func TestRegisterSale_UnaLineaCortaAnulaTodo(t *testing.T) {
	c := armarCaja(t)
	c.sembrarProducto(t, "prod-1", "B1", nil, 10)
	c.sembrarProducto(t, "prod-2", "B2", nil, 1)
	movsAntes := len(c.store.Movements())

	_, err := c.venta.RegisterSale(context.Background(), empresa, cajero, dto.RegisterSaleRequest{
		StoreID: tienda,
		Lines: []dto.SaleLineRequest{
			{ProductID: "prod-1", Quantity: dec("2"), UnitPrice: dec("100")},
			{ProductID: "prod-2", Quantity: dec("5"), UnitPrice: dec("100")},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "prod-2", stockErr.ProductID)
	assert.True(t, stockErr.Available.Equal(dec("1")))

	assert.Len(t, c.store.Movements(), movsAntes, "ledger intacto tras el fallo")
	assert.True(t, c.stockEnTienda(t, "prod-1").Equal(dec("10")))
}

// Validaciones de entrada y de catálogo.
func TestRegisterSale_Validaciones(t *testing.T) {
	c := armarCaja(t)
	c.sembrarProducto(t, "prod-1", "B1", nil, 10)
	ctx := context.Background()

	casos := []struct {
		nombre string
		in     dto.RegisterSaleRequest
		want   error
	}{
		{"sin líneas", dto.RegisterSaleRequest{StoreID: tienda}, domain.ErrInvalidInput},
		{"sin tienda", dto.RegisterSaleRequest{
			Lines: []dto.SaleLineRequest{{ProductID: "prod-1", Quantity: dec("1"), UnitPrice: dec("100")}},
		}, domain.ErrInvalidInput},
		{"cantidad cero", dto.RegisterSaleRequest{StoreID: tienda,
			Lines: []dto.SaleLineRequest{{ProductID: "prod-1", Quantity: dec("0"), UnitPrice: dec("100")}},
		}, domain.ErrInvalidInput},
		{"precio negativo", dto.RegisterSaleRequest{StoreID: tienda,
			Lines: []dto.SaleLineRequest{{ProductID: "prod-1", Quantity: dec("1"), UnitPrice: dec("-5")}},
		}, domain.ErrInvalidInput},
		{"producto inexistente", dto.RegisterSaleRequest{StoreID: tienda,
			Lines: []dto.SaleLineRequest{{ProductID: "fantasma", Quantity: dec("1"), UnitPrice: dec("100")}},
		}, domain.ErrNotFound},
	}
	for _, tc := range casos {
		t.Run(tc.nombre, func(t *testing.T) {
			_, err := c.venta.RegisterSale(ctx, empresa, cajero, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	// Producto de otra empresa.
	c.store.SeedProduct(&entity.Product{ID: "ajeno", TenantID: "otra-empresa", SKU: "X", Name: "Ajeno", IsActive: true})
	_, err := c.venta.RegisterSale(ctx, empresa, cajero, dto.RegisterSaleRequest{
		StoreID: tienda,
		Lines:   []dto.SaleLineRequest{{ProductID: "ajeno", Quantity: dec("1"), UnitPrice: dec("100")}},
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
