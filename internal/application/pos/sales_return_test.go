package pos_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmapos/farmacore/internal/application/dto"
	"github.com/farmapos/farmacore/internal/application/pos"
	"github.com/farmapos/farmacore/internal/domain"
	"github.com/farmapos/farmacore/internal/domain/entity"
	"github.com/farmapos/farmacore/internal/infrastructure/memory"
)

func (c *cajaTest) devolucion() *pos.ReturnUseCase {
	return pos.NewReturnUseCase(memory.NewRunner(c.store), nil)
}

// venderConReferencia ejecuta una venta real para dejar historial en el ledger.
func (c *cajaTest) venderConReferencia(t *testing.T, ref, productID string, qty string) {
	t.Helper()
	_, err := c.venta.RegisterSale(context.Background(), empresa, cajero, dto.RegisterSaleRequest{
		StoreID:   tienda,
		Reference: ref,
		Lines:     []dto.SaleLineRequest{{ProductID: productID, Quantity: dec(qty), UnitPrice: dec("100")}},
	})
	require.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

// La devolución reingresa al lote original de la venta, con su vencimiento,
// referenciada a la venta y en positivo.
func TestRegisterReturn_ReingresaAlLoteOriginal(t *testing.T) {
	c := armarCaja(t)
	vence := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c.sembrarProducto(t, "prod-1", "LOTE-7", &vence, 10)
	c.venderConReferencia(t, "VENTA-001", "prod-1", "4")
	require.True(t, c.stockEnTienda(t, "prod-1").Equal(dec("6")))

	resp, err := c.devolucion().RegisterReturn(context.Background(), empresa, cajero, dto.RegisterReturnRequest{
		StoreID:       tienda,
		SaleReference: "VENTA-001",
		Lines:         []dto.ReturnLineRequest{{ProductID: "prod-1", Quantity: dec("3")}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Movements, 1)

	m := resp.Movements[0]
	assert.Equal(t, entity.MovementTypeRETURN, m.Type)
	assert.Equal(t, "LOTE-7", m.BatchNumber)
	require.NotNil(t, m.ExpiryDate)
	assert.True(t, m.ExpiryDate.Equal(vence))
	assert.Equal(t, "VENTA-001", m.Reference)
	assert.True(t, m.Quantity.Equal(dec("3")), "la devolución entra en positivo")

	assert.True(t, c.stockEnTienda(t, "prod-1").Equal(dec("9")))
}

// No se puede devolver más de lo vendido, descontando devoluciones previas.
func TestRegisterReturn_NoExcedeLoVendido(t *testing.T) {
	c := armarCaja(t)
	c.sembrarProducto(t, "prod-1", "B1", nil, 10)
	c.venderConReferencia(t, "VENTA-002", "prod-1", "4")

	dev := c.devolucion()
	ctx := context.Background()

	// Primera devolución parcial.
	_, err := dev.RegisterReturn(ctx, empresa, cajero, dto.RegisterReturnRequest{
		StoreID:       tienda,
		SaleReference: "VENTA-002",
		Lines:         []dto.ReturnLineRequest{{ProductID: "prod-1", Quantity: dec("3")}},
	})
	require.NoError(t, err)

	// Solo queda 1 devolvible: pedir 2 falla sin escribir nada.
	movsAntes := len(c.store.Movements())
	_, err = dev.RegisterReturn(ctx, empresa, cajero, dto.RegisterReturnRequest{
		StoreID:       tienda,
		SaleReference: "VENTA-002",
		Lines:         []dto.ReturnLineRequest{{ProductID: "prod-1", Quantity: dec("2")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Len(t, c.store.Movements(), movsAntes)

	// Pedir exactamente lo que queda sí pasa.
	_, err = dev.RegisterReturn(ctx, empresa, cajero, dto.RegisterReturnRequest{
		StoreID:       tienda,
		SaleReference: "VENTA-002",
		Lines:         []dto.ReturnLineRequest{{ProductID: "prod-1", Quantity: dec("1")}},
	})
	require.NoError(t, err)
	assert.True(t, c.stockEnTienda(t, "prod-1").Equal(dec("10")))
}

// Una venta repartida en varios lotes se devuelve lote por lote, en el orden
// en que se consumieron.
func TestRegisterReturn_RepartePorLotes(t *testing.T) {
	c := armarCaja(t)
	vence1 := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	vence2 := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	c.sembrarProducto(t, "prod-1", "B1", &vence1, 3)
	c.sembrarProducto(t, "prod-1", "B2", &vence2, 5)
	c.venderConReferencia(t, "VENTA-003", "prod-1", "5") // consume B1:3 + B2:2

	resp, err := c.devolucion().RegisterReturn(context.Background(), empresa, cajero, dto.RegisterReturnRequest{
		StoreID:       tienda,
		SaleReference: "VENTA-003",
		Lines:         []dto.ReturnLineRequest{{ProductID: "prod-1", Quantity: dec("4")}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Movements, 2)
	assert.Equal(t, "B1", resp.Movements[0].BatchNumber)
	assert.True(t, resp.Movements[0].Quantity.Equal(dec("3")))
	assert.Equal(t, "B2", resp.Movements[1].BatchNumber)
	assert.True(t, resp.Movements[1].Quantity.Equal(dec("1")))
}

// Dos devoluciones de la misma venta se serializan sobre las filas de stock
// de sus líneas: la segunda valida contra un historial que YA incluye los
// RETURN de la primera, así el tope de lo vendido aguanta entre llamadas que
// se solapan y no solo dentro de cada una.
func TestRegisterReturn_SegundaDevolucionVeLaPrimera(t *testing.T) {
	c := armarCaja(t)
	c.sembrarProducto(t, "prod-1", "B1", nil, 10)
	c.sembrarProducto(t, "prod-2", "B2", nil, 10)
	_, err := c.venta.RegisterSale(context.Background(), empresa, cajero, dto.RegisterSaleRequest{
		StoreID:   tienda,
		Reference: "VENTA-004",
		Lines: []dto.SaleLineRequest{
			{ProductID: "prod-1", Quantity: dec("4"), UnitPrice: dec("100")},
			{ProductID: "prod-2", Quantity: dec("2"), UnitPrice: dec("100")},
		},
	})
	require.NoError(t, err)

	dev := c.devolucion()
	ctx := context.Background()

	_, err = dev.RegisterReturn(ctx, empresa, cajero, dto.RegisterReturnRequest{
		StoreID:       tienda,
		SaleReference: "VENTA-004",
		Lines: []dto.ReturnLineRequest{
			{ProductID: "prod-1", Quantity: dec("3")},
			{ProductID: "prod-2", Quantity: dec("2")},
		},
	})
	require.NoError(t, err)

	// La segunda devolución pide lo que la primera ya agotó en prod-2: el
	// historial bloqueado la delata y no escribe nada.
	movsAntes := len(c.store.Movements())
	_, err = dev.RegisterReturn(ctx, empresa, cajero, dto.RegisterReturnRequest{
		StoreID:       tienda,
		SaleReference: "VENTA-004",
		Lines: []dto.ReturnLineRequest{
			{ProductID: "prod-1", Quantity: dec("1")},
			{ProductID: "prod-2", Quantity: dec("1")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Len(t, c.store.Movements(), movsAntes)

	// Lo que sí queda devolvible (1 de prod-1) pasa.
	_, err = dev.RegisterReturn(ctx, empresa, cajero, dto.RegisterReturnRequest{
		StoreID:       tienda,
		SaleReference: "VENTA-004",
		Lines:         []dto.ReturnLineRequest{{ProductID: "prod-1", Quantity: dec("1")}},
	})
	require.NoError(t, err)
	assert.True(t, c.stockEnTienda(t, "prod-1").Equal(dec("10")))
	assert.True(t, c.stockEnTienda(t, "prod-2").Equal(dec("10")))
}

// Referencia desconocida: no hay venta que devolver.
func TestRegisterReturn_VentaInexistente(t *testing.T) {
	c := armarCaja(t)
	c.sembrarProducto(t, "prod-1", "B1", nil, 10)

	_, err := c.devolucion().RegisterReturn(context.Background(), empresa, cajero, dto.RegisterReturnRequest{
		StoreID:       tienda,
		SaleReference: "NO-EXISTE",
		Lines:         []dto.ReturnLineRequest{{ProductID: "prod-1", Quantity: dec("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Validaciones de entrada.
func TestRegisterReturn_Validaciones(t *testing.T) {
	c := armarCaja(t)
	dev := c.devolucion()
	ctx := context.Background()

	_, err := dev.RegisterReturn(ctx, empresa, cajero, dto.RegisterReturnRequest{
		StoreID: tienda, SaleReference: "V",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin líneas")

	_, err = dev.RegisterReturn(ctx, empresa, cajero, dto.RegisterReturnRequest{
		StoreID: tienda,
		Lines:   []dto.ReturnLineRequest{{ProductID: "prod-1", Quantity: dec("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin referencia de venta")

	_, err = dev.RegisterReturn(ctx, empresa, cajero, dto.RegisterReturnRequest{
		StoreID:       tienda,
		SaleReference: "V",
		Lines:         []dto.ReturnLineRequest{{ProductID: "prod-1", Quantity: dec("-1")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad negativa")
}
