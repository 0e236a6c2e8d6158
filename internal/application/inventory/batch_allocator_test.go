package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmapos/farmacore/internal/application/inventory"
	"github.com/farmapos/farmacore/internal/domain"
	"github.com/farmapos/farmacore/internal/domain/entity"
	"github.com/farmapos/farmacore/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testTenant  = "tenant-1"
	testProduct = "prod-1"
	testStore   = "store-1"
	testUser    = "user-1"
)

var reloj = time.Date(2023, 12, 15, 10, 0, 0, 0, time.UTC)

func testKey() entity.StockKey {
	return entity.StockKey{
		TenantID:  testTenant,
		ProductID: testProduct,
		Location:  entity.StoreLocation(testStore),
	}
}

// sembrarCompra registra un PURCHASE (ledger + índice) para dejar stock listo.
func sembrarCompra(t *testing.T, store *memory.Store, batch string, expiry *time.Time, qty int64, at time.Time) {
	t.Helper()
	movRepo := memory.NewMovementRepository(store)
	stockRepo := memory.NewStockLevelRepository(store)
	_, _, err := inventory.ApplyMovement(context.Background(), movRepo, stockRepo, &entity.Movement{
		TenantID:    testTenant,
		ProductID:   testProduct,
		Location:    entity.StoreLocation(testStore),
		BatchNumber: batch,
		ExpiryDate:  expiry,
		Quantity:    decimal.NewFromInt(qty),
		Type:        entity.MovementTypePURCHASE,
		CreatedAt:   at,
		CreatedBy:   testUser,
	})
	require.NoError(t, err)
}

func fechaVence(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func nuevoAsignador() *inventory.BatchAllocator {
	return inventory.NewBatchAllocator(30).WithClock(func() time.Time { return reloj })
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AllocateOut
// ──────────────────────────────────────────────────────────────────────────────

// Dos lotes de 5: pedir 7 consume 5 del que vence primero y 2 del siguiente,
// y el índice queda cuadrado con la suma del ledger.
func TestAllocateOut_FIFOEntreLotes(t *testing.T) {
	store := memory.NewStore()
	sembrarCompra(t, store, "B1", fechaVence(2024, 1, 1), 5, reloj.Add(-2*time.Hour))
	sembrarCompra(t, store, "B2", fechaVence(2024, 2, 1), 5, reloj.Add(-time.Hour))

	movRepo := memory.NewMovementRepository(store)
	stockRepo := memory.NewStockLevelRepository(store)

	res, err := nuevoAsignador().AllocateOut(context.Background(), movRepo, stockRepo, inventory.AllocationRequest{
		Key:          testKey(),
		Quantity:     decimal.NewFromInt(7),
		MovementType: entity.MovementTypeSALE,
		Reference:    "venta-1",
		CreatedBy:    testUser,
	})
	require.NoError(t, err)

	require.Len(t, res.Consumptions, 2)
	assert.Equal(t, "B1", res.Consumptions[0].BatchNumber)
	assert.True(t, res.Consumptions[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, "B2", res.Consumptions[1].BatchNumber)
	assert.True(t, res.Consumptions[1].Quantity.Equal(decimal.NewFromInt(2)))

	// Índice después del descuento.
	level, err := stockRepo.Get(context.Background(), testKey())
	require.NoError(t, err)
	assert.True(t, level.Quantity.Equal(decimal.NewFromInt(3)))

	// Invariante: índice == suma firmada del ledger.
	sum, err := movRepo.SumByKey(context.Background(), testKey())
	require.NoError(t, err)
	assert.True(t, level.Quantity.Equal(sum))
}

// Con stock total suficiente pero elegible insuficiente (lote vencido), la
// asignación aborta con el detalle y NO escribe ningún movimiento.
func TestAllocateOut_VencidoNoCuentaYNoEscribeNada(t *testing.T) {
	store := memory.NewStore()
	sembrarCompra(t, store, "VENCIDO", fechaVence(2023, 11, 1), 100, reloj.Add(-time.Hour))
	sembrarCompra(t, store, "VIGENTE", fechaVence(2024, 6, 1), 3, reloj.Add(-time.Hour))
	antes := len(store.Movements())

	movRepo := memory.NewMovementRepository(store)
	stockRepo := memory.NewStockLevelRepository(store)

	_, err := nuevoAsignador().AllocateOut(context.Background(), movRepo, stockRepo, inventory.AllocationRequest{
		Key:          testKey(),
		Quantity:     decimal.NewFromInt(10),
		MovementType: entity.MovementTypeSALE,
		CreatedBy:    testUser,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insuf *domain.InsufficientStockError
	require.ErrorAs(t, err, &insuf)
	assert.True(t, insuf.Requested.Equal(decimal.NewFromInt(10)))
	assert.True(t, insuf.Available.Equal(decimal.NewFromInt(3)), "solo lo vigente es disponible")

	assert.Len(t, store.Movements(), antes, "cero movimientos parciales")
}

// Restricción a un lote puntual: solo ese lote es candidato.
func TestAllocateOut_RestriccionDeLote(t *testing.T) {
	store := memory.NewStore()
	sembrarCompra(t, store, "B1", fechaVence(2024, 1, 1), 5, reloj.Add(-2*time.Hour))
	sembrarCompra(t, store, "B2", fechaVence(2024, 2, 1), 5, reloj.Add(-time.Hour))

	movRepo := memory.NewMovementRepository(store)
	stockRepo := memory.NewStockLevelRepository(store)

	res, err := nuevoAsignador().AllocateOut(context.Background(), movRepo, stockRepo, inventory.AllocationRequest{
		Key:          testKey(),
		Quantity:     decimal.NewFromInt(4),
		MovementType: entity.MovementTypeTRANSFEROUT,
		Reference:    "traslado-1",
		CreatedBy:    testUser,
		BatchNumber:  "B2",
	})
	require.NoError(t, err)
	require.Len(t, res.Consumptions, 1)
	assert.Equal(t, "B2", res.Consumptions[0].BatchNumber)
}

// Stock sin número de lote: sale del pool sin lote cuando los lotes fechados
// no existen o ya se agotaron.
func TestAllocateOut_PoolSinLote(t *testing.T) {
	store := memory.NewStore()
	sembrarCompra(t, store, "", nil, 8, reloj.Add(-time.Hour))

	movRepo := memory.NewMovementRepository(store)
	stockRepo := memory.NewStockLevelRepository(store)

	res, err := nuevoAsignador().AllocateOut(context.Background(), movRepo, stockRepo, inventory.AllocationRequest{
		Key:          testKey(),
		Quantity:     decimal.NewFromInt(6),
		MovementType: entity.MovementTypeSALE,
		CreatedBy:    testUser,
	})
	require.NoError(t, err)
	require.Len(t, res.Consumptions, 1)
	assert.Empty(t, res.Consumptions[0].BatchNumber)
	assert.True(t, res.Consumptions[0].Quantity.Equal(decimal.NewFromInt(6)))

	level, err := stockRepo.Get(context.Background(), testKey())
	require.NoError(t, err)
	assert.True(t, level.Quantity.Equal(decimal.NewFromInt(2)))
}

// Solo tipos de salida; cantidades no positivas se rechazan de entrada.
func TestAllocateOut_Validaciones(t *testing.T) {
	store := memory.NewStore()
	movRepo := memory.NewMovementRepository(store)
	stockRepo := memory.NewStockLevelRepository(store)

	_, err := nuevoAsignador().AllocateOut(context.Background(), movRepo, stockRepo, inventory.AllocationRequest{
		Key:          testKey(),
		Quantity:     decimal.Zero,
		MovementType: entity.MovementTypeSALE,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = nuevoAsignador().AllocateOut(context.Background(), movRepo, stockRepo, inventory.AllocationRequest{
		Key:          testKey(),
		Quantity:     decimal.NewFromInt(1),
		MovementType: entity.MovementTypePURCHASE,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMovement)
}
