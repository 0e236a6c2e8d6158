package pos_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmapos/farmacore/internal/application/pos"
	"github.com/farmapos/farmacore/internal/domain"
	"github.com/farmapos/farmacore/internal/domain/entity"
	"github.com/farmapos/farmacore/internal/infrastructure/memory"
)

const sesion = "sesion-1"

// armarArqueo deja una sesión con apertura 100 y flujos de efectivo:
// ventas 500, devolución 50, retiro 200 → esperado 350.
func armarArqueo(t *testing.T, tolerance decimal.Decimal) (*memory.Store, *pos.ReconcileUseCase) {
	t.Helper()
	store := memory.NewStore()
	store.SeedSession(&entity.POSSession{
		ID:             sesion,
		TenantID:       empresa,
		StoreID:        tienda,
		UserID:         cajero,
		OpeningBalance: dec("100"),
		IsOpen:         true,
		OpenedAt:       time.Date(2023, 12, 15, 8, 0, 0, 0, time.UTC),
	})
	store.SeedPayment(memory.Payment{TenantID: empresa, SessionID: sesion, Kind: entity.PaymentKindSale, Method: "cash", Amount: dec("300")})
	store.SeedPayment(memory.Payment{TenantID: empresa, SessionID: sesion, Kind: entity.PaymentKindSale, Method: "cash", Amount: dec("200")})
	store.SeedPayment(memory.Payment{TenantID: empresa, SessionID: sesion, Kind: entity.PaymentKindRefund, Method: "cash", Amount: dec("50")})
	store.SeedPayment(memory.Payment{TenantID: empresa, SessionID: sesion, Kind: entity.PaymentKindDrop, Method: "cash", Amount: dec("200")})
	return store, pos.NewReconcileUseCase(memory.NewSessionRepository(store), tolerance)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestReconcile_CajaCuadrada(t *testing.T) {
	_, uc := armarArqueo(t, decimal.Zero)

	resp, err := uc.Reconcile(context.Background(), empresa, sesion, dec("350"))
	require.NoError(t, err)

	assert.True(t, resp.ExpectedCash.Equal(dec("350")))
	assert.True(t, resp.CashSales.Equal(dec("500")))
	assert.True(t, resp.CashRefunds.Equal(dec("50")))
	assert.True(t, resp.CashDrops.Equal(dec("200")))
	assert.True(t, resp.CashDifference.IsZero())
	assert.Equal(t, pos.ReconciliationOK, resp.Status)
}

// Faltante: la diferencia va firmada (declarado − esperado).
func TestReconcile_FaltanteEsDiscrepancia(t *testing.T) {
	_, uc := armarArqueo(t, decimal.Zero)

	resp, err := uc.Reconcile(context.Background(), empresa, sesion, dec("300"))
	require.NoError(t, err)
	assert.True(t, resp.CashDifference.Equal(dec("-50")))
	assert.Equal(t, pos.ReconciliationDiscrepancy, resp.Status)
}

// Una diferencia dentro de la tolerancia configurada cuadra.
func TestReconcile_ToleranciaAbsorbeDiferencia(t *testing.T) {
	_, uc := armarArqueo(t, dec("1"))

	resp, err := uc.Reconcile(context.Background(), empresa, sesion, dec("350.5"))
	require.NoError(t, err)
	assert.True(t, resp.CashDifference.Equal(dec("0.5")))
	assert.Equal(t, pos.ReconciliationOK, resp.Status)

	resp, err = uc.Reconcile(context.Background(), empresa, sesion, dec("352"))
	require.NoError(t, err)
	assert.Equal(t, pos.ReconciliationDiscrepancy, resp.Status)
}

// Solo cuentan pagos en efectivo con estado completed: tarjetas y anulados
// no mueven el esperado.
func TestReconcile_IgnoraTarjetasYAnulados(t *testing.T) {
	store, uc := armarArqueo(t, decimal.Zero)
	store.SeedPayment(memory.Payment{TenantID: empresa, SessionID: sesion, Kind: entity.PaymentKindSale, Method: "card", Amount: dec("900")})
	store.SeedPayment(memory.Payment{TenantID: empresa, SessionID: sesion, Kind: entity.PaymentKindSale, Method: "cash", Amount: dec("80"), Status: "voided"})

	resp, err := uc.Reconcile(context.Background(), empresa, sesion, dec("350"))
	require.NoError(t, err)
	assert.True(t, resp.ExpectedCash.Equal(dec("350")))
	assert.Equal(t, pos.ReconciliationOK, resp.Status)
}

func TestReconcile_SesionInexistente(t *testing.T) {
	_, uc := armarArqueo(t, decimal.Zero)

	_, err := uc.Reconcile(context.Background(), empresa, "otra-sesion", dec("0"))
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Tampoco es visible desde otra empresa.
	_, err = uc.Reconcile(context.Background(), "otra-empresa", sesion, dec("0"))
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

// El desglose por método suma solo ventas, ordenado por método.
func TestPaymentsBreakdown_SumaPorMetodo(t *testing.T) {
	store, uc := armarArqueo(t, decimal.Zero)
	store.SeedPayment(memory.Payment{TenantID: empresa, SessionID: sesion, Kind: entity.PaymentKindSale, Method: "card", Amount: dec("900")})

	resp, err := uc.PaymentsBreakdown(context.Background(), empresa, sesion)
	require.NoError(t, err)
	require.Len(t, resp.Methods, 2)

	assert.Equal(t, "card", resp.Methods[0].Method)
	assert.True(t, resp.Methods[0].Total.Equal(dec("900")))
	assert.Equal(t, int64(1), resp.Methods[0].Count)

	assert.Equal(t, "cash", resp.Methods[1].Method)
	assert.True(t, resp.Methods[1].Total.Equal(dec("500")))
	assert.Equal(t, int64(2), resp.Methods[1].Count)

	assert.True(t, resp.GrandTotal.Equal(dec("1400")))
}
