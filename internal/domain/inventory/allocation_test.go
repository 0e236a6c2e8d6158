package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmapos/farmacore/internal/domain/entity"
	"github.com/farmapos/farmacore/internal/domain/inventory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var (
	ahora   = time.Date(2023, 12, 15, 10, 0, 0, 0, time.UTC)
	ventana = 30 * 24 * time.Hour
)

func lote(numero string, vence *time.Time, remanente int64, ultimoMov time.Time) entity.Batch {
	return entity.Batch{
		BatchNumber:    numero,
		ExpiryDate:     vence,
		Remaining:      decimal.NewFromInt(remanente),
		LastMovementAt: ultimoMov,
	}
}

func fecha(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests PlanAllocation
// ──────────────────────────────────────────────────────────────────────────────

// El lote que vence primero se consume primero; el siguiente cubre el resto.
func TestPlanAllocation_FIFOPorVencimiento(t *testing.T) {
	batches := []entity.Batch{
		// Deliberadamente en desorden: el plan debe ordenar por vencimiento.
		lote("B2", fecha(2024, 2, 1), 5, ahora),
		lote("B1", fecha(2024, 1, 1), 5, ahora),
	}

	plan, disponible, ok := inventory.PlanAllocation(batches, decimal.NewFromInt(7), ahora, ventana)

	require.True(t, ok)
	assert.True(t, disponible.Equal(decimal.NewFromInt(10)))
	require.Len(t, plan, 2)
	assert.Equal(t, "B1", plan[0].BatchNumber)
	assert.True(t, plan[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, "B2", plan[1].BatchNumber)
	assert.True(t, plan[1].Quantity.Equal(decimal.NewFromInt(2)))
}

// Un lote vencido nunca es candidato aunque tenga remanente.
func TestPlanAllocation_ExcluyeVencidos(t *testing.T) {
	batches := []entity.Batch{
		lote("VENCIDO", fecha(2023, 11, 1), 100, ahora),
		lote("VIGENTE", fecha(2024, 6, 1), 4, ahora),
	}

	plan, disponible, ok := inventory.PlanAllocation(batches, decimal.NewFromInt(4), ahora, ventana)

	require.True(t, ok)
	assert.True(t, disponible.Equal(decimal.NewFromInt(4)), "el vencido no cuenta como disponible")
	require.Len(t, plan, 1)
	assert.Equal(t, "VIGENTE", plan[0].BatchNumber)
}

// Si lo elegible no alcanza, ok=false y el plan es nulo: el caller aborta todo.
func TestPlanAllocation_InsuficienteDevuelveDisponible(t *testing.T) {
	batches := []entity.Batch{
		lote("B1", fecha(2024, 1, 1), 3, ahora),
	}

	plan, disponible, ok := inventory.PlanAllocation(batches, decimal.NewFromInt(10), ahora, ventana)

	assert.False(t, ok)
	assert.Nil(t, plan)
	assert.True(t, disponible.Equal(decimal.NewFromInt(3)))
}

// Los lotes sin vencimiento salen al final, desempatados por antigüedad.
func TestPlanAllocation_SinVencimientoAlFinal(t *testing.T) {
	viejo := ahora.Add(-48 * time.Hour)
	batches := []entity.Batch{
		lote("SIN-FECHA", nil, 10, viejo),
		lote("CON-FECHA", fecha(2024, 3, 1), 2, ahora),
	}

	plan, _, ok := inventory.PlanAllocation(batches, decimal.NewFromInt(5), ahora, ventana)

	require.True(t, ok)
	require.Len(t, plan, 2)
	assert.Equal(t, "CON-FECHA", plan[0].BatchNumber)
	assert.Equal(t, "SIN-FECHA", plan[1].BatchNumber)
	assert.True(t, plan[1].Quantity.Equal(decimal.NewFromInt(3)))
}

// A igual vencimiento gana el lote que lleva más tiempo sin moverse.
func TestPlanAllocation_DesempatePorUltimoMovimiento(t *testing.T) {
	vence := fecha(2024, 5, 1)
	batches := []entity.Batch{
		lote("RECIENTE", vence, 5, ahora),
		lote("ANTIGUO", vence, 5, ahora.Add(-72*time.Hour)),
	}

	plan, _, ok := inventory.PlanAllocation(batches, decimal.NewFromInt(6), ahora, ventana)

	require.True(t, ok)
	require.Len(t, plan, 2)
	assert.Equal(t, "ANTIGUO", plan[0].BatchNumber)
	assert.Equal(t, "RECIENTE", plan[1].BatchNumber)
}

// La marca near-expiry se evalúa contra la ventana: informativa, no bloqueante.
func TestPlanAllocation_MarcaPorVencer(t *testing.T) {
	batches := []entity.Batch{
		lote("PRONTO", fecha(2023, 12, 30), 5, ahora), // dentro de la ventana de 30 días
		lote("LEJOS", fecha(2024, 12, 1), 5, ahora),
	}

	plan, _, ok := inventory.PlanAllocation(batches, decimal.NewFromInt(10), ahora, ventana)

	require.True(t, ok)
	require.Len(t, plan, 2)
	assert.True(t, plan[0].NearExpiry, "lote dentro de la ventana debe marcarse")
	assert.False(t, plan[1].NearExpiry)
}
