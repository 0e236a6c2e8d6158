package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmapos/farmacore/internal/domain/entity"
)

// Consumption es la porción descontada de un lote durante una asignación.
type Consumption struct {
	BatchNumber string
	ExpiryDate  *time.Time
	Quantity    decimal.Decimal
	NearExpiry  bool
}

// PlanAllocation decide de qué lotes sale una cantidad solicitada (servicio de
// dominio, puro). Reglas:
//   - lotes vencidos a "now" nunca son candidatos, aunque tengan remanente;
//   - orden ascendente por (vencimiento, último movimiento): primero el que
//     vence antes, y a igual vencimiento el que lleva más tiempo sin tocarse;
//   - se consume min(remanente, faltante) por lote.
//
// Si el total elegible no alcanza, devuelve ok=false con el disponible, y el
// caller debe abortar sin persistir nada.
func PlanAllocation(batches []entity.Batch, required decimal.Decimal, now time.Time, nearExpiryWindow time.Duration) (plan []Consumption, available decimal.Decimal, ok bool) {
	candidates := make([]entity.Batch, 0, len(batches))
	for _, b := range batches {
		if !b.Remaining.GreaterThan(decimal.Zero) || b.Expired(now) {
			continue
		}
		candidates = append(candidates, b)
		available = available.Add(b.Remaining)
	}
	if available.LessThan(required) {
		return nil, available, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ei, ej := candidates[i].ExpiryDate, candidates[j].ExpiryDate
		switch {
		case ei != nil && ej != nil && !ei.Equal(*ej):
			return ei.Before(*ej)
		case ei != nil && ej == nil:
			// Lotes con vencimiento salen antes que los que no vencen.
			return true
		case ei == nil && ej != nil:
			return false
		}
		return candidates[i].LastMovementAt.Before(candidates[j].LastMovementAt)
	})

	outstanding := required
	for _, b := range candidates {
		if !outstanding.GreaterThan(decimal.Zero) {
			break
		}
		take := decimal.Min(b.Remaining, outstanding)
		plan = append(plan, Consumption{
			BatchNumber: b.BatchNumber,
			ExpiryDate:  b.ExpiryDate,
			Quantity:    take,
			NearExpiry:  b.NearExpiry(now, nearExpiryWindow),
		})
		outstanding = outstanding.Sub(take)
	}
	return plan, available, true
}
