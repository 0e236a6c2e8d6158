package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch es un estado derivado, no una tabla: el conjunto de movimientos que
// comparten (producto, ubicación, número de lote). Remaining es la suma de sus
// cantidades firmadas; la fecha de vencimiento la fija el primer IN del lote.
type Batch struct {
	BatchNumber    string
	ExpiryDate     *time.Time
	Remaining      decimal.Decimal
	LastMovementAt time.Time
}

// Expired indica si el lote está vencido respecto a "now".
func (b *Batch) Expired(now time.Time) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return b.ExpiryDate.Before(now)
}

// NearExpiry indica si el lote vence dentro de la ventana dada (informativo,
// nunca bloquea una venta).
func (b *Batch) NearExpiry(now time.Time, window time.Duration) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return !b.Expired(now) && b.ExpiryDate.Sub(now) < window
}
