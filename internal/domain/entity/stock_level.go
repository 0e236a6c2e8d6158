package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockKey es la clave compuesta única de un nivel de stock.
type StockKey struct {
	TenantID  string
	ProductID string
	VariantID string // vacío = sin variante
	Location  Location
}

// String devuelve la forma canónica de la clave. Se usa para orden de bloqueo
// determinista cuando una transacción toca más de una fila de stock.
func (k StockKey) String() string {
	return k.TenantID + "|" + k.ProductID + "|" + k.VariantID + "|" + k.Location.Key()
}

// StockLevel es el agregado materializado de cantidad actual por clave.
// Es un cache derivado del ledger: quantity == Σ movimientos de la misma clave
// en todo límite de commit, y solo se muta en la misma transacción que el
// append del movimiento que la justifica.
type StockLevel struct {
	Key           StockKey
	Quantity      decimal.Decimal
	MinStockLevel *decimal.Decimal
	MaxStockLevel *decimal.Decimal
	ReorderPoint  *decimal.Decimal
	UpdatedAt     time.Time
}

// BelowReorderPoint indica si la cantidad actual está en o bajo el punto de reorden.
func (s *StockLevel) BelowReorderPoint() bool {
	if s.ReorderPoint == nil {
		return false
	}
	return s.Quantity.LessThanOrEqual(*s.ReorderPoint)
}
