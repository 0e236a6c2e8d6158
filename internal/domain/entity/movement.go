package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario. Los de entrada suman al stock (cantidad
// positiva), los de salida restan (cantidad negativa en el ledger).
const (
	MovementTypePURCHASE    = "PURCHASE"
	MovementTypeSALE        = "SALE"
	MovementTypeRETURN      = "RETURN"
	MovementTypeADJUSTMENT  = "ADJUSTMENT"
	MovementTypeTRANSFERIN  = "TRANSFER_IN"
	MovementTypeTRANSFEROUT = "TRANSFER_OUT"
	MovementTypeWASTAGE     = "WASTAGE"
	MovementTypeEXPIRE      = "EXPIRE"
	MovementTypeDAMAGE      = "DAMAGE"
)

var movementTypes = map[string]struct{}{
	MovementTypePURCHASE:    {},
	MovementTypeSALE:        {},
	MovementTypeRETURN:      {},
	MovementTypeADJUSTMENT:  {},
	MovementTypeTRANSFERIN:  {},
	MovementTypeTRANSFEROUT: {},
	MovementTypeWASTAGE:     {},
	MovementTypeEXPIRE:      {},
	MovementTypeDAMAGE:      {},
}

// ValidMovementType indica si el tipo es uno de los reconocidos por el ledger.
func ValidMovementType(t string) bool {
	_, ok := movementTypes[t]
	return ok
}

// OutboundMovementType indica si el tipo representa una salida de stock.
func OutboundMovementType(t string) bool {
	switch t {
	case MovementTypeSALE, MovementTypeTRANSFEROUT, MovementTypeWASTAGE,
		MovementTypeEXPIRE, MovementTypeDAMAGE:
		return true
	}
	return false
}

// Movement es una entrada del ledger de inventario: inmutable, append-only,
// con cantidad firmada distinta de cero. Nunca se actualiza ni se borra;
// las correcciones son movimientos nuevos de signo contrario.
type Movement struct {
	ID          string
	TenantID    string
	ProductID   string
	VariantID   string // vacío = producto sin variantes
	Location    Location
	BatchNumber string     // vacío = sin lote
	ExpiryDate  *time.Time // fijado por el primer movimiento IN del lote
	Quantity    decimal.Decimal
	Type        string
	Reference   string // factura, venta POS, traslado, nota de ajuste
	CostPrice   *decimal.Decimal
	CreatedAt   time.Time
	CreatedBy   string
}

// StockKey devuelve la clave compuesta del nivel de stock que afecta este movimiento.
func (m *Movement) StockKey() StockKey {
	return StockKey{
		TenantID:  m.TenantID,
		ProductID: m.ProductID,
		VariantID: m.VariantID,
		Location:  m.Location,
	}
}
