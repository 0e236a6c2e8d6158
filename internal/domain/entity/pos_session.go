package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// POSSession es la sesión de caja de un punto de venta. La posee el módulo de
// POS externo; el motor solo la lee para delimitar la conciliación.
type POSSession struct {
	ID             string
	TenantID       string
	StoreID        string
	UserID         string
	OpeningBalance decimal.Decimal
	ClosingBalance *decimal.Decimal
	IsOpen         bool
	OpenedAt       time.Time
	ClosedAt       *time.Time
}

// Clases de registro en el ledger de pagos externo. El motor solo agrega
// sumas sobre ellos, nunca los muta.
const (
	PaymentKindSale   = "sale"
	PaymentKindRefund = "refund"
	PaymentKindDrop   = "drop" // retiro de efectivo a mitad de sesión
)

// PaymentMethodCash es el método relevante para el arqueo de caja.
const PaymentMethodCash = "cash"
