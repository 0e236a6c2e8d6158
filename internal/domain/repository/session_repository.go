package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/farmapos/farmacore/internal/domain/entity"
)

// MethodSum es el agregado de pagos por método dentro de una sesión.
type MethodSum struct {
	Method string
	Total  decimal.Decimal
	Count  int64
}

// CashFlowSums agrupa los totales de efectivo que entran al arqueo.
type CashFlowSums struct {
	CashSales   decimal.Decimal // pagos en efectivo exitosos
	CashRefunds decimal.Decimal // devoluciones en efectivo
	CashDrops   decimal.Decimal // retiros de efectivo a mitad de sesión
}

// SessionRepository es el puerto de SOLO LECTURA sobre las sesiones de caja y
// el ledger de pagos, que posee el módulo POS externo. El motor nunca los muta.
type SessionRepository interface {
	// GetSession devuelve la sesión o nil si no existe.
	GetSession(ctx context.Context, tenantID, sessionID string) (*entity.POSSession, error)

	// PaymentSumsByMethod agrupa los pagos de la sesión por método.
	PaymentSumsByMethod(ctx context.Context, tenantID, sessionID string) ([]MethodSum, error)

	// CashFlowSums devuelve los agregados de efectivo de la sesión.
	CashFlowSums(ctx context.Context, tenantID, sessionID string) (CashFlowSums, error)
}
