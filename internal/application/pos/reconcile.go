package pos

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/farmapos/farmacore/internal/application/dto"
	"github.com/farmapos/farmacore/internal/domain"
	"github.com/farmapos/farmacore/internal/domain/repository"
)

// Estados del arqueo.
const (
	ReconciliationOK          = "OK"
	ReconciliationDiscrepancy = "DISCREPANCY"
)

// ReconcileUseCase arqueo de caja: agregación pura de SOLO LECTURA sobre la
// sesión y el ledger de pagos externo. No muta ledger ni stock.
type ReconcileUseCase struct {
	sessionRepo repository.SessionRepository
	tolerance   decimal.Decimal
}

// NewReconcileUseCase construye el caso de uso. tolerance es el margen
// aceptado de diferencia de caja (configurable; por defecto cero).
func NewReconcileUseCase(sessionRepo repository.SessionRepository, tolerance decimal.Decimal) *ReconcileUseCase {
	return &ReconcileUseCase{sessionRepo: sessionRepo, tolerance: tolerance}
}

// Reconcile calcula el efectivo esperado de la sesión y lo compara con el
// declarado por el cajero:
//
//	esperado  = apertura + ventas_efectivo − devoluciones_efectivo − retiros
//	diferencia = declarado − esperado
func (uc *ReconcileUseCase) Reconcile(ctx context.Context, tenantID, sessionID string, declaredClosingCash decimal.Decimal) (*dto.ReconciliationResponse, error) {
	session, err := uc.sessionRepo.GetSession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}

	flows, err := uc.sessionRepo.CashFlowSums(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	expected := session.OpeningBalance.
		Add(flows.CashSales).
		Sub(flows.CashRefunds).
		Sub(flows.CashDrops)
	difference := declaredClosingCash.Sub(expected)

	status := ReconciliationOK
	if difference.Abs().GreaterThan(uc.tolerance) {
		status = ReconciliationDiscrepancy
	}

	return &dto.ReconciliationResponse{
		SessionID:      sessionID,
		OpeningBalance: session.OpeningBalance,
		CashSales:      flows.CashSales,
		CashRefunds:    flows.CashRefunds,
		CashDrops:      flows.CashDrops,
		ExpectedCash:   expected,
		DeclaredCash:   declaredClosingCash,
		CashDifference: difference,
		Status:         status,
	}, nil
}

// PaymentsBreakdown suma los pagos de la sesión por método, más el total
// general. Lectura independiente del arqueo.
func (uc *ReconcileUseCase) PaymentsBreakdown(ctx context.Context, tenantID, sessionID string) (*dto.PaymentsBreakdownResponse, error) {
	session, err := uc.sessionRepo.GetSession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}

	sums, err := uc.sessionRepo.PaymentSumsByMethod(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	resp := &dto.PaymentsBreakdownResponse{SessionID: sessionID}
	for _, s := range sums {
		resp.Methods = append(resp.Methods, dto.MethodSumDTO{Method: s.Method, Total: s.Total, Count: s.Count})
		resp.GrandTotal = resp.GrandTotal.Add(s.Total)
	}
	return resp, nil
}
