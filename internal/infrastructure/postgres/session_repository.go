package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/farmapos/farmacore/internal/domain/entity"
	"github.com/farmapos/farmacore/internal/domain/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo lectura de sesiones de caja y del ledger de pagos, propiedad
// del módulo POS externo. Este adaptador nunca escribe sobre esas tablas.
type SessionRepo struct {
	q Querier
}

// NewSessionRepository construye el adaptador de solo lectura.
func NewSessionRepository(q Querier) *SessionRepo {
	return &SessionRepo{q: q}
}

// GetSession devuelve la sesión o nil si no existe.
func (r *SessionRepo) GetSession(ctx context.Context, tenantID, sessionID string) (*entity.POSSession, error) {
	const query = `
		SELECT id, tenant_id, store_id, user_id, opening_balance, closing_balance,
		       is_open, opened_at, closed_at
		FROM pos_sessions
		WHERE id = $1 AND tenant_id = $2`
	var s entity.POSSession
	err := r.q.QueryRow(ctx, query, sessionID, tenantID).Scan(
		&s.ID, &s.TenantID, &s.StoreID, &s.UserID,
		&s.OpeningBalance, &s.ClosingBalance,
		&s.IsOpen, &s.OpenedAt, &s.ClosedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pos session: %w", err)
	}
	return &s, nil
}

// PaymentSumsByMethod agrupa los pagos de venta exitosos de la sesión por método.
func (r *SessionRepo) PaymentSumsByMethod(ctx context.Context, tenantID, sessionID string) ([]repository.MethodSum, error) {
	const query = `
		SELECT payment_method, COALESCE(SUM(amount), 0), COUNT(*)
		FROM pos_payments
		WHERE tenant_id = $1 AND session_id = $2 AND kind = $3 AND status = 'completed'
		GROUP BY payment_method
		ORDER BY payment_method`
	rows, err := r.q.Query(ctx, query, tenantID, sessionID, entity.PaymentKindSale)
	if err != nil {
		return nil, fmt.Errorf("payment sums by method: %w", err)
	}
	defer rows.Close()

	var sums []repository.MethodSum
	for rows.Next() {
		var m repository.MethodSum
		if err := rows.Scan(&m.Method, &m.Total, &m.Count); err != nil {
			return nil, fmt.Errorf("scan method sum: %w", err)
		}
		sums = append(sums, m)
	}
	return sums, rows.Err()
}

// CashFlowSums devuelve los agregados de efectivo de la sesión: ventas en
// efectivo, devoluciones en efectivo y retiros de caja.
func (r *SessionRepo) CashFlowSums(ctx context.Context, tenantID, sessionID string) (repository.CashFlowSums, error) {
	const query = `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE kind = $3), 0),
			COALESCE(SUM(amount) FILTER (WHERE kind = $4), 0),
			COALESCE(SUM(amount) FILTER (WHERE kind = $5), 0)
		FROM pos_payments
		WHERE tenant_id = $1 AND session_id = $2
		  AND payment_method = $6 AND status = 'completed'`
	var sums repository.CashFlowSums
	err := r.q.QueryRow(ctx, query,
		tenantID, sessionID,
		entity.PaymentKindSale, entity.PaymentKindRefund, entity.PaymentKindDrop,
		entity.PaymentMethodCash,
	).Scan(&sums.CashSales, &sums.CashRefunds, &sums.CashDrops)
	if err != nil {
		return repository.CashFlowSums{}, fmt.Errorf("cash flow sums: %w", err)
	}
	return sums, nil
}
