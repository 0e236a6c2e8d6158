package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/farmapos/farmacore/internal/domain/entity"
	"github.com/farmapos/farmacore/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación del ledger sobre PostgreSQL (usable con pool o tx).
// La tabla stock_movements es append-only: este adaptador no expone UPDATE ni
// DELETE, y las correcciones son movimientos nuevos.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, tenant_id, product_id, variant_id, location_type, location_id,
	batch_number, expiry_date, quantity, movement_type, reference, cost_price, created_at, created_by`

// Create persiste un movimiento. Asigna ID si viene vacío.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.TenantID, m.ProductID, m.VariantID,
		string(m.Location.Kind()), m.Location.ID(),
		m.BatchNumber, m.ExpiryDate, m.Quantity, m.Type,
		nullIfEmpty(m.Reference), m.CostPrice, m.CreatedAt, nullIfEmpty(m.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID, o nil si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE tenant_id = $1 AND id = $2`
	row := r.q.QueryRow(ctx, query, tenantID, id)
	m, err := scanMovement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListByProduct lista movimientos de un producto, más recientes primero.
func (r *MovementRepo) ListByProduct(ctx context.Context, tenantID, productID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE tenant_id = $1 AND product_id = $2`
	args := []any{tenantID, productID}
	query, args = appendDateRange(query, args, from, to)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	return r.list(ctx, query, args...)
}

// ListByLocation lista movimientos de una ubicación, más recientes primero.
func (r *MovementRepo) ListByLocation(ctx context.Context, tenantID string, location entity.Location, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE tenant_id = $1 AND location_type = $2 AND location_id = $3`
	args := []any{tenantID, string(location.Kind()), location.ID()}
	query, args = appendDateRange(query, args, from, to)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	return r.list(ctx, query, args...)
}

// ListByReference lista los movimientos ligados a una referencia, en orden de
// creación (el orden importa para reconstruir porciones de venta).
func (r *MovementRepo) ListByReference(ctx context.Context, tenantID, reference string) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE tenant_id = $1 AND reference = $2 ORDER BY created_at ASC`
	return r.list(ctx, query, tenantID, reference)
}

// ListBatches agrega el ledger por lote: remanente (suma firmada), vencimiento
// fijado por el primer IN del lote y timestamp del último movimiento. Solo
// lotes con remanente positivo.
func (r *MovementRepo) ListBatches(ctx context.Context, key entity.StockKey) ([]entity.Batch, error) {
	const query = `
		SELECT batch_number,
		       MIN(expiry_date)  AS expiry_date,
		       SUM(quantity)     AS remaining,
		       MAX(created_at)   AS last_movement_at
		FROM stock_movements
		WHERE tenant_id = $1 AND product_id = $2 AND variant_id = $3
		  AND location_type = $4 AND location_id = $5
		  AND batch_number <> ''
		GROUP BY batch_number
		HAVING SUM(quantity) > 0
		ORDER BY MIN(expiry_date) NULLS LAST, MAX(created_at)`
	rows, err := r.q.Query(ctx, query,
		key.TenantID, key.ProductID, key.VariantID,
		string(key.Location.Kind()), key.Location.ID(),
	)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []entity.Batch
	for rows.Next() {
		var b entity.Batch
		if err := rows.Scan(&b.BatchNumber, &b.ExpiryDate, &b.Remaining, &b.LastMovementAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// SumByKey suma las cantidades firmadas del ledger para una clave de stock.
func (r *MovementRepo) SumByKey(ctx context.Context, key entity.StockKey) (decimal.Decimal, error) {
	const query = `
		SELECT COALESCE(SUM(quantity), 0)
		FROM stock_movements
		WHERE tenant_id = $1 AND product_id = $2 AND variant_id = $3
		  AND location_type = $4 AND location_id = $5`
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx, query,
		key.TenantID, key.ProductID, key.VariantID,
		string(key.Location.Kind()), key.Location.ID(),
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum movements: %w", err)
	}
	return sum, nil
}

func (r *MovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// rowScanner cubre pgx.Row y pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovement(row rowScanner) (*entity.Movement, error) {
	var (
		m            entity.Movement
		locationType string
		locationID   string
		reference    *string
		createdBy    *string
	)
	if err := row.Scan(
		&m.ID, &m.TenantID, &m.ProductID, &m.VariantID,
		&locationType, &locationID,
		&m.BatchNumber, &m.ExpiryDate, &m.Quantity, &m.Type,
		&reference, &m.CostPrice, &m.CreatedAt, &createdBy,
	); err != nil {
		return nil, err
	}
	loc, err := entity.ParseLocation(locationType, locationID)
	if err != nil {
		return nil, err
	}
	m.Location = loc
	if reference != nil {
		m.Reference = *reference
	}
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	return &m, nil
}

func appendDateRange(query string, args []any, from, to *time.Time) (string, []any) {
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	return query, args
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
