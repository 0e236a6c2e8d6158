package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/farmapos/farmacore/internal/domain"
	"github.com/farmapos/farmacore/internal/domain/entity"
	"github.com/farmapos/farmacore/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

// StockLevelRepo implementación del índice materializado sobre PostgreSQL
// (usable con pool o tx).
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

const stockLevelColumns = `tenant_id, product_id, variant_id, location_type, location_id,
	quantity, min_stock_level, max_stock_level, reorder_point, updated_at`

// Get devuelve el nivel o nil si la clave no existe.
func (r *StockLevelRepo) Get(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error) {
	level, err := r.get(ctx, key, false)
	if err != nil {
		return nil, err
	}
	return level, nil
}

// GetForUpdate bloquea la fila (SELECT FOR UPDATE) y la devuelve. Clave
// ausente: devuelve un nivel en cero sin persistir; ApplyDelta crea la fila.
// Con la fila ausente el FOR UPDATE no bloquea nada, por eso toda escritura
// de cantidad pasa por ApplyDelta, que es relativa.
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error) {
	level, err := r.get(ctx, key, true)
	if err != nil {
		return nil, err
	}
	if level == nil {
		return &entity.StockLevel{Key: key, Quantity: decimal.Zero}, nil
	}
	return level, nil
}

func (r *StockLevelRepo) get(ctx context.Context, key entity.StockKey, forUpdate bool) (*entity.StockLevel, error) {
	query := `SELECT ` + stockLevelColumns + ` FROM stock_levels
		WHERE tenant_id = $1 AND product_id = $2 AND variant_id = $3
		  AND location_type = $4 AND location_id = $5`
	if forUpdate {
		query += " FOR UPDATE"
	}
	row := r.q.QueryRow(ctx, query,
		key.TenantID, key.ProductID, key.VariantID,
		string(key.Location.Kind()), key.Location.ID(),
	)
	level, err := scanStockLevel(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return level, nil
}

// ApplyDelta suma el delta firmado a la cantidad de la clave, creando la fila
// si no existe. La suma ocurre en la base (quantity = quantity + delta): dos
// transacciones que estrenan la misma clave acumulan ambos deltas aunque el
// SELECT FOR UPDATE previo no haya encontrado fila que bloquear.
func (r *StockLevelRepo) ApplyDelta(ctx context.Context, key entity.StockKey, delta decimal.Decimal, at time.Time) (*entity.StockLevel, error) {
	const query = `
		INSERT INTO stock_levels (tenant_id, product_id, variant_id, location_type, location_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id, product_id, variant_id, location_type, location_id)
		DO UPDATE SET quantity = stock_levels.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
		RETURNING ` + stockLevelColumns
	row := r.q.QueryRow(ctx, query,
		key.TenantID, key.ProductID, key.VariantID,
		string(key.Location.Kind()), key.Location.ID(),
		delta, at,
	)
	level, err := scanStockLevel(row)
	if err != nil {
		return nil, fmt.Errorf("apply stock delta: %w", err)
	}
	return level, nil
}

// UpdateThresholds actualiza umbrales de una clave existente; ausente es
// ErrStockRecordNotFound (no auto-crea).
func (r *StockLevelRepo) UpdateThresholds(ctx context.Context, level *entity.StockLevel) error {
	const query = `
		UPDATE stock_levels
		SET min_stock_level = $6, max_stock_level = $7, reorder_point = $8, updated_at = now()
		WHERE tenant_id = $1 AND product_id = $2 AND variant_id = $3
		  AND location_type = $4 AND location_id = $5`
	tag, err := r.q.Exec(ctx, query,
		level.Key.TenantID, level.Key.ProductID, level.Key.VariantID,
		string(level.Key.Location.Kind()), level.Key.Location.ID(),
		level.MinStockLevel, level.MaxStockLevel, level.ReorderPoint,
	)
	if err != nil {
		return fmt.Errorf("update thresholds: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStockRecordNotFound
	}
	return nil
}

// Delete elimina el registro del índice; ausente es ErrStockRecordNotFound.
func (r *StockLevelRepo) Delete(ctx context.Context, key entity.StockKey) error {
	const query = `
		DELETE FROM stock_levels
		WHERE tenant_id = $1 AND product_id = $2 AND variant_id = $3
		  AND location_type = $4 AND location_id = $5`
	tag, err := r.q.Exec(ctx, query,
		key.TenantID, key.ProductID, key.VariantID,
		string(key.Location.Kind()), key.Location.ID(),
	)
	if err != nil {
		return fmt.Errorf("delete stock level: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStockRecordNotFound
	}
	return nil
}

// ListByTenant lista niveles de una empresa, opcionalmente por ubicación.
func (r *StockLevelRepo) ListByTenant(ctx context.Context, tenantID string, location *entity.Location, limit, offset int) ([]*entity.StockLevel, error) {
	query := `SELECT ` + stockLevelColumns + ` FROM stock_levels WHERE tenant_id = $1`
	args := []any{tenantID}
	if location != nil {
		args = append(args, string(location.Kind()), location.ID())
		query += fmt.Sprintf(" AND location_type = $%d AND location_id = $%d", len(args)-1, len(args))
	}
	query += fmt.Sprintf(" ORDER BY product_id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	return r.list(ctx, query, args...)
}

// ListBelowReorderPoint devuelve los niveles en o bajo su punto de reorden.
func (r *StockLevelRepo) ListBelowReorderPoint(ctx context.Context, tenantID string, location *entity.Location) ([]*entity.StockLevel, error) {
	query := `SELECT ` + stockLevelColumns + ` FROM stock_levels
		WHERE tenant_id = $1 AND reorder_point IS NOT NULL AND quantity <= reorder_point`
	args := []any{tenantID}
	if location != nil {
		args = append(args, string(location.Kind()), location.ID())
		query += fmt.Sprintf(" AND location_type = $%d AND location_id = $%d", len(args)-1, len(args))
	}
	query += " ORDER BY quantity - reorder_point"
	return r.list(ctx, query, args...)
}

func (r *StockLevelRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockLevel, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockLevel
	for rows.Next() {
		level, err := scanStockLevel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		list = append(list, level)
	}
	return list, rows.Err()
}

func scanStockLevel(row rowScanner) (*entity.StockLevel, error) {
	var (
		level        entity.StockLevel
		locationType string
		locationID   string
	)
	if err := row.Scan(
		&level.Key.TenantID, &level.Key.ProductID, &level.Key.VariantID,
		&locationType, &locationID,
		&level.Quantity, &level.MinStockLevel, &level.MaxStockLevel, &level.ReorderPoint,
		&level.UpdatedAt,
	); err != nil {
		return nil, err
	}
	loc, err := entity.ParseLocation(locationType, locationID)
	if err != nil {
		return nil, err
	}
	level.Key.Location = loc
	return &level, nil
}
