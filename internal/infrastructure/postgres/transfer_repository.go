package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/farmapos/farmacore/internal/domain"
	"github.com/farmapos/farmacore/internal/domain/entity"
	"github.com/farmapos/farmacore/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo persistencia de traslados de stock sobre PostgreSQL.
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, tenant_id, source_type, source_id, destination_type, destination_id,
	destination_tenant_id, product_id, variant_id, quantity, transfer_type, status,
	requested_by, approved_by, batch_number, expiry_date, notes, created_at, updated_at`

// Create persiste un traslado nuevo (status pending). Asigna ID si falta.
func (r *TransferRepo) Create(ctx context.Context, t *entity.StockTransfer) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO stock_transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now(), now())`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.TenantID,
		string(t.Source.Kind()), t.Source.ID(),
		string(t.Destination.Kind()), t.Destination.ID(),
		nullIfEmpty(t.DestinationTenantID),
		t.ProductID, t.VariantID, t.Quantity, t.TransferType, t.Status,
		t.RequestedBy, nullIfEmpty(t.ApprovedBy), t.BatchNumber, t.ExpiryDate, t.Notes,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create transfer: %w", err)
	}
	return nil
}

// GetByID devuelve un traslado o nil si no existe. Visible para origen y
// destino en traslados cross-tenant.
func (r *TransferRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.StockTransfer, error) {
	return r.get(ctx, tenantID, id, false)
}

// GetForUpdate bloquea la fila del traslado antes de decidir su estado.
func (r *TransferRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.StockTransfer, error) {
	return r.get(ctx, tenantID, id, true)
}

func (r *TransferRepo) get(ctx context.Context, tenantID, id string, forUpdate bool) (*entity.StockTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM stock_transfers
		WHERE id = $1 AND (tenant_id = $2 OR destination_tenant_id = $2)`
	if forUpdate {
		query += " FOR UPDATE"
	}
	row := r.q.QueryRow(ctx, query, id, tenantID)
	t, err := scanTransfer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return t, nil
}

// UpdateStatus fija el estado terminal, quién decidió y las notas.
func (r *TransferRepo) UpdateStatus(ctx context.Context, t *entity.StockTransfer) error {
	const query = `
		UPDATE stock_transfers
		SET status = $2, approved_by = $3, notes = $4, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, t.ID, t.Status, nullIfEmpty(t.ApprovedBy), t.Notes)
	if err != nil {
		return fmt.Errorf("update transfer status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransferNotFound
	}
	return nil
}

// Delete elimina un traslado. El caso de uso garantiza status != completed.
func (r *TransferRepo) Delete(ctx context.Context, tenantID, id string) error {
	const query = `DELETE FROM stock_transfers WHERE id = $1 AND tenant_id = $2`
	tag, err := r.q.Exec(ctx, query, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransferNotFound
	}
	return nil
}

// ListByTenant lista traslados donde la empresa es origen o destino.
func (r *TransferRepo) ListByTenant(ctx context.Context, tenantID, status string, limit, offset int) ([]*entity.StockTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM stock_transfers
		WHERE (tenant_id = $1 OR destination_tenant_id = $1)`
	args := []any{tenantID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockTransfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func scanTransfer(row rowScanner) (*entity.StockTransfer, error) {
	var (
		t          entity.StockTransfer
		sourceType string
		sourceID   string
		destType   string
		destID     string
		destTenant *string
		approvedBy *string
	)
	if err := row.Scan(
		&t.ID, &t.TenantID,
		&sourceType, &sourceID, &destType, &destID,
		&destTenant,
		&t.ProductID, &t.VariantID, &t.Quantity, &t.TransferType, &t.Status,
		&t.RequestedBy, &approvedBy, &t.BatchNumber, &t.ExpiryDate, &t.Notes,
		&t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	source, err := entity.ParseLocation(sourceType, sourceID)
	if err != nil {
		return nil, err
	}
	dest, err := entity.ParseLocation(destType, destID)
	if err != nil {
		return nil, err
	}
	t.Source = source
	t.Destination = dest
	if destTenant != nil {
		t.DestinationTenantID = *destTenant
	}
	if approvedBy != nil {
		t.ApprovedBy = *approvedBy
	}
	return &t, nil
}
