package inventory

import (
	"context"
	"time"

	"github.com/farmapos/farmacore/internal/domain/entity"
	"github.com/farmapos/farmacore/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Es el mecanismo de atomicidad del motor:
// append del ledger + delta del índice commitean o ruedan atrás juntos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockLevelRepository,
		transferRepo repository.TransferRepository,
	) error) error
}

// Nombres de eventos de dominio que emite el motor (post-commit).
const (
	EventMovementRecorded  = "inventory.movement.recorded"
	EventStockLow          = "inventory.stock.low"
	EventTransferApproved  = "transfer.approved"
	EventTransferRejected  = "transfer.rejected"
	EventTransferCancelled = "transfer.cancelled"
	EventSaleRecorded      = "pos.sale.recorded"
	EventReturnRecorded    = "pos.return.recorded"
)

// Event es el evento de dominio que se publica a los suscriptores
// (notificaciones, invalidación de cache, etc.).
type Event struct {
	ID         string
	Name       string
	TenantID   string
	Payload    map[string]any
	OccurredAt time.Time
}

// EventPublisher publica eventos de dominio. Se inyecta (nada de emisores
// globales); el motor nunca espera a los suscriptores.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// AuditEntry registro de auditoría post-commit.
type AuditEntry struct {
	Action   string
	EntityID string
	TenantID string
	Details  map[string]any
}

// AuditLogger escribe auditoría. Fallar aquí se loguea y se ignora: nunca
// revierte la mutación de stock ya commiteada.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// CacheInvalidator invalida entradas de cache de listados/detalle por clave
// (tenant, producto, ubicación). Advisory: su fallo no afecta la transacción.
type CacheInvalidator interface {
	InvalidateStock(ctx context.Context, tenantID, productID string, location entity.Location) error
}
