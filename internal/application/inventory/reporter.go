package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/farmapos/farmacore/internal/domain/entity"
	"github.com/farmapos/farmacore/pkg/logger"
)

// Reporter agrupa los efectos colaterales best-effort (auditoría, eventos,
// invalidación de cache). Todo se invoca estrictamente DESPUÉS del commit;
// los fallos se loguean y se tragan, jamás llegan al caller.
type Reporter struct {
	audit  AuditLogger
	events EventPublisher
	cache  CacheInvalidator
	log    *logger.Logger
}

// NewReporter construye el reporter. Cualquier dependencia puede ser nil
// (se omite ese efecto), útil en tests y en despliegues sin redis.
func NewReporter(audit AuditLogger, events EventPublisher, cache CacheInvalidator, log *logger.Logger) *Reporter {
	return &Reporter{audit: audit, events: events, cache: cache, log: log}
}

// Audit registra una entrada de auditoría post-commit.
func (r *Reporter) Audit(ctx context.Context, entry AuditEntry) {
	if r == nil || r.audit == nil {
		return
	}
	if err := r.audit.Record(ctx, entry); err != nil && r.log != nil {
		r.log.Warn().Err(err).Str("action", entry.Action).Msg("auditoría falló, se ignora")
	}
}

// Emit publica un evento de dominio post-commit.
func (r *Reporter) Emit(ctx context.Context, name, tenantID string, payload map[string]any) {
	if r == nil || r.events == nil {
		return
	}
	evt := Event{
		ID:         uuid.New().String(),
		Name:       name,
		TenantID:   tenantID,
		Payload:    payload,
		OccurredAt: time.Now(),
	}
	if err := r.events.Publish(ctx, evt); err != nil && r.log != nil {
		r.log.Warn().Err(err).Str("event", name).Msg("publicación de evento falló, se ignora")
	}
}

// InvalidateStock invalida el cache de la clave afectada.
func (r *Reporter) InvalidateStock(ctx context.Context, tenantID, productID string, location entity.Location) {
	if r == nil || r.cache == nil {
		return
	}
	if err := r.cache.InvalidateStock(ctx, tenantID, productID, location); err != nil && r.log != nil {
		r.log.Warn().Err(err).Str("product_id", productID).Str("location", location.Key()).
			Msg("invalidación de cache falló, se ignora")
	}
}
