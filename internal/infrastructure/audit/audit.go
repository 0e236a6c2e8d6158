package audit

import (
	"context"

	"github.com/farmapos/farmacore/internal/application/inventory"
	"github.com/farmapos/farmacore/pkg/logger"
)

// ZerologAuditor escribe el rastro de auditoría como entradas estructuradas
// del logger de la aplicación. Las mutaciones de stock ya commitearon cuando
// se llega aquí; un fallo de auditoría jamás las revierte.
type ZerologAuditor struct {
	log *logger.Logger
}

// NewZerologAuditor construye el auditor sobre el logger dado.
func NewZerologAuditor(log *logger.Logger) *ZerologAuditor {
	return &ZerologAuditor{log: log}
}

// Record emite la entrada de auditoría.
func (a *ZerologAuditor) Record(_ context.Context, entry inventory.AuditEntry) error {
	a.log.Info().
		Str("audit", entry.Action).
		Str("entity_id", entry.EntityID).
		Str("tenant_id", entry.TenantID).
		Interface("details", entry.Details).
		Msg("auditoría")
	return nil
}
