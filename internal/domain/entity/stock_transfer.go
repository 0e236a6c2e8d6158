package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del traslado. pending es el único no terminal; completed, rejected
// y cancelled son terminales y sin transiciones de salida.
const (
	TransferStatusPending   = "pending"
	TransferStatusCompleted = "completed"
	TransferStatusRejected  = "rejected"
	TransferStatusCancelled = "cancelled"
)

// Tipos de traslado.
const (
	TransferTypeIntraTenant = "intra-tenant"
	TransferTypeCrossTenant = "cross-tenant"
)

// StockTransfer es la solicitud de mover stock entre dos ubicaciones
// (posiblemente de empresas distintas), gobernada por la máquina de estados
// pending -> {completed | rejected | cancelled}. Un traslado completed queda
// ligado permanentemente al ledger y no puede borrarse.
type StockTransfer struct {
	ID                  string
	TenantID            string
	Source              Location
	Destination         Location
	DestinationTenantID string // vacío = misma empresa
	ProductID           string
	VariantID           string
	Quantity            decimal.Decimal // siempre > 0
	TransferType        string
	Status              string
	RequestedBy         string
	ApprovedBy          string
	BatchNumber         string // opcional: restringir la salida a un lote puntual
	ExpiryDate          *time.Time
	Notes               string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CrossTenant indica si el destino pertenece a otra empresa.
func (t *StockTransfer) CrossTenant() bool {
	return t.DestinationTenantID != "" && t.DestinationTenantID != t.TenantID
}

// ReceivingTenantID devuelve la empresa dueña del stock en destino.
func (t *StockTransfer) ReceivingTenantID() string {
	if t.DestinationTenantID != "" {
		return t.DestinationTenantID
	}
	return t.TenantID
}

// Pending indica si el traslado sigue abierto a decisión.
func (t *StockTransfer) Pending() bool {
	return t.Status == TransferStatusPending
}
