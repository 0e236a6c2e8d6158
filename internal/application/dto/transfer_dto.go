package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	Source              LocationDTO     `json:"source"`
	Destination         LocationDTO     `json:"destination"`
	DestinationTenantID string          `json:"destination_tenant_id,omitempty"` // traslado cross-tenant
	ProductID           string          `json:"product_id"`
	VariantID           string          `json:"variant_id,omitempty"`
	Quantity            decimal.Decimal `json:"quantity"` // > 0
	BatchNumber         string          `json:"batch_number,omitempty"`
	ExpiryDate          *time.Time      `json:"expiry_date,omitempty"`
	Notes               string          `json:"notes,omitempty"`
}

// DecisionRequest body para reject/cancel (notas opcionales).
type DecisionRequest struct {
	Notes string `json:"notes,omitempty"`
}

// TransferResponse traslado en respuestas HTTP.
type TransferResponse struct {
	ID                  string          `json:"id"`
	TenantID            string          `json:"tenant_id"`
	Source              LocationDTO     `json:"source"`
	Destination         LocationDTO     `json:"destination"`
	DestinationTenantID string          `json:"destination_tenant_id,omitempty"`
	ProductID           string          `json:"product_id"`
	VariantID           string          `json:"variant_id,omitempty"`
	Quantity            decimal.Decimal `json:"quantity"`
	TransferType        string          `json:"transfer_type"`
	Status              string          `json:"status"`
	RequestedBy         string          `json:"requested_by"`
	ApprovedBy          string          `json:"approved_by,omitempty"`
	BatchNumber         string          `json:"batch_number,omitempty"`
	ExpiryDate          *time.Time      `json:"expiry_date,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}
