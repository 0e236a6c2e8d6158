package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
type RegisterMovementRequest struct {
	ProductID   string           `json:"product_id"`
	VariantID   string           `json:"variant_id,omitempty"`
	Location    LocationDTO      `json:"location"`
	BatchNumber string           `json:"batch_number,omitempty"`
	ExpiryDate  *time.Time       `json:"expiry_date,omitempty"`
	Type        string           `json:"type"`
	Quantity    decimal.Decimal  `json:"quantity"` // firmada, != 0
	Reference   string           `json:"reference,omitempty"`
	CostPrice   *decimal.Decimal `json:"cost_price,omitempty"`
}

// MovementResponse representa una entrada del ledger en respuestas HTTP.
type MovementResponse struct {
	ID          string           `json:"id"`
	ProductID   string           `json:"product_id"`
	VariantID   string           `json:"variant_id,omitempty"`
	Location    LocationDTO      `json:"location"`
	BatchNumber string           `json:"batch_number,omitempty"`
	ExpiryDate  *time.Time       `json:"expiry_date,omitempty"`
	Type        string           `json:"type"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Reference   string           `json:"reference,omitempty"`
	CostPrice   *decimal.Decimal `json:"cost_price,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	CreatedBy   string           `json:"created_by,omitempty"`
}

// StockLevelResponse nivel actual de una clave de stock.
type StockLevelResponse struct {
	ProductID     string           `json:"product_id"`
	VariantID     string           `json:"variant_id,omitempty"`
	Location      LocationDTO      `json:"location"`
	Quantity      decimal.Decimal  `json:"quantity"`
	MinStockLevel *decimal.Decimal `json:"min_stock_level,omitempty"`
	MaxStockLevel *decimal.Decimal `json:"max_stock_level,omitempty"`
	ReorderPoint  *decimal.Decimal `json:"reorder_point,omitempty"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// BatchResponse estado derivado de un lote.
type BatchResponse struct {
	BatchNumber string          `json:"batch_number"`
	ExpiryDate  *time.Time      `json:"expiry_date,omitempty"`
	Remaining   decimal.Decimal `json:"remaining"`
	NearExpiry  bool            `json:"near_expiry"`
}

// UpdateThresholdsRequest body para PUT de umbrales de una clave de stock.
type UpdateThresholdsRequest struct {
	ProductID     string           `json:"product_id"`
	VariantID     string           `json:"variant_id,omitempty"`
	Location      LocationDTO      `json:"location"`
	MinStockLevel *decimal.Decimal `json:"min_stock_level,omitempty"`
	MaxStockLevel *decimal.Decimal `json:"max_stock_level,omitempty"`
	ReorderPoint  *decimal.Decimal `json:"reorder_point,omitempty"`
}

// LowStockItemDTO fila del listado de reposición: clave bajo punto de reorden
// con cantidad sugerida de pedido.
type LowStockItemDTO struct {
	ProductID         string          `json:"product_id"`
	VariantID         string          `json:"variant_id,omitempty"`
	Location          LocationDTO     `json:"location"`
	Quantity          decimal.Decimal `json:"quantity"`
	ReorderPoint      decimal.Decimal `json:"reorder_point"`
	SuggestedOrderQty decimal.Decimal `json:"suggested_order_qty"`
}
