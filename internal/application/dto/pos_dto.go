package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLineRequest línea del carrito de una venta POS.
type SaleLineRequest struct {
	ProductID string           `json:"product_id"`
	VariantID string           `json:"variant_id,omitempty"`
	Quantity  decimal.Decimal  `json:"quantity"` // > 0
	UnitPrice decimal.Decimal  `json:"unit_price"`
	Discount  *decimal.Decimal `json:"discount,omitempty"` // por unidad
	TaxRate   *decimal.Decimal `json:"tax_rate,omitempty"` // fracción: 0.19
}

// RegisterSaleRequest body para POST /api/pos/sales.
type RegisterSaleRequest struct {
	StoreID         string            `json:"store_id"`
	SessionID       string            `json:"session_id,omitempty"`
	Lines           []SaleLineRequest `json:"lines"`
	ShippingFee     *decimal.Decimal  `json:"shipping_fee,omitempty"`
	OverallDiscount *decimal.Decimal  `json:"overall_discount,omitempty"`
	Reference       string            `json:"reference,omitempty"` // clave de idempotencia del caller
}

// SalePortionDTO porción de lote consumida por una línea.
type SalePortionDTO struct {
	BatchNumber string          `json:"batch_number,omitempty"`
	ExpiryDate  *time.Time      `json:"expiry_date,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	NearExpiry  bool            `json:"near_expiry"`
}

// SaleLineResponse línea resuelta con sus porciones y subtotales.
type SaleLineResponse struct {
	ProductID    string           `json:"product_id"`
	VariantID    string           `json:"variant_id,omitempty"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitPrice    decimal.Decimal  `json:"unit_price"`
	LineSubtotal decimal.Decimal  `json:"line_subtotal"`
	TaxAmount    decimal.Decimal  `json:"tax_amount"`
	Portions     []SalePortionDTO `json:"portions"`
}

// RegisterSaleResponse totales y advertencias de una venta registrada.
type RegisterSaleResponse struct {
	SaleID        string             `json:"sale_id"`
	Lines         []SaleLineResponse `json:"lines"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	TaxTotal      decimal.Decimal    `json:"tax_total"`
	DiscountTotal decimal.Decimal    `json:"discount_total"`
	ShippingFee   decimal.Decimal    `json:"shipping_fee"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	Warnings      []string           `json:"warnings,omitempty"` // lotes por vencer, informativo
}

// ReturnLineRequest línea de una devolución de venta.
type ReturnLineRequest struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"` // > 0
}

// RegisterReturnRequest body para POST /api/pos/returns. SaleReference es la
// referencia de la venta original; la devolución se valida contra su ledger.
type RegisterReturnRequest struct {
	StoreID       string              `json:"store_id"`
	SaleReference string              `json:"sale_reference"`
	Lines         []ReturnLineRequest `json:"lines"`
	Notes         string              `json:"notes,omitempty"`
}

// RegisterReturnResponse resultado de la devolución.
type RegisterReturnResponse struct {
	ReturnID  string             `json:"return_id"`
	Movements []MovementResponse `json:"movements"`
}

// ReconciliationResponse resultado del arqueo de una sesión de caja.
type ReconciliationResponse struct {
	SessionID      string          `json:"session_id"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	CashSales      decimal.Decimal `json:"cash_sales"`
	CashRefunds    decimal.Decimal `json:"cash_refunds"`
	CashDrops      decimal.Decimal `json:"cash_drops"`
	ExpectedCash   decimal.Decimal `json:"expected_cash"`
	DeclaredCash   decimal.Decimal `json:"declared_cash"`
	CashDifference decimal.Decimal `json:"cash_difference"`
	Status         string          `json:"status"` // "OK" | "DISCREPANCY"
}

// PaymentsBreakdownResponse sumas por método de pago de una sesión.
type PaymentsBreakdownResponse struct {
	SessionID  string          `json:"session_id"`
	Methods    []MethodSumDTO  `json:"methods"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// MethodSumDTO agregado por método.
type MethodSumDTO struct {
	Method string          `json:"method"`
	Total  decimal.Decimal `json:"total"`
	Count  int64           `json:"count"`
}
