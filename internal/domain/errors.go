package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrDuplicate            = errors.New("recurso duplicado")
	ErrForbidden            = errors.New("acceso denegado")
	ErrConflict             = errors.New("conflicto con el estado actual")
	ErrInvalidMovement      = errors.New("movimiento de inventario inválido")
	ErrInsufficientStock    = errors.New("stock insuficiente")
	ErrStockRecordNotFound  = errors.New("registro de stock no encontrado")
	ErrTransferNotFound     = errors.New("traslado no encontrado")
	ErrTransferNotPending   = errors.New("el traslado no está pendiente")
	ErrCrossTenantForbidden = errors.New("traslado entre empresas no permitido")
	ErrSessionNotFound      = errors.New("sesión de caja no encontrada")
)

// InsufficientStockError lleva el contexto que el caller necesita para armar
// un mensaje específico (qué producto, en qué ubicación, cuánto faltó).
type InsufficientStockError struct {
	ProductID   string
	LocationKey string
	Requested   decimal.Decimal
	Available   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s en %s: solicitado %s, disponible %s",
		e.ProductID, e.LocationKey, e.Requested.String(), e.Available.String())
}

// Unwrap permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
