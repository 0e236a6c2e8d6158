package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/farmapos/farmacore/internal/application/dto"
	"github.com/farmapos/farmacore/internal/domain"
)

// respondError traduce la taxonomía de errores del dominio a HTTP. El stock
// insuficiente es 409 (conflicto de estado, no error del cliente); los
// terminales de traslado también.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidMovement), errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		var insuf *domain.InsufficientStockError
		if errors.As(err, &insuf) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"code":      "INSUFFICIENT_STOCK",
				"message":   "stock insuficiente",
				"product":   insuf.ProductID,
				"location":  insuf.LocationKey,
				"requested": insuf.Requested,
				"available": insuf.Available,
			})
		}
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
	case errors.Is(err, domain.ErrTransferNotPending):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "TRANSFER_NOT_PENDING", Message: "el traslado ya fue decidido"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "el recurso ya existe"})
	case errors.Is(err, domain.ErrStockRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "STOCK_RECORD_NOT_FOUND", Message: "registro de stock no encontrado"})
	case errors.Is(err, domain.ErrTransferNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "TRANSFER_NOT_FOUND", Message: "traslado no encontrado"})
	case errors.Is(err, domain.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "sesión de caja no encontrada"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrCrossTenantForbidden), errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

// unauthorized respuesta estándar cuando faltan claims del token.
func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

// badBody respuesta estándar para body no parseable.
func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
