package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/farmapos/farmacore/internal/application/dto"
	"github.com/farmapos/farmacore/internal/application/pos"
)

// POSHandler maneja las peticiones HTTP del punto de venta (protegido).
type POSHandler struct {
	sale      *pos.SaleUseCase
	returns   *pos.ReturnUseCase
	reconcile *pos.ReconcileUseCase
}

// NewPOSHandler construye el handler.
func NewPOSHandler(sale *pos.SaleUseCase, returns *pos.ReturnUseCase, reconcile *pos.ReconcileUseCase) *POSHandler {
	return &POSHandler{sale: sale, returns: returns, reconcile: reconcile}
}

// RegisterSale godoc
// @Summary      Registrar venta POS
// @Description  Descuenta el carrito completo en una sola transacción con
//
//	asignación FIFO por vencimiento. Si una línea no alcanza, la
//	venta entera se rechaza y no queda ningún movimiento.
//
// @Tags         pos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterSaleRequest  true  "store_id, líneas con cantidad y precio"
// @Success      201  {object}  dto.RegisterSaleResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/pos/sales [post]
func (h *POSHandler) RegisterSale(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	userID := GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.RegisterSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	resp, err := h.sale.RegisterSale(c.Context(), tenantID, userID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// RegisterReturn godoc
// @Summary      Registrar devolución de venta
// @Description  Valida cada línea contra lo realmente vendido (menos lo ya
//
//	devuelto) y reingresa el stock a los lotes originales.
//
// @Tags         pos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterReturnRequest  true  "sale_reference y líneas a devolver"
// @Success      201  {object}  dto.RegisterReturnResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/pos/returns [post]
func (h *POSHandler) RegisterReturn(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	userID := GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.RegisterReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	resp, err := h.returns.RegisterReturn(c.Context(), tenantID, userID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Reconcile godoc
// @Summary      Arqueo de sesión de caja
// @Description  Solo lectura: efectivo esperado = apertura + ventas en
//
//	efectivo − devoluciones − retiros; compara contra lo declarado.
//
// @Tags         pos
// @Security     Bearer
// @Produce      json
// @Param        id             path   string  true  "UUID de la sesión"
// @Param        declared_cash  query  string  true  "efectivo contado al cierre (decimal)"
// @Success      200  {object}  dto.ReconciliationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/pos/sessions/{id}/reconcile [get]
func (h *POSHandler) Reconcile(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	declared, err := decimal.NewFromString(c.Query("declared_cash"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "declared_cash inválido"})
	}
	resp, err := h.reconcile.Reconcile(c.Context(), tenantID, c.Params("id"), declared)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// PaymentsBreakdown godoc
// @Summary      Desglose de pagos por método
// @Tags         pos
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "UUID de la sesión"
// @Success      200  {object}  dto.PaymentsBreakdownResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/pos/sessions/{id}/payments [get]
func (h *POSHandler) PaymentsBreakdown(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	resp, err := h.reconcile.PaymentsBreakdown(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}
