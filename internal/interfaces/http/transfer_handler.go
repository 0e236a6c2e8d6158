package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farmapos/farmacore/internal/application/dto"
	"github.com/farmapos/farmacore/internal/application/transfer"
)

// TransferHandler maneja las peticiones HTTP del flujo de traslados (protegido).
type TransferHandler struct {
	workflow *transfer.WorkflowUseCase
}

// NewTransferHandler construye el handler.
func NewTransferHandler(workflow *transfer.WorkflowUseCase) *TransferHandler {
	return &TransferHandler{workflow: workflow}
}

// Create godoc
// @Summary      Solicitar traslado de stock
// @Description  Crea el traslado en pending. El stock NO se mueve ni se
//
//	reserva hasta la aprobación.
//
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "origen, destino, producto, cantidad; destination_tenant_id para cross-tenant"
// @Success      201  {object}  dto.TransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	userID := GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	source, err := parseLocationDTO(in.Source)
	if err != nil {
		return respondError(c, err)
	}
	destination, err := parseLocationDTO(in.Destination)
	if err != nil {
		return respondError(c, err)
	}
	t, err := h.workflow.Create(c.Context(), transfer.CreateInput{
		TenantID:            tenantID,
		RequestedBy:         userID,
		Source:              source,
		Destination:         destination,
		DestinationTenantID: in.DestinationTenantID,
		ProductID:           in.ProductID,
		VariantID:           in.VariantID,
		Quantity:            in.Quantity,
		BatchNumber:         in.BatchNumber,
		ExpiryDate:          in.ExpiryDate,
		Notes:               in.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(transferToDTO(t))
}

// Approve godoc
// @Summary      Aprobar un traslado pendiente
// @Description  Mueve el stock de verdad: TRANSFER_OUT en origen y TRANSFER_IN
//
//	en destino, preservando lotes, en una sola transacción. En
//	cross-tenant solo la empresa receptora puede aprobar.
//
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "UUID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/approve [post]
func (h *TransferHandler) Approve(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	userID := GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	t, err := h.workflow.Approve(c.Context(), tenantID, c.Params("id"), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transferToDTO(t))
}

// Reject godoc
// @Summary      Rechazar un traslado pendiente
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true   "UUID del traslado"
// @Param        body  body  dto.DecisionRequest  false  "notas opcionales"
// @Success      200  {object}  dto.TransferResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/reject [post]
func (h *TransferHandler) Reject(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	userID := GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.DecisionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	t, err := h.workflow.Reject(c.Context(), tenantID, c.Params("id"), userID, in.Notes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transferToDTO(t))
}

// Cancel godoc
// @Summary      Cancelar un traslado pendiente
// @Description  Solo la empresa solicitante puede cancelar.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true   "UUID del traslado"
// @Param        body  body  dto.DecisionRequest  false  "notas opcionales"
// @Success      200  {object}  dto.TransferResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	userID := GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.DecisionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	t, err := h.workflow.Cancel(c.Context(), tenantID, c.Params("id"), userID, in.Notes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transferToDTO(t))
}

// GetByID godoc
// @Summary      Consultar un traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "UUID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	t, err := h.workflow.Get(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transferToDTO(t))
}

// List godoc
// @Summary      Listar traslados de la empresa
// @Description  Incluye los traslados donde la empresa es origen o destino.
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "pending | completed | rejected | cancelled"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()

	list, err := h.workflow.List(c.Context(), tenantID, c.Query("status"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.TransferResponse, 0, len(list))
	for _, t := range list {
		out = append(out, transferToDTO(t))
	}
	return c.JSON(fiber.Map{"total": len(out), "transfers": out})
}

// Delete godoc
// @Summary      Eliminar un traslado no completado
// @Description  Un traslado completed está ligado al ledger y no puede borrarse.
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "UUID del traslado"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [delete]
func (h *TransferHandler) Delete(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	if err := h.workflow.Delete(c.Context(), tenantID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "traslado eliminado"})
}
