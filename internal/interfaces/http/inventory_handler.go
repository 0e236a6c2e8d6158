package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farmapos/farmacore/internal/application/dto"
	"github.com/farmapos/farmacore/internal/application/inventory"
)

// InventoryHandler maneja las peticiones HTTP del ledger y el índice de stock (protegido).
type InventoryHandler struct {
	record      *inventory.RecordMovementUseCase
	query       *inventory.StockQueryUseCase
	maintenance *inventory.StockMaintenanceUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(record *inventory.RecordMovementUseCase, query *inventory.StockQueryUseCase, maintenance *inventory.StockMaintenanceUseCase) *InventoryHandler {
	return &InventoryHandler{record: record, query: query, maintenance: maintenance}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, location, type, quantity firmada, batch_number/expiry_date (lotes), cost_price (entradas)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	userID := GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	loc, err := parseLocationDTO(in.Location)
	if err != nil {
		return respondError(c, err)
	}
	mov, err := h.record.Execute(c.Context(), inventory.MovementInput{
		TenantID:    tenantID,
		ProductID:   in.ProductID,
		VariantID:   in.VariantID,
		Location:    loc,
		BatchNumber: in.BatchNumber,
		ExpiryDate:  in.ExpiryDate,
		Quantity:    in.Quantity,
		Type:        in.Type,
		Reference:   in.Reference,
		CostPrice:   in.CostPrice,
		CreatedBy:   userID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(movementToDTO(mov))
}

// GetStockLevel godoc
// @Summary      Nivel actual de una clave de stock
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id     query  string  true   "UUID del producto"
// @Param        variant_id     query  string  false  "Variante (vacío = sin variantes)"
// @Param        location_type  query  string  true   "store | warehouse"
// @Param        location_id    query  string  true   "UUID de la ubicación"
// @Success      200  {object}  dto.StockLevelResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [get]
func (h *InventoryHandler) GetStockLevel(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	key, err := stockKeyQuery(c, tenantID)
	if err != nil {
		return respondError(c, err)
	}
	level, err := h.query.GetLevel(c.Context(), key)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stockLevelToDTO(level))
}

// ListStock godoc
// @Summary      Listar niveles de stock de la empresa
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        location_type  query  string  false  "Filtrar por ubicación"
// @Param        location_id    query  string  false  "UUID de la ubicación"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/inventory/stock/list [get]
func (h *InventoryHandler) ListStock(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	loc, err := optionalLocationQuery(c)
	if err != nil {
		return respondError(c, err)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()

	levels, err := h.query.ListLevels(c.Context(), tenantID, loc, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.StockLevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, stockLevelToDTO(l))
	}
	return c.JSON(fiber.Map{"total": len(out), "stock": out})
}

// ListBatches godoc
// @Summary      Lotes con remanente de una clave de stock
// @Description  Estado derivado del ledger: remanente por lote, vencimiento y
//
//	marca de "por vencer" según la ventana configurada.
//
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id     query  string  true   "UUID del producto"
// @Param        location_type  query  string  true   "store | warehouse"
// @Param        location_id    query  string  true   "UUID de la ubicación"
// @Success      200  {array}   dto.BatchResponse
// @Router       /api/inventory/batches [get]
func (h *InventoryHandler) ListBatches(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	key, err := stockKeyQuery(c, tenantID)
	if err != nil {
		return respondError(c, err)
	}
	batches, nearFlags, err := h.query.ListBatches(c.Context(), key)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.BatchResponse, 0, len(batches))
	for i, b := range batches {
		out = append(out, dto.BatchResponse{
			BatchNumber: b.BatchNumber,
			ExpiryDate:  b.ExpiryDate,
			Remaining:   b.Remaining,
			NearExpiry:  nearFlags[i],
		})
	}
	return c.JSON(out)
}

// ListLowStock godoc
// @Summary      Lista de reposición
// @Description  Claves en o bajo su punto de reorden con cantidad sugerida de pedido.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        location_type  query  string  false  "Filtrar por ubicación"
// @Param        location_id    query  string  false  "UUID de la ubicación"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) ListLowStock(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	loc, err := optionalLocationQuery(c)
	if err != nil {
		return respondError(c, err)
	}
	levels, suggested, err := h.query.ListLowStock(c.Context(), tenantID, loc)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.LowStockItemDTO, 0, len(levels))
	for i, l := range levels {
		item := dto.LowStockItemDTO{
			ProductID:         l.Key.ProductID,
			VariantID:         l.Key.VariantID,
			Location:          locationToDTO(l.Key.Location),
			Quantity:          l.Quantity,
			SuggestedOrderQty: suggested[i],
		}
		if l.ReorderPoint != nil {
			item.ReorderPoint = *l.ReorderPoint
		}
		out = append(out, item)
	}
	return c.JSON(fiber.Map{"total": len(out), "items": out})
}

// ListMovements godoc
// @Summary      Historial de movimientos
// @Description  Por producto (product_id) o por ubicación (location_type +
//
//	location_id); exactamente uno de los dos filtros es obligatorio.
//
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "UUID del producto"
// @Param        from        query  string  false  "RFC 3339"
// @Param        to          query  string  false  "RFC 3339"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	from, to, err := dateRangeQuery(c)
	if err != nil {
		return respondError(c, err)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()

	if productID := c.Query("product_id"); productID != "" {
		list, err := h.query.MovementsByProduct(c.Context(), tenantID, productID, from, to, page.Limit, page.Offset)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(movementsPayload(list))
	}

	loc, err := locationQuery(c)
	if err != nil {
		return respondError(c, err)
	}
	list, err := h.query.MovementsByLocation(c.Context(), tenantID, loc, from, to, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(movementsPayload(list))
}

// UpdateThresholds godoc
// @Summary      Actualizar umbrales de una clave de stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpdateThresholdsRequest  true  "min/max/punto de reorden"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/thresholds [put]
func (h *InventoryHandler) UpdateThresholds(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.UpdateThresholdsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	loc, err := parseLocationDTO(in.Location)
	if err != nil {
		return respondError(c, err)
	}
	key := stockKeyFrom(tenantID, in.ProductID, in.VariantID, loc)
	if err := h.maintenance.UpdateThresholds(c.Context(), key, in.MinStockLevel, in.MaxStockLevel, in.ReorderPoint); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "umbrales actualizados"})
}

// DeleteStockRecord godoc
// @Summary      Eliminar un registro del índice de stock
// @Description  Solo mantenimiento: el ledger queda intacto.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id     query  string  true  "UUID del producto"
// @Param        location_type  query  string  true  "store | warehouse"
// @Param        location_id    query  string  true  "UUID de la ubicación"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [delete]
func (h *InventoryHandler) DeleteStockRecord(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	key, err := stockKeyQuery(c, tenantID)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.maintenance.DeleteRecord(c.Context(), key); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "registro eliminado"})
}

// CheckConsistency godoc
// @Summary      Verificar índice contra ledger
// @Description  Compara la cantidad del índice con la suma firmada del ledger
//
//	para una clave. Herramienta de diagnóstico.
//
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/inventory/stock/consistency [get]
func (h *InventoryHandler) CheckConsistency(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	key, err := stockKeyQuery(c, tenantID)
	if err != nil {
		return respondError(c, err)
	}
	indexQty, ledgerQty, consistent, err := h.query.CheckConsistency(c.Context(), key)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"index_quantity":  indexQty,
		"ledger_quantity": ledgerQty,
		"consistent":      consistent,
	})
}
