package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/farmapos/farmacore/internal/application/dto"
	"github.com/farmapos/farmacore/internal/domain"
	"github.com/farmapos/farmacore/internal/domain/entity"
)

// parseLocationDTO convierte el par (type, id) del transporte a la ubicación
// del dominio. Tipo desconocido o id vacío: ErrInvalidInput.
func parseLocationDTO(in dto.LocationDTO) (entity.Location, error) {
	loc, err := entity.ParseLocation(in.Type, in.ID)
	if err != nil {
		return entity.Location{}, domain.ErrInvalidInput
	}
	return loc, nil
}

// locationQuery lee la ubicación desde query params (?location_type=&location_id=).
func locationQuery(c *fiber.Ctx) (entity.Location, error) {
	return parseLocationDTO(dto.LocationDTO{
		Type: c.Query("location_type"),
		ID:   c.Query("location_id"),
	})
}

// optionalLocationQuery igual que locationQuery pero nil si no se envió.
func optionalLocationQuery(c *fiber.Ctx) (*entity.Location, error) {
	if c.Query("location_type") == "" && c.Query("location_id") == "" {
		return nil, nil
	}
	loc, err := locationQuery(c)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// stockKeyQuery arma la clave de stock desde los query params de la petición.
func stockKeyQuery(c *fiber.Ctx, tenantID string) (entity.StockKey, error) {
	loc, err := locationQuery(c)
	if err != nil {
		return entity.StockKey{}, err
	}
	productID := c.Query("product_id")
	if productID == "" {
		return entity.StockKey{}, domain.ErrInvalidInput
	}
	return entity.StockKey{
		TenantID:  tenantID,
		ProductID: productID,
		VariantID: c.Query("variant_id"),
		Location:  loc,
	}, nil
}

// dateRangeQuery lee from/to (RFC 3339) desde query params.
func dateRangeQuery(c *fiber.Ctx) (from, to *time.Time, err error) {
	if s := c.Query("from"); s != "" {
		t, perr := time.Parse(time.RFC3339, s)
		if perr != nil {
			return nil, nil, domain.ErrInvalidInput
		}
		from = &t
	}
	if s := c.Query("to"); s != "" {
		t, perr := time.Parse(time.RFC3339, s)
		if perr != nil {
			return nil, nil, domain.ErrInvalidInput
		}
		to = &t
	}
	return from, to, nil
}

// stockKeyFrom arma la clave de stock desde campos ya validados.
func stockKeyFrom(tenantID, productID, variantID string, loc entity.Location) entity.StockKey {
	return entity.StockKey{
		TenantID:  tenantID,
		ProductID: productID,
		VariantID: variantID,
		Location:  loc,
	}
}

// movementsPayload cuerpo estándar de los listados de movimientos.
func movementsPayload(list []*entity.Movement) fiber.Map {
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, movementToDTO(m))
	}
	return fiber.Map{"total": len(out), "movements": out}
}

func locationToDTO(loc entity.Location) dto.LocationDTO {
	return dto.LocationDTO{Type: string(loc.Kind()), ID: loc.ID()}
}

func movementToDTO(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:          m.ID,
		ProductID:   m.ProductID,
		VariantID:   m.VariantID,
		Location:    locationToDTO(m.Location),
		BatchNumber: m.BatchNumber,
		ExpiryDate:  m.ExpiryDate,
		Type:        m.Type,
		Quantity:    m.Quantity,
		Reference:   m.Reference,
		CostPrice:   m.CostPrice,
		CreatedAt:   m.CreatedAt,
		CreatedBy:   m.CreatedBy,
	}
}

func stockLevelToDTO(l *entity.StockLevel) dto.StockLevelResponse {
	return dto.StockLevelResponse{
		ProductID:     l.Key.ProductID,
		VariantID:     l.Key.VariantID,
		Location:      locationToDTO(l.Key.Location),
		Quantity:      l.Quantity,
		MinStockLevel: l.MinStockLevel,
		MaxStockLevel: l.MaxStockLevel,
		ReorderPoint:  l.ReorderPoint,
		UpdatedAt:     l.UpdatedAt,
	}
}

func transferToDTO(t *entity.StockTransfer) dto.TransferResponse {
	return dto.TransferResponse{
		ID:                  t.ID,
		TenantID:            t.TenantID,
		Source:              locationToDTO(t.Source),
		Destination:         locationToDTO(t.Destination),
		DestinationTenantID: t.DestinationTenantID,
		ProductID:           t.ProductID,
		VariantID:           t.VariantID,
		Quantity:            t.Quantity,
		TransferType:        t.TransferType,
		Status:              t.Status,
		RequestedBy:         t.RequestedBy,
		ApprovedBy:          t.ApprovedBy,
		BatchNumber:         t.BatchNumber,
		ExpiryDate:          t.ExpiryDate,
		Notes:               t.Notes,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}
