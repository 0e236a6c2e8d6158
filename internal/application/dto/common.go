package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// LocationDTO par (tipo, id) que viaja por HTTP; se convierte a entity.Location
// con ParseLocation para que la variante inválida no entre al dominio.
type LocationDTO struct {
	Type string `json:"type"` // "store" | "warehouse"
	ID   string `json:"id"`
}
