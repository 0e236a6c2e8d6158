package entity

import (
	"fmt"
	"strings"
)

// LocationKind discrimina entre tienda y bodega.
type LocationKind string

const (
	LocationStore     LocationKind = "store"
	LocationWarehouse LocationKind = "warehouse"
)

// Location identifica dónde vive el stock: una tienda O una bodega, nunca
// ambas ni ninguna. Los campos son privados para que el único camino de
// construcción sean los constructores, que garantizan la variante cerrada.
type Location struct {
	kind LocationKind
	id   string
}

// StoreLocation construye la variante tienda.
func StoreLocation(id string) Location {
	return Location{kind: LocationStore, id: id}
}

// WarehouseLocation construye la variante bodega.
func WarehouseLocation(id string) Location {
	return Location{kind: LocationWarehouse, id: id}
}

// ParseLocation arma una Location desde sus componentes serializados (HTTP, DB).
func ParseLocation(kind, id string) (Location, error) {
	if id == "" {
		return Location{}, fmt.Errorf("location: id vacío")
	}
	switch LocationKind(kind) {
	case LocationStore:
		return StoreLocation(id), nil
	case LocationWarehouse:
		return WarehouseLocation(id), nil
	default:
		return Location{}, fmt.Errorf("location: tipo desconocido %q", kind)
	}
}

// Kind devuelve la variante (store o warehouse).
func (l Location) Kind() LocationKind { return l.kind }

// ID devuelve el identificador de la tienda o bodega.
func (l Location) ID() string { return l.id }

// IsZero indica si la Location no fue construida por un constructor.
func (l Location) IsZero() bool { return l.kind == "" || l.id == "" }

// Key devuelve la forma canónica "kind:id". Se usa como clave de cache y como
// criterio de orden determinista al bloquear filas de stock de dos ubicaciones.
func (l Location) Key() string {
	return string(l.kind) + ":" + l.id
}

// Equal compara dos ubicaciones.
func (l Location) Equal(other Location) bool {
	return l.kind == other.kind && l.id == other.id
}

// CompareKeys ordena claves canónicas de ubicación (para bloqueo determinista).
func CompareKeys(a, b string) int {
	return strings.Compare(a, b)
}
