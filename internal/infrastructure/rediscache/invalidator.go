package rediscache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/farmapos/farmacore/internal/domain/entity"
	"github.com/farmapos/farmacore/pkg/config"
)

// Invalidator borra del cache las entradas de stock afectadas por una
// mutación. Es advisory: un Redis caído se loguea aguas arriba y el flujo
// sigue; el cache se rehidrata desde la BD en la próxima lectura.
type Invalidator struct {
	client *redis.Client
}

// New conecta al Redis configurado y verifica la conexión.
func New(ctx context.Context, cfg config.RedisConfig) (*Invalidator, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Invalidator{client: client}, nil
}

// Esquema de claves:
//
//	stock:{tenant}:{product}:{kind}:{id}   detalle de nivel
//	stock:list:{tenant}:*                  listados por empresa
const (
	keyStockDetail = "stock:%s:%s:%s:%s"
	patternList    = "stock:list:%s:*"
)

// InvalidateStock borra el detalle puntual y los listados de la empresa.
func (i *Invalidator) InvalidateStock(ctx context.Context, tenantID, productID string, location entity.Location) error {
	detail := fmt.Sprintf(keyStockDetail, tenantID, productID, string(location.Kind()), location.ID())
	if err := i.client.Del(ctx, detail).Err(); err != nil {
		return fmt.Errorf("del %s: %w", detail, err)
	}

	// Los listados se indexan por empresa; se barren con SCAN para no
	// bloquear Redis con KEYS.
	iter := i.client.Scan(ctx, 0, fmt.Sprintf(patternList, tenantID), 100).Iterator()
	for iter.Next(ctx) {
		if err := i.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("del %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// Close cierra la conexión.
func (i *Invalidator) Close() error {
	return i.client.Close()
}
