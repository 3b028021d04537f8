// Package events publica los cambios de stock y pedidos hacia Redis para que
// otras sucursales y paneles en vivo se enteren sin consultar la BD.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/tu-usuario/sucursal-pos/internal/application/ports"
	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
)

var _ ports.Publisher = (*RedisPublisher)(nil)

const (
	stockChannel = "sucursal:stock"
	orderChannel = "sucursal:orders"

	// TTL del snapshot por clave; los consumidores que llegan tarde leen el
	// último estado sin reprocesar el canal.
	snapshotTTL = 24 * time.Hour
)

// RedisPublisher publica cada cambio en un canal pub/sub y además guarda el
// último snapshot bajo una clave con TTL.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher crea el publicador conectando al Redis indicado.
func NewRedisPublisher(addr, password string, db int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisPublisher{client: client}
}

// Ping verifica la conexión.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close cierra la conexión.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// StockChanged publica el registro actualizado y refresca su snapshot.
func (p *RedisPublisher) StockChanged(ctx context.Context, record *entity.BranchStockRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("publicar stock: codificar registro: %w", err)
	}
	if err := p.client.Publish(ctx, stockChannel, payload).Err(); err != nil {
		return fmt.Errorf("publicar stock: %w", err)
	}
	key := "sucursal:stock:" + record.Key()
	if err := p.client.Set(ctx, key, payload, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("publicar stock: snapshot: %w", err)
	}
	return nil
}

// OrderChanged publica el pedido actualizado y refresca su snapshot.
func (p *RedisPublisher) OrderChanged(ctx context.Context, order *entity.Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("publicar pedido: codificar pedido: %w", err)
	}
	if err := p.client.Publish(ctx, orderChannel, payload).Err(); err != nil {
		return fmt.Errorf("publicar pedido: %w", err)
	}
	key := "sucursal:order:" + order.ID
	if err := p.client.Set(ctx, key, payload, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("publicar pedido: snapshot: %w", err)
	}
	return nil
}
