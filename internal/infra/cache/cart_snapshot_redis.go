package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

const cartKeyPrefix = "cart:snapshot:"

// カートのスナップショットをRedisにJSONで置く。
type CartSnapshotRedis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartSnapshotRedis(client *redis.Client, ttl time.Duration) *CartSnapshotRedis {
	return &CartSnapshotRedis{client: client, ttl: ttl}
}

func (r *CartSnapshotRedis) Save(ctx context.Context, cart model.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := r.client.Set(ctx, cartKeyPrefix+cart.SessionID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *CartSnapshotRedis) Load(ctx context.Context, sessionID string) (model.Cart, bool, error) {
	data, err := r.client.Get(ctx, cartKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Cart{}, false, nil
	}
	if err != nil {
		return model.Cart{}, false, fmt.Errorf("redis get: %w", err)
	}

	var cart model.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return model.Cart{}, false, fmt.Errorf("unmarshal cart: %w", err)
	}
	cart.SessionID = sessionID
	if cart.Lines == nil {
		cart.Lines = []model.CartLine{}
	}
	return cart, true, nil
}

func (r *CartSnapshotRedis) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, cartKeyPrefix+sessionID).Err()
}

// NewClient はRedisに接続して疎通確認する。
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
