package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"mosaic/internal/api"
	"mosaic/pkg/platform/sentinel"
)

const keyPrefix = "recommendation:"

// Redis keeps each product's recommendations in one hash: the field is the
// recommendation id and the value the JSON encoded entity.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func productKey(productID int) string {
	return keyPrefix + strconv.Itoa(productID)
}

// Create uses HSETNX so concurrent duplicates resolve to a single winner.
func (s *Redis) Create(ctx context.Context, r api.Recommendation) error {
	r.ServiceAddress = ""
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode recommendation: %w", err)
	}
	created, err := s.client.HSetNX(ctx, productKey(r.ProductID), strconv.Itoa(r.RecommendationID), raw).Result()
	if err != nil {
		return fmt.Errorf("store recommendation: %w", err)
	}
	if !created {
		return fmt.Errorf("recommendation %d/%d: %w", r.ProductID, r.RecommendationID, sentinel.ErrConflict)
	}
	return nil
}

func (s *Redis) List(ctx context.Context, productID int) ([]api.Recommendation, error) {
	fields, err := s.client.HGetAll(ctx, productKey(productID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load recommendations: %w", err)
	}
	out := make([]api.Recommendation, 0, len(fields))
	for field, raw := range fields {
		var r api.Recommendation
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decode recommendation %s: %w", field, err)
		}
		out = append(out, r)
	}
	sortByID(out)
	return out, nil
}

func (s *Redis) DeleteByProduct(ctx context.Context, productID int) error {
	if err := s.client.Del(ctx, productKey(productID)).Err(); err != nil {
		return fmt.Errorf("delete recommendations: %w", err)
	}
	return nil
}

func (s *Redis) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
