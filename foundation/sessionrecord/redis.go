package sessionrecord

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "voxel:session:"

// Hash field names. One writer per field by convention.
const (
	fieldStatus     = "status"
	fieldCustomerID = "current_customer_id"
	fieldConfidence = "confidence_level"
	fieldInsight    = "current_insight"
)

type redisStore struct {
	client *redis.Client
}

// NewRedis connects to redis and returns a Store backed by one hash per
// session, one hash field per record column.
func NewRedis(addr string, password string) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &redisStore{client: client}, nil
}

func (s *redisStore) Get(ctx context.Context, id string) (Record, error) {
	fields, err := s.client.HGetAll(ctx, keyPrefix+id).Result()
	if err != nil {
		return Record{}, fmt.Errorf("session record get: %w", err)
	}

	return Record{
		ID:                id,
		Status:            fields[fieldStatus],
		CurrentCustomerID: fields[fieldCustomerID],
		ConfidenceLevel:   fields[fieldConfidence],
		CurrentInsight:    fields[fieldInsight],
	}, nil
}

func (s *redisStore) SetInsight(ctx context.Context, id string, insightJSON string) error {
	if err := s.client.HSet(ctx, keyPrefix+id, fieldInsight, insightJSON).Err(); err != nil {
		return fmt.Errorf("session record set insight: %w", err)
	}
	return nil
}

func (s *redisStore) SetIdentity(ctx context.Context, id string, status string, customerID string, confidence string) error {
	err := s.client.HSet(ctx, keyPrefix+id,
		fieldStatus, status,
		fieldCustomerID, customerID,
		fieldConfidence, confidence,
	).Err()
	if err != nil {
		return fmt.Errorf("session record set identity: %w", err)
	}
	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
