// Package cache is the read-through accelerator in front of the stores.
// A missing entry never means "does not exist", only "recompute".
package cache

import (
	"context"
	"encoding/json"
	"time"
)

type Entry struct {
	Key       string        `json:"key"`
	Data      []byte        `json:"data"`
	TTL       time.Duration `json:"ttl"`
	CreatedAt time.Time     `json:"dateCreated"`
	UpdatedAt time.Time     `json:"dateUpdated"`
}

type Cache interface {
	// Get reports false when the key is absent or expired.
	Get(ctx context.Context, key string) (Entry, bool, error)
	Save(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
}

// Update replaces an entry as a whole: delete, then save.
func Update(ctx context.Context, c Cache, key string, data []byte, ttl time.Duration) error {
	if err := c.Delete(ctx, key); err != nil {
		return err
	}
	return c.Save(ctx, key, data, ttl)
}

func GetJSON[T any](ctx context.Context, c Cache, key string) (T, bool, error) {
	var value T
	entry, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return value, false, err
	}
	if err = json.Unmarshal(entry.Data, &value); err != nil {
		return value, false, err
	}
	return value, true, nil
}

func SaveJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Save(ctx, key, data, ttl)
}
