package redis

import (
	"context"
	"encoding/json"
	"time"

	"genv-studio/internal/domain"
	"genv-studio/internal/domain/model"
	"genv-studio/internal/domain/ports/repository"
)

var _ repository.StatusStore = (*StatusCache)(nil)

// StatusCache keeps the last observed status per operation so a
// reconnecting client can render the current state without waiting for the
// next poll tick. Entries expire with the configured TTL; the in-process
// feed stays authoritative.
type StatusCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewStatusCache(client RedisClient, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &StatusCache{client: client, ttl: ttl}
}

func statusKey(handle string) string { return "veo_status:" + handle }

func (c *StatusCache) StoreStatus(ctx context.Context, st *model.OperationStatus) error {
	if st == nil || st.Name == "" {
		return domain.ErrInvalidArgument
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statusKey(st.Name), data, c.ttl)
}

func (c *StatusCache) LoadStatus(ctx context.Context, handle string) (*model.OperationStatus, error) {
	data, err := c.client.Get(ctx, statusKey(handle))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var st model.OperationStatus
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *StatusCache) ClearStatus(ctx context.Context, handle string) error {
	return c.client.Del(ctx, statusKey(handle))
}
