// Package store persists batch results in redis so that a batch can be
// inspected after the process that submitted it has exited.
//
// Each batch is one JSON document under <prefix>:batch:<id>, written with the
// configured TTL. A sorted set <prefix>:batches indexes ids by submission
// time for Recent.
package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/gobatch/dag"
	"github.com/kbukum/gobatch/errors"
)

// ResultStore saves and loads dag.BatchResult values.
type ResultStore struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewResultStore creates a store on client. A ttl of 0 keeps results forever.
func NewResultStore(client *Client, prefix string, ttl time.Duration) *ResultStore {
	return &ResultStore{rdb: client.Unwrap(), prefix: prefix, ttl: ttl, now: time.Now}
}

type storedBatch struct {
	ID         string                         `json:"id"`
	Status     int                            `json:"status"`
	DurationMs int64                          `json:"duration_ms"`
	StoredAt   time.Time                      `json:"stored_at"`
	Results    map[dag.NodeID]*dag.NodeResult `json:"results"`
}

func (s *ResultStore) batchKey(id string) string { return s.prefix + ":batch:" + id }

func (s *ResultStore) indexKey() string { return s.prefix + ":batches" }

// Save writes b under its batch id and adds it to the index.
func (s *ResultStore) Save(ctx context.Context, b *dag.BatchResult) error {
	if b == nil || b.ID == "" {
		return errors.InvalidInput("batch", "a batch result with an id is required")
	}
	now := s.now()
	data, err := json.Marshal(storedBatch{
		ID:         b.ID,
		Status:     b.Status,
		DurationMs: b.Duration.Milliseconds(),
		StoredAt:   now.UTC(),
		Results:    b.Results,
	})
	if err != nil {
		return errors.Storage("encode", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, s.batchKey(b.ID), data, s.ttl)
		p.ZAdd(ctx, s.indexKey(), goredis.Z{Score: float64(now.UnixNano()), Member: b.ID})
		return nil
	})
	if err != nil {
		return errors.Storage("save", err)
	}
	return nil
}

// Load returns the batch stored under id, or (nil, nil) when it does not exist
// or has expired.
func (s *ResultStore) Load(ctx context.Context, id string) (*dag.BatchResult, error) {
	raw, err := s.rdb.Get(ctx, s.batchKey(id)).Bytes()
	if stderrors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Storage("load", err)
	}

	var sb storedBatch
	if err := json.Unmarshal(raw, &sb); err != nil {
		return nil, errors.Storage("decode", err)
	}
	return &dag.BatchResult{
		ID:       sb.ID,
		Status:   sb.Status,
		Results:  sb.Results,
		Duration: time.Duration(sb.DurationMs) * time.Millisecond,
	}, nil
}

// Delete removes a batch and its index entry.
func (s *ResultStore) Delete(ctx context.Context, id string) error {
	_, err := s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, s.batchKey(id))
		p.ZRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return errors.Storage("delete", err)
	}
	return nil
}

// Recent returns up to n batch ids, newest first. Ids whose documents have
// expired are pruned from the index.
func (s *ResultStore) Recent(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	ids, err := s.rdb.ZRevRange(ctx, s.indexKey(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, errors.Storage("list", err)
	}

	live := make([]string, 0, len(ids))
	var expired []any
	for _, id := range ids {
		exists, err := s.rdb.Exists(ctx, s.batchKey(id)).Result()
		if err != nil {
			return nil, errors.Storage("list", err)
		}
		if exists == 0 {
			expired = append(expired, id)
			continue
		}
		live = append(live, id)
	}
	if len(expired) > 0 {
		if err := s.rdb.ZRem(ctx, s.indexKey(), expired...).Err(); err != nil {
			return nil, errors.Storage("prune", err)
		}
	}
	return live, nil
}
