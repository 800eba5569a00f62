package keystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is an exported constant or variable used by the key lifecycle engine.
var ErrRedisUnavailable = errors.New("keystore: redis unavailable")

const deleteKeyScript = `
local existed = 0
if redis.call("EXISTS", KEYS[1]) == 1 then existed = 1 end
if redis.call("EXISTS", KEYS[2]) == 1 then existed = 1 end
redis.call("DEL", KEYS[1], KEYS[2])
redis.call("SREM", KEYS[3], ARGV[1])
return existed
`

var deleteKeyLua = redis.NewScript(deleteKeyScript)

// RedisStore is a Store over Redis. Records are stored as JSON strings,
// material blobs as raw strings, and the identifier set as a SET so that
// listing never scans the keyspace.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore describes the newredisstore operation and its observable behavior.
//
// NewRedisStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "kg"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) recordKey(id string) string {
	return s.prefix + ":rec:" + id
}

func (s *RedisStore) materialKey(id string) string {
	return s.prefix + ":mat:" + id
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":idx"
}

// PutRecord creates or replaces the metadata record for rec.ID.
func (s *RedisStore) PutRecord(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.recordKey(rec.ID), data, 0)
	pipe.SAdd(ctx, s.indexKey(), rec.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// GetRecord fetches the metadata record, or ErrNotFound.
func (s *RedisStore) GetRecord(ctx context.Context, id string) (Record, error) {
	data, err := s.rdb.Get(ctx, s.recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return rec, nil
}

// ListRecords returns all metadata records in unspecified order. Records
// whose index entry outlived the record itself (a torn delete mid-crash)
// are skipped.
func (s *RedisStore) ListRecords(ctx context.Context) ([]Record, error) {
	ids, err := s.rdb.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recordKey(id)
	}

	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	out := make([]Record, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// PutMaterial stores the opaque material blob for id.
func (s *RedisStore) PutMaterial(ctx context.Context, id string, blob []byte) error {
	if err := s.rdb.Set(ctx, s.materialKey(id), blob, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// GetMaterial fetches the material blob, or ErrNotFound.
func (s *RedisStore) GetMaterial(ctx context.Context, id string) ([]byte, error) {
	blob, err := s.rdb.Get(ctx, s.materialKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return blob, nil
}

// Delete removes the record, the material blob, and the index entry for id
// atomically. It returns ErrNotFound when nothing was stored under id.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	existed, err := deleteKeyLua.Run(ctx, s.rdb,
		[]string{s.recordKey(id), s.materialKey(id), s.indexKey()},
		id,
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if existed == 0 {
		return ErrNotFound
	}
	return nil
}
