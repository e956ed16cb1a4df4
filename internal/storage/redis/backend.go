// Package redis keeps client state in Redis hashes and announces writes over
// pub/sub so every client attached to the namespace sees them.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/dtroode/ayurveda-storefront/internal/logger"
	"github.com/dtroode/ayurveda-storefront/internal/model"
)

var (
	_ model.Backend       = (*Backend)(nil)
	_ model.ChangeWatcher = (*Backend)(nil)
)

// saveScript applies the version precondition and writes the entry in one step.
// Returns the new version, or -1 on conflict.
// KEYS[1] = entry hash, KEYS[2] = key set.
// ARGV[1] = value, ARGV[2] = origin, ARGV[3] = expected version,
// ARGV[4] = key, ARGV[5] = change channel, ARGV[6] = change payload.
var saveScript = redis.NewScript(`
local ver = tonumber(redis.call('HGET', KEYS[1], 'ver') or '0')
local live = redis.call('HGET', KEYS[1], 'del') == '0'
local expected = tonumber(ARGV[3])
if expected == 0 and live then
    return -1
end
if expected > 0 and ((not live) or ver ~= expected) then
    return -1
end
ver = ver + 1
redis.call('HSET', KEYS[1], 'val', ARGV[1], 'ver', ver, 'origin', ARGV[2], 'del', '0')
redis.call('SADD', KEYS[2], ARGV[4])
redis.call('PUBLISH', ARGV[5], ARGV[6])
return ver
`)

// deleteScript tombstones a live entry. The version survives so a stale
// writer cannot match a re-created key.
// KEYS and ARGV follow saveScript, without value and expected version.
var deleteScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'del') ~= '0' then
    return 0
end
redis.call('HINCRBY', KEYS[1], 'ver', 1)
redis.call('HSET', KEYS[1], 'origin', ARGV[1], 'del', '1')
redis.call('HDEL', KEYS[1], 'val')
redis.call('SREM', KEYS[2], ARGV[2])
redis.call('PUBLISH', ARGV[3], ARGV[4])
return 1
`)

// Backend stores one namespace under the "storefront:{namespace}:" prefix.
type Backend struct {
	rdb       *redis.Client
	namespace string
	logger    *logger.Logger
}

// Open connects to redisURL and verifies the server answers.
func Open(ctx context.Context, redisURL, namespace string, logger *logger.Logger) (*Backend, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return New(rdb, namespace, logger), nil
}

func New(rdb *redis.Client, namespace string, logger *logger.Logger) *Backend {
	return &Backend{rdb: rdb, namespace: namespace, logger: logger}
}

func (b *Backend) entryKey(key string) string {
	return fmt.Sprintf("storefront:%s:kv:%s", b.namespace, key)
}

func (b *Backend) keySet() string {
	return fmt.Sprintf("storefront:%s:keys", b.namespace)
}

func (b *Backend) channel() string {
	return fmt.Sprintf("storefront:%s:changes", b.namespace)
}

type changeMessage struct {
	Key    string `json:"key"`
	Origin string `json:"origin"`
}

func changePayload(key, origin string) (string, error) {
	data, err := json.Marshal(changeMessage{Key: key, Origin: origin})
	if err != nil {
		return "", fmt.Errorf("failed to encode change: %w", err)
	}
	return string(data), nil
}

func (b *Backend) Load(ctx context.Context, key string) (model.Record, error) {
	fields, err := b.rdb.HGetAll(ctx, b.entryKey(key)).Result()
	if err != nil {
		return model.Record{}, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return recordFromHash(key, fields)
}

func recordFromHash(key string, fields map[string]string) (model.Record, error) {
	if len(fields) == 0 || fields["del"] != "0" {
		return model.Record{}, model.ErrNotFound
	}
	ver, err := strconv.ParseInt(fields["ver"], 10, 64)
	if err != nil {
		return model.Record{}, fmt.Errorf("bad version for %s: %w", key, err)
	}
	return model.Record{Value: fields["val"], Version: ver, Origin: fields["origin"]}, nil
}

func (b *Backend) Save(ctx context.Context, key, value, origin string, expected int64) (model.Record, error) {
	payload, err := changePayload(key, origin)
	if err != nil {
		return model.Record{}, err
	}
	ver, err := saveScript.Run(ctx, b.rdb,
		[]string{b.entryKey(key), b.keySet()},
		value, origin, expected, key, b.channel(), payload,
	).Int64()
	if err != nil {
		return model.Record{}, fmt.Errorf("failed to save %s: %w", key, err)
	}
	if ver < 0 {
		return model.Record{}, model.ErrVersionConflict
	}
	return model.Record{Value: value, Version: ver, Origin: origin}, nil
}

func (b *Backend) Delete(ctx context.Context, key, origin string) error {
	payload, err := changePayload(key, origin)
	if err != nil {
		return err
	}
	err = deleteScript.Run(ctx, b.rdb,
		[]string{b.entryKey(key), b.keySet()},
		origin, key, b.channel(), payload,
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (b *Backend) Keys(ctx context.Context) ([]string, error) {
	keys, err := b.rdb.SMembers(ctx, b.keySet()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Watch subscribes to the namespace channel. The subscription is confirmed
// before Watch returns.
func (b *Backend) Watch(ctx context.Context) (<-chan model.Change, error) {
	sub := b.rdb.Subscribe(ctx, b.channel())
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe to changes: %w", err)
	}

	ch := make(chan model.Change)
	go func() {
		defer close(ch)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var c changeMessage
				if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
					b.logger.Warn("Redis store: bad change payload", "payload", msg.Payload, "error", err)
					continue
				}
				select {
				case ch <- model.Change{Key: c.Key, Origin: c.Origin}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func (b *Backend) Close() error {
	return b.rdb.Close()
}
