package executor

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"pairbench/internal/loadtest"
)

// RedisProvider builds one single-connection client per worker. The
// target names a key namespace: documents are expected under
// "<target>:<id>".
type RedisProvider struct {
	opts   *redis.Options
	prefix string
}

func NewRedisProvider(dsn, target string) (*RedisProvider, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse redis dsn: %w", err)
	}
	// One connection per handle; workers must not share.
	opts.PoolSize = 1
	return &RedisProvider{opts: opts, prefix: target}, nil
}

func (p *RedisProvider) Acquire(ctx context.Context) (loadtest.QueryExecutor, error) {
	client := redis.NewClient(p.opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisExecutor{client: client, match: p.prefix + ":*"}, nil
}

func (p *RedisProvider) Close() error { return nil }

type redisExecutor struct {
	client *redis.Client
	match  string
}

func (e *redisExecutor) Execute(ctx context.Context, q loadtest.Query) (int64, error) {
	switch q.Type {
	case loadtest.QueryCount:
		return e.countKeys(ctx)
	case loadtest.QuerySelectAll, loadtest.QuerySelectPaginated:
		return e.fetchPage(ctx)
	case loadtest.QueryCustom:
		return 0, fmt.Errorf("custom statements are not supported by the redis executor")
	}
	return 0, fmt.Errorf("unsupported query type %q", q.Type)
}

// countKeys walks the full keyspace slice for the target namespace.
func (e *redisExecutor) countKeys(ctx context.Context) (int64, error) {
	var total int64
	var cursor uint64
	for {
		keys, next, err := e.client.Scan(ctx, cursor, e.match, 1000).Result()
		if err != nil {
			return 0, err
		}
		total += int64(len(keys))
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

// fetchPage reads the first page of documents, mirroring the SQL
// executors' LIMIT/OFFSET page at offset zero.
func (e *redisExecutor) fetchPage(ctx context.Context) (int64, error) {
	keys, _, err := e.client.Scan(ctx, 0, e.match, pageSize).Result()
	if err != nil {
		return 0, err
	}
	keys = capPage(keys)
	if len(keys) == 0 {
		return 0, nil
	}
	if err := e.client.MGet(ctx, keys...).Err(); err != nil {
		return 0, err
	}
	return int64(len(keys)), nil
}

// capPage bounds a scanned key set at one page. SCAN's count argument
// is a hint, not a limit, so a single pass can return more keys.
func capPage(keys []string) []string {
	if len(keys) > pageSize {
		return keys[:pageSize]
	}
	return keys
}

func (e *redisExecutor) Close() error {
	return e.client.Close()
}
