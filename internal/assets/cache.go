package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-redis/redis/v9"

	"github.com/vovakirdan/gamegen/internal/config"
)

// Store caches generated image bytes by key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
}

// Missing is returned by a Store for an absent key.
var Missing = fmt.Errorf("asset missing")

// Key hashes the parts that determine a generated image.
func Key(model, assetType, prompt string, seed int64) string {
	h := xxhash.Sum64String(strings.Join([]string{model, assetType, prompt, fmt.Sprint(seed)}, "|"))
	return fmt.Sprintf("%016x", h)
}

// FSStore keeps one file per key under a directory.
type FSStore string

func (f FSStore) getPath(key string) string {
	return filepath.Join(string(f), key)
}

func (f FSStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.getPath(key))
	if os.IsNotExist(err) {
		return nil, Missing
	}
	return data, err
}

func (f FSStore) Set(ctx context.Context, key string, data []byte) error {
	target := f.getPath(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, data, 0o644)
}

const (
	assetKey    = "gamegen-asset-%s"
	assetExpiry = time.Hour
)

// RedisStore keeps images in Redis with an expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps client. A zero ttl means one hour.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = assetExpiry
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisStore) Get(ctx context.Context, id string) ([]byte, error) {
	key := fmt.Sprintf(assetKey, id)
	data, err := r.client.Get(ctx, key).Bytes()

	if err == redis.Nil {
		return nil, Missing
	}

	if err != nil {
		return nil, err
	}

	return data, nil
}

func (r *RedisStore) Set(ctx context.Context, id string, data []byte) error {
	key := fmt.Sprintf(assetKey, id)
	return r.client.Set(ctx, key, data, r.ttl).Err()
}

// Close releases the Redis connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// NewStore builds the store the cache config asks for: Redis when an
// address is set, a directory when one is set, otherwise nil.
func NewStore(cfg config.CacheConfig) (Store, error) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return NewRedisStore(client, cfg.TTL), nil
	}
	if cfg.Dir != "" {
		dir, err := config.ExpandHome(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return FSStore(dir), nil
	}
	return nil, nil
}

var _ Store = FSStore("")
var _ Store = (*RedisStore)(nil)
