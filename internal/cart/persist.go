package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/laflotawines-debug/presupuestadorpro/internal/models"

	"github.com/go-redis/redis/v8"
)

// Store persists one cart draft per session id as a single serialized slot,
// read and written wholesale.
type Store interface {
	Load(ctx context.Context, sessionID string) ([]models.CartLine, error)
	Save(ctx context.Context, sessionID string, lines []models.CartLine) error
}

// Quote drafts are not critical data; stale slots expire on their own.
const slotTTL = 30 * 24 * time.Hour

// RedisStore keeps cart slots in Redis under cart:<session>.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to Redis and returns a cart store over it.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{rdb: rdb}, nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) ([]models.CartLine, error) {
	data, err := s.rdb.Get(ctx, slotKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading cart slot: %w", err)
	}

	var lines []models.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("decoding cart slot: %w", err)
	}
	return lines, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, lines []models.CartLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encoding cart slot: %w", err)
	}
	return s.rdb.Set(ctx, slotKey(sessionID), data, slotTTL).Err()
}

func slotKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

// FileStore is the no-Redis fallback: one JSON file per session under the
// data dir.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a file-backed cart store under dataDir.
func NewFileStore(dataDir string) (*FileStore, error) {
	dir := filepath.Join(dataDir, "carts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cart dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Load(ctx context.Context, sessionID string) ([]models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(sessionID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading cart slot: %w", err)
	}

	var lines []models.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("decoding cart slot: %w", err)
	}
	return lines, nil
}

func (s *FileStore) Save(ctx context.Context, sessionID string, lines []models.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encoding cart slot: %w", err)
	}
	return os.WriteFile(s.path(sessionID), data, 0o644)
}

func (s *FileStore) path(sessionID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.json", sessionID))
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*FileStore)(nil)
)
