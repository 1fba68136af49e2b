package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"

	"github.com/AyushLimaye7/login-registration-dashboard/pkg/config"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/redis"
)

// TokenStore persists one opaque token string under a fixed key.
// Load returns "" with a nil error when nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// NewTokenStore builds the backend selected by TOKEN_STORE
// ⭐ SSOT: 토큰 저장소 선택은 여기서만
func NewTokenStore(cfg *config.Config, redisClient *redis.Client) (TokenStore, error) {
	switch cfg.Session.TokenStore {
	case config.TokenStoreFile:
		return NewFileStore(cfg.Session.TokenFile, cfg.Session.TokenKey), nil
	case config.TokenStoreMemory:
		return NewMemoryStore(), nil
	case config.TokenStoreRedis:
		if redisClient == nil || !redisClient.Enabled() {
			return nil, fmt.Errorf("token store %q requires REDIS_ENABLED=true", cfg.Session.TokenStore)
		}
		return NewRedisStore(redis.NewKV(redisClient, "mmm-dashboard:session"), cfg.Session.TokenKey), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", cfg.Session.TokenStore)
	}
}

// FileStore keeps the token in a 0600 JSON file
type FileStore struct {
	path string
	key  string
}

// NewFileStore creates a file-backed store
func NewFileStore(path, key string) *FileStore {
	return &FileStore{path: path, key: key}
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the token, treating a missing file as empty
func (s *FileStore) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}

	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		return "", fmt.Errorf("failed to parse token file %s: %w", s.path, err)
	}
	return values[s.key], nil
}

// Save writes the token atomically
func (s *FileStore) Save(_ context.Context, token string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}

	data, err := json.Marshal(map[string]string{s.key: token})
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod token file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close token file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

// Clear removes the token file
func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// MemoryStore keeps the token for the life of the process
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// RedisStore keeps the token in Redis so several client processes share one login
type RedisStore struct {
	kv  *redis.KV
	key string
}

// NewRedisStore creates a Redis-backed store
func NewRedisStore(kv *redis.KV, key string) *RedisStore {
	return &RedisStore{kv: kv, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (string, error) {
	token, _, err := s.kv.Get(ctx, s.key)
	return token, err
}

func (s *RedisStore) Save(ctx context.Context, token string) error {
	return s.kv.Set(ctx, s.key, token, 0)
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, s.key)
}
