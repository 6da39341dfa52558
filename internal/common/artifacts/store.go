// Package artifacts keeps rendered chart images until the client fetches them.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"finsight/internal/common/config"
	"finsight/internal/common/database"
)

const (
	namePrefix = "chart-"
	nameSuffix = ".png"
	redisKey   = "finsight:chart:"
)

var ErrNotFound = errors.New("artifact not found")

// Store saves and serves chart images by name.
type Store interface {
	Save(ctx context.Context, name string, data []byte) error
	Open(ctx context.Context, name string) ([]byte, error)
}

// NewName returns a unique chart file name.
func NewName() string {
	return namePrefix + uuid.NewString() + nameSuffix
}

// ValidName reports whether name is one NewName could have produced.
func ValidName(name string) bool {
	if !strings.HasPrefix(name, namePrefix) || !strings.HasSuffix(name, nameSuffix) {
		return false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(name, namePrefix), nameSuffix)
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// New builds the store selected by cfg.Store.
func New(cfg config.ChartsConfig, redisCfg config.RedisConfig) (Store, error) {
	switch cfg.Store {
	case "", config.ChartStoreFilesystem:
		return NewFileStore(cfg.Dir, cfg.ChartTTL())
	case config.ChartStoreRedis:
		return NewRedisStore(database.NewRedis(redisCfg), cfg.ChartTTL()), nil
	default:
		return nil, fmt.Errorf("unknown chart store %q", cfg.Store)
	}
}

// FileStore writes charts into a directory. Charts older than ttl are
// removed on the next Save and are no longer served; ttl <= 0 keeps them.
type FileStore struct {
	dir string
	ttl time.Duration
}

func NewFileStore(dir string, ttl time.Duration) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}
	return &FileStore{dir: dir, ttl: ttl}, nil
}

func (s *FileStore) Save(_ context.Context, name string, data []byte) error {
	if !ValidName(name) {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	if err := s.prune(time.Now()); err != nil {
		return err
	}
	tmp := filepath.Join(s.dir, "."+name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(s.dir, name))
}

// prune deletes charts last written before now-ttl. Other files are left alone.
func (s *FileStore) prune(now time.Time) error {
	if s.ttl <= 0 {
		return nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("list chart dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !ValidName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || !s.expired(info, now) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove expired chart: %w", err)
		}
	}
	return nil
}

func (s *FileStore) expired(info os.FileInfo, now time.Time) bool {
	return s.ttl > 0 && now.Sub(info.ModTime()) > s.ttl
}

func (s *FileStore) Open(_ context.Context, name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, ErrNotFound
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if s.expired(info, time.Now()) {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// RedisStore keeps charts in redis; entries expire after ttl.
type RedisStore struct {
	client *database.RedisClient
	ttl    time.Duration
}

func NewRedisStore(client *database.RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, name string, data []byte) error {
	if !ValidName(name) {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	if err := s.client.SetBytes(ctx, redisKey+name, data, s.ttl); err != nil {
		return fmt.Errorf("store chart in redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Open(ctx context.Context, name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, ErrNotFound
	}
	data, err := s.client.GetBytes(ctx, redisKey+name)
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load chart from redis: %w", err)
	}
	return data, nil
}

// Ping checks the redis connection; used by the readiness probe.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
