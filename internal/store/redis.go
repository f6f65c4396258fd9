package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxUpdateRetries = 16

// RedisStore keeps one JSON document per file in Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to redisURL and checks the connection.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "auditor:"}
}

func (s *RedisStore) fileKey(fileName string) string {
	return s.prefix + "file:" + fileName
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "files"
}

func (s *RedisStore) seqKey() string {
	return s.prefix + "comment_seq"
}

func decodeRecord(fileName string, data []byte) (*FileRecord, error) {
	r := NewFileRecord(fileName)
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("unmarshal record %s: %w", fileName, err)
	}
	if r.Comments == nil {
		r.Comments = make(map[int][]Comment)
	}
	return r, nil
}

func (s *RedisStore) Get(ctx context.Context, fileName string) (*FileRecord, error) {
	data, err := s.client.Get(ctx, s.fileKey(fileName)).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewFileRecord(fileName), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", fileName, err)
	}
	return decodeRecord(fileName, data)
}

// Update retries when another writer changes the same file between the read
// and the write.
func (s *RedisStore) Update(ctx context.Context, fileName string, fn func(*FileRecord) error) error {
	key := s.fileKey(fileName)
	txf := func(tx *redis.Tx) error {
		r := NewFileRecord(fileName)
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("get record %s: %w", fileName, err)
		default:
			if r, err = decodeRecord(fileName, data); err != nil {
				return err
			}
		}

		if err := fn(r); err != nil {
			return err
		}
		out, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal record %s: %w", fileName, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			pipe.SAdd(ctx, s.indexKey(), fileName)
			return nil
		})
		return err
	}

	for range maxUpdateRetries {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update record %s: too many concurrent writers", fileName)
}

func (s *RedisStore) List(ctx context.Context) ([]*FileRecord, error) {
	names, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	sort.Strings(names)

	out := make([]*FileRecord, 0, len(names))
	for _, name := range names {
		r, err := s.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RedisStore) NextCommentID(ctx context.Context) (int64, error) {
	id, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("allocate comment id: %w", err)
	}
	return id, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
