package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const kvBucket = "kv"

// BoltKV is a KV backed by a BoltDB file
type BoltKV struct {
	db *bbolt.DB
}

// OpenBolt opens (or creates) a BoltDB-backed store at path
func OpenBolt(path string) (*BoltKV, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(kvBucket)); err != nil {
			return fmt.Errorf("failed to create kv bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltKV{db: db}, nil
}

// Close closes the underlying database
func (s *BoltKV) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Read returns the values stored under keys
func (s *BoltKV) Read(ctx context.Context, keys ...string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values := make(map[string]string, len(keys))
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(kvBucket))
		if bucket == nil {
			return fmt.Errorf("kv bucket is missing")
		}
		for _, key := range keys {
			// Values returned by Get are only valid inside the transaction.
			if raw := bucket.Get([]byte(key)); raw != nil {
				values[key] = string(raw)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read keys: %w", err)
	}
	return values, nil
}

// Write stores set and removes remove in a single transaction
func (s *BoltKV) Write(ctx context.Context, set map[string]string, remove ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(kvBucket))
		if bucket == nil {
			return fmt.Errorf("kv bucket is missing")
		}
		for key, value := range set {
			if err := bucket.Put([]byte(key), []byte(value)); err != nil {
				return err
			}
		}
		for _, key := range remove {
			if err := bucket.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write keys: %w", err)
	}
	return nil
}

// Delete removes keys in a single transaction
func (s *BoltKV) Delete(ctx context.Context, keys ...string) error {
	return s.Write(ctx, nil, keys...)
}
