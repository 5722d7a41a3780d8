// Package storage provides the flat string key-value store that backs the session.
package storage

import "context"

// KV is a durable string-keyed store. Batch operations are atomic.
type KV interface {
	// Read returns the stored values for keys. Missing keys are absent from the result.
	Read(ctx context.Context, keys ...string) (map[string]string, error)
	// Write stores every entry and deletes every key in remove, in one transaction.
	Write(ctx context.Context, set map[string]string, remove ...string) error
	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}
