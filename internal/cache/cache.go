// Package cache holds the winner feed snapshot cache and the Redis lock used by
// batch jobs.
package cache

import "context"

// FeedCache stores encoded feed snapshots keyed by request shape.
type FeedCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context) error
}
