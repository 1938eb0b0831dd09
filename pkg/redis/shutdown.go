package redis

import (
	"context"
	"io"
)

// Shutdown returns a function that gracefully closes the Redis client.
// Register it as a shutdown hook in a process's graceful-shutdown sequence.
//
// Example:
//
//	shutdownHooks = append(shutdownHooks, redis.Shutdown(client))
func Shutdown(client io.Closer) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return client.Close()
	}
}
