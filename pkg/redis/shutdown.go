package redis

import (
	"context"
	"io"
)

// Shutdown returns a function that gracefully closes the Redis client.
// Use with relay.ShutdownHook().
//
// Example:
//
//	err := app.Run(":8080",
//	    relay.ShutdownHook(redis.Shutdown(client)),
//	)
func Shutdown(client io.Closer) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return client.Close()
	}
}
