// Package redis provides Redis connection helpers: URL-based connect
// with retries and pooling defaults, a health check closure, and a
// shutdown hook.
//
//	client, err := redis.Open(ctx, os.Getenv("REDIS_URL"))
//	if err != nil {
//	    return err
//	}
//
//	app := relay.New(
//	    relay.WithHealthChecks(
//	        relay.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	    ),
//	)
package redis
