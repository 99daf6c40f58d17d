package redis

import "errors"

var (
	// ErrEmptyConnectionURL is returned by Open when no URL is
	// configured. Callers treating Redis as optional (the config wiring
	// does) match on it to skip Redis-backed components.
	ErrEmptyConnectionURL = errors.New("redis: empty connection URL")

	// ErrFailedToParseURL is returned for URLs that are not redis:// or
	// rediss://, or that go-redis cannot parse.
	ErrFailedToParseURL = errors.New("redis: failed to parse connection URL")

	// ErrConnectionFailed is returned when every dial attempt failed.
	// The final ping error is joined in.
	ErrConnectionFailed = errors.New("redis: failed to establish connection")

	// ErrHealthcheckFailed wraps ping failures from Healthcheck probes.
	ErrHealthcheckFailed = errors.New("redis: healthcheck failed")
)
