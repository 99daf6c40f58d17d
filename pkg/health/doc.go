// Package health runs named readiness checks in parallel and aggregates
// their outcome for health endpoints.
//
//	checks := health.Checks{
//	    "redis": redis.Healthcheck(client),
//	}
//	result := health.Run(ctx, checks)
//	if !result.Healthy {
//	    // serve 503
//	}
package health
