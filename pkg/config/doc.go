// Package config loads layered application configuration: defaults,
// then a YAML file, then environment variables. A .env file is applied
// first for local development without overriding the real environment.
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	app := relay.New(
//	    relay.WithCustomLogger(cfg.Logger()),
//	    relay.WithRouteCacheSize(cfg.Router.CacheSize),
//	)
//	err = app.Run(cfg.Server.Address,
//	    relay.ShutdownTimeout(cfg.Server.ShutdownTimeout.Duration),
//	)
package config
