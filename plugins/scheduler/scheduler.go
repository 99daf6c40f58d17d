// Package scheduler is a plugin that runs cron jobs alongside the
// server. Jobs start when the application starts and stop gracefully
// during shutdown, after in-flight runs complete.
//
// The underlying cron runner is shared as the "scheduler:cron" service
// so other plugins can add jobs of their own.
//
//	app := relay.New(
//	    relay.WithPlugins(scheduler.New(
//	        scheduler.WithJob("cleanup", "0 3 * * *", store.Cleanup),
//	    )),
//	)
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/relayhttp/relay/internal"
)

// PluginName is the registration name of the scheduler plugin.
const PluginName = "scheduler"

// Job is a named cron entry. Spec uses the standard five-field cron
// syntax, plus the @every and @hourly style descriptors.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Config configures the scheduler plugin.
type Config struct {
	Jobs []Job
}

// Option configures Config.
type Option func(*Config)

// WithJob adds a cron job.
func WithJob(name, spec string, run func(ctx context.Context) error) Option {
	return func(cfg *Config) {
		cfg.Jobs = append(cfg.Jobs, Job{Name: name, Spec: spec, Run: run})
	}
}

// New creates the scheduler plugin.
func New(opts ...Option) *internal.Plugin {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}

	var runner *cron.Cron

	return &internal.Plugin{
		Metadata: internal.PluginMetadata{
			Name:        PluginName,
			Version:     "1.0.0",
			Description: "cron jobs tied to the server lifecycle",
			Tags:        []string{"background"},
		},
		Register: func(_ context.Context, pc *internal.PluginContext) error {
			runner = cron.New()

			for _, job := range cfg.Jobs {
				if _, err := runner.AddFunc(job.Spec, wrapJob(pc.Log(), job)); err != nil {
					return err
				}
			}

			pc.RegisterService("cron", runner)
			return nil
		},
		Hooks: internal.PluginHooks{
			BeforeStart: func(_ context.Context, pc *internal.PluginContext) error {
				runner.Start()
				pc.Log().Info("scheduler started", slog.Int("jobs", len(cfg.Jobs)))
				return nil
			},
			BeforeStop: func(ctx context.Context, pc *internal.PluginContext) error {
				// Stop returns once no new runs will fire; its context is
				// done when in-flight runs complete.
				stopped := runner.Stop()
				select {
				case <-stopped.Done():
					pc.Log().Info("scheduler stopped")
					return nil
				case <-ctx.Done():
					pc.Log().Warn("scheduler stop timed out with jobs in flight")
					return ctx.Err()
				}
			},
		},
	}
}

// wrapJob adapts a Job to cron's signature, logging failures instead of
// letting them vanish.
func wrapJob(log *slog.Logger, job Job) func() {
	return func() {
		if err := job.Run(context.Background()); err != nil {
			log.Error("scheduled job failed",
				slog.String("job", job.Name),
				slog.Any("error", err),
			)
		}
	}
}

// Runner resolves the shared cron runner from an application.
// Returns nil when the scheduler plugin is not registered.
func Runner(app *internal.App) *cron.Cron {
	if v, ok := app.Service(PluginName + ":cron"); ok {
		if c, ok := v.(*cron.Cron); ok {
			return c
		}
	}
	return nil
}
