package datum

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/datum-dev/datum/pkg/host"
	"github.com/datum-dev/datum/pkg/live"
	"github.com/datum-dev/datum/pkg/obs"
)

// =============================================================================
// App Type
// =============================================================================

// App bundles a container runtime, a live server and optional instrumentation
// into a single entry point. The runtime loop starts when the App is created
// and stops on Shutdown.
//
// Create an App with datum.NewApp():
//
//	count := datum.NewInt(0)
//
//	app := datum.NewApp(datum.Config{
//	    Root: func(s *datum.Session) datum.Component {
//	        s.HandleAction("increment", func(datum.Event) { count.Inc() })
//	        return datum.Func(func() string {
//	            n, _ := count.Use()
//	            return fmt.Sprintf("count: %d", n)
//	        })
//	    },
//	})
//
//	log.Fatal(app.Run())
type App struct {
	config Config
	logger *slog.Logger

	runtime *host.Runtime
	server  *live.Server

	registry *prometheus.Registry
	metrics  *obs.Metrics
	tracer   *obs.Tracer
}

// NewApp creates a new application with the given configuration and starts
// its runtime loop.
func NewApp(cfg Config) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{
		config: cfg,
		logger: logger,
	}

	if cfg.Metrics.Enabled {
		app.registry = prometheus.NewRegistry()
		var opts []obs.MetricsOption
		if cfg.Metrics.Namespace != "" {
			opts = append(opts, obs.WithNamespace(cfg.Metrics.Namespace))
		}
		if cfg.Metrics.Subsystem != "" {
			opts = append(opts, obs.WithSubsystem(cfg.Metrics.Subsystem))
		}
		app.metrics = obs.NewMetrics(app.registry, opts...)
	}

	if cfg.Trace.Enabled {
		var opts []obs.TracerOption
		if cfg.Trace.TracerName != "" {
			opts = append(opts, obs.WithTracerName(cfg.Trace.TracerName))
		}
		app.tracer = obs.NewTracer(opts...)
	}

	app.runtime = host.NewRuntime(buildHostConfig(cfg))

	liveCfg := buildLiveConfig(cfg)
	if app.registry != nil {
		liveCfg.MetricsGatherer = app.registry
	}
	if app.tracer != nil {
		liveCfg.Tracer = app.tracer
	}
	app.server = live.NewServer(app.runtime, liveCfg)

	go app.runtime.Run()

	return app
}

// Runtime returns the container runtime hosting mounted components.
func (a *App) Runtime() *Runtime {
	return a.runtime
}

// Server returns the live server.
func (a *App) Server() *Server {
	return a.server
}

// Metrics returns the Prometheus probe, or nil when metrics are disabled.
func (a *App) Metrics() *Metrics {
	return a.metrics
}

// Tracer returns the span helper, or nil when tracing is disabled.
func (a *App) Tracer() *Tracer {
	return a.tracer
}

// Probe returns a container option attaching the app's metrics probe, so the
// container reports into /metrics. A no-op when metrics are disabled.
//
// Example:
//
//	count := datum.New(0, datum.Trace("cart.count"), app.Probe())
func (a *App) Probe() Option {
	if a.metrics == nil {
		return WithProbe(nil)
	}
	return WithProbe(a.metrics)
}

// =============================================================================
// http.Handler Implementation
// =============================================================================

// ServeHTTP implements http.Handler, so an App can be served by any HTTP
// server instead of Run:
//
//	http.ListenAndServe(":8080", app)
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.server.Handler().ServeHTTP(w, r)
}

// =============================================================================
// Lifecycle
// =============================================================================

// Run serves on the configured address until an interrupt or Shutdown, then
// stops the runtime loop.
func (a *App) Run() error {
	defer a.runtime.Stop()
	return a.server.Run()
}

// Shutdown gracefully closes sessions and the HTTP server, then stops the
// runtime loop.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	a.runtime.Stop()
	return err
}
