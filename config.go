package datum

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/datum-dev/datum/pkg/host"
	"github.com/datum-dev/datum/pkg/live"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the main application configuration.
// This is the user-friendly entry point for configuring a datum app.
type Config struct {
	// Host configures the container runtime loop.
	Host HostConfig

	// Live configures the websocket push server.
	Live LiveConfig

	// Metrics configures Prometheus instrumentation.
	Metrics MetricsConfig

	// Trace configures OpenTelemetry spans around dispatched actions.
	Trace TraceConfig

	// Root builds the root component for each new session. The factory runs
	// before the session's pumps start, so it can register the session's
	// actions. If nil, sessions connect with nothing mounted.
	//
	// Example:
	//
	//	Root: func(s *datum.Session) datum.Component {
	//	    s.HandleAction("increment", func(datum.Event) { count.Inc() })
	//	    return datum.Func(func() string {
	//	        n, _ := count.Use()
	//	        return fmt.Sprintf("count: %d", n)
	//	    })
	//	}
	Root func(s *Session) Component

	// Logger is the structured logger for the application.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// HostConfig configures the container runtime loop.
type HostConfig struct {
	// DispatchQueue is the size of the dispatch channel buffer.
	// Default: 256.
	DispatchQueue int

	// PatchQueue is the size of the patch channel buffer.
	// Default: 64.
	PatchQueue int
}

// LiveConfig configures the websocket push server.
type LiveConfig struct {
	// Address is the listen address.
	// Default: ":8080".
	Address string

	// CheckOrigin validates the Origin header during the websocket upgrade.
	// Default: allow all origins. Tighten this outside development.
	CheckOrigin func(r *http.Request) bool

	// MaxMessageSize is the largest client message accepted, in bytes.
	// Default: 4096.
	MaxMessageSize int64

	// PongWait is how long to wait for a pong before dropping a connection.
	// Default: 60s.
	PongWait time.Duration

	// PingPeriod is the interval between pings. Must be less than PongWait.
	// Default: 54s.
	PingPeriod time.Duration

	// WriteTimeout bounds a single websocket write.
	// Default: 10s.
	WriteTimeout time.Duration

	// SendQueue is the per-session outbound patch buffer.
	// Default: 64.
	SendQueue int

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s.
	ShutdownTimeout time.Duration
}

// MetricsConfig configures Prometheus instrumentation.
type MetricsConfig struct {
	// Enabled controls whether the app carries a metrics probe and backs
	// /metrics with its own registry. Default: true.
	Enabled bool

	// Namespace is the metric name prefix.
	// Default: "datum".
	Namespace string

	// Subsystem is the optional second metric name segment.
	Subsystem string
}

// TraceConfig configures OpenTelemetry spans.
type TraceConfig struct {
	// Enabled controls whether dispatched actions are wrapped in spans.
	// Default: false.
	Enabled bool

	// TracerName names the tracer resolved from the global provider.
	// Default: "datum".
	TracerName string
}

// =============================================================================
// Default Configurations
// =============================================================================

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:    DefaultHostConfig(),
		Live:    DefaultLiveConfig(),
		Metrics: DefaultMetricsConfig(),
		Trace:   DefaultTraceConfig(),
	}
}

// DefaultHostConfig returns a HostConfig with sensible defaults.
func DefaultHostConfig() HostConfig {
	return HostConfig{
		DispatchQueue: 256,
		PatchQueue:    64,
	}
}

// DefaultLiveConfig returns a LiveConfig with sensible defaults.
func DefaultLiveConfig() LiveConfig {
	return LiveConfig{
		Address:         ":8080",
		MaxMessageSize:  4096,
		PongWait:        60 * time.Second,
		PingPeriod:      54 * time.Second,
		WriteTimeout:    10 * time.Second,
		SendQueue:       64,
		ShutdownTimeout: 10 * time.Second,
	}
}

// DefaultMetricsConfig returns a MetricsConfig with sensible defaults.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "datum",
	}
}

// DefaultTraceConfig returns a TraceConfig with sensible defaults.
func DefaultTraceConfig() TraceConfig {
	return TraceConfig{
		TracerName: "datum",
	}
}

// =============================================================================
// Config Translation
// =============================================================================

// buildHostConfig converts user-friendly Config to host.Config.
func buildHostConfig(cfg Config) *host.Config {
	hostCfg := host.DefaultConfig()

	if cfg.Host.DispatchQueue > 0 {
		hostCfg.DispatchQueue = cfg.Host.DispatchQueue
	}
	if cfg.Host.PatchQueue > 0 {
		hostCfg.PatchQueue = cfg.Host.PatchQueue
	}
	hostCfg.Logger = cfg.Logger

	return hostCfg
}

// buildLiveConfig converts user-friendly Config to live.Config.
func buildLiveConfig(cfg Config) *live.Config {
	liveCfg := live.DefaultConfig()

	if cfg.Live.Address != "" {
		liveCfg.Address = cfg.Live.Address
	}
	if cfg.Live.CheckOrigin != nil {
		liveCfg.CheckOrigin = cfg.Live.CheckOrigin
	}
	if cfg.Live.MaxMessageSize > 0 {
		liveCfg.MaxMessageSize = cfg.Live.MaxMessageSize
	}
	if cfg.Live.PongWait > 0 {
		liveCfg.PongWait = cfg.Live.PongWait
	}
	if cfg.Live.PingPeriod > 0 {
		liveCfg.PingPeriod = cfg.Live.PingPeriod
	}
	if cfg.Live.WriteTimeout > 0 {
		liveCfg.WriteTimeout = cfg.Live.WriteTimeout
	}
	if cfg.Live.SendQueue > 0 {
		liveCfg.SendQueue = cfg.Live.SendQueue
	}
	if cfg.Live.ShutdownTimeout > 0 {
		liveCfg.ShutdownTimeout = cfg.Live.ShutdownTimeout
	}
	liveCfg.Root = cfg.Root
	liveCfg.Logger = cfg.Logger

	return liveCfg
}
