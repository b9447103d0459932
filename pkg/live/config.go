package live

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/datum-dev/datum/pkg/host"
	"github.com/datum-dev/datum/pkg/obs"
)

// Config holds configuration for the live server.
type Config struct {
	// Address is the listen address.
	// Default: ":8080".
	Address string

	// Root builds the root component for a new session. The factory runs
	// before the session's pumps start, so it can register the session's
	// actions. If nil, sessions connect with nothing mounted.
	Root func(s *Session) host.Component

	// CheckOrigin validates the Origin header during the websocket upgrade.
	// Default: allow all origins. Tighten this outside development.
	CheckOrigin func(r *http.Request) bool

	// ReadBufferSize is the websocket read buffer size in bytes.
	// Default: 1024.
	ReadBufferSize int

	// WriteBufferSize is the websocket write buffer size in bytes.
	// Default: 1024.
	WriteBufferSize int

	// MaxMessageSize is the largest client message accepted, in bytes.
	// Default: 4096.
	MaxMessageSize int64

	// PongWait is how long to wait for a pong before dropping the
	// connection. Default: 60s.
	PongWait time.Duration

	// PingPeriod is the interval between pings. Must be less than PongWait.
	// Default: 54s.
	PingPeriod time.Duration

	// WriteTimeout bounds a single websocket write.
	// Default: 10s.
	WriteTimeout time.Duration

	// SendQueue is the per-session outbound patch buffer. When it fills,
	// patches are dropped and logged. Default: 64.
	SendQueue int

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s.
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout bounds reading HTTP request headers.
	// Default: 5s.
	ReadHeaderTimeout time.Duration

	// IdleTimeout bounds idle keep-alive connections.
	// Default: 120s.
	IdleTimeout time.Duration

	// MetricsGatherer backs the /metrics endpoint.
	// Default: prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer

	// Tracer wraps dispatched actions in spans when set.
	Tracer *obs.Tracer

	// Logger receives server diagnostics.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8080",
		CheckOrigin:       func(r *http.Request) bool { return true },
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		MaxMessageSize:    4096,
		PongWait:          60 * time.Second,
		PingPeriod:        54 * time.Second,
		WriteTimeout:      10 * time.Second,
		SendQueue:         64,
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MetricsGatherer:   prometheus.DefaultGatherer,
	}
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// withDefaults fills unset fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	out := c.Clone()
	defaults := DefaultConfig()
	if out.Address == "" {
		out.Address = defaults.Address
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = defaults.CheckOrigin
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = defaults.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = defaults.WriteBufferSize
	}
	if out.MaxMessageSize == 0 {
		out.MaxMessageSize = defaults.MaxMessageSize
	}
	if out.PongWait == 0 {
		out.PongWait = defaults.PongWait
	}
	if out.PingPeriod == 0 {
		out.PingPeriod = defaults.PingPeriod
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = defaults.WriteTimeout
	}
	if out.SendQueue == 0 {
		out.SendQueue = defaults.SendQueue
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if out.IdleTimeout == 0 {
		out.IdleTimeout = defaults.IdleTimeout
	}
	if out.MetricsGatherer == nil {
		out.MetricsGatherer = defaults.MetricsGatherer
	}
	return out
}
