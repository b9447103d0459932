package config

import (
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/datum-dev/datum/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "datum.toml"

	// DefaultAddress is the default live server listen address.
	DefaultAddress = ":8080"

	// DefaultNamespace is the default Prometheus metrics namespace.
	DefaultNamespace = "datum"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "datum"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default log output format.
	DefaultLogFormat = "text"
)

// Config represents the complete datum.toml configuration. Durations are
// written as strings ("100ms", "10s").
type Config struct {
	// Name is the project name, used in logs.
	Name string `toml:"name"`

	// Server contains live server settings.
	Server ServerConfig `toml:"server"`

	// Host contains runtime loop settings.
	Host HostConfig `toml:"host"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `toml:"metrics"`

	// Trace contains OpenTelemetry settings.
	Trace TraceConfig `toml:"trace"`

	// Log contains logging settings.
	Log LogConfig `toml:"log"`

	// Feeds lists files watched into named containers by `datum serve`.
	Feeds []FeedConfig `toml:"feed"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains live server settings.
type ServerConfig struct {
	// Address is the listen address.
	Address string `toml:"address"`

	// MaxMessageSize is the largest client message accepted, in bytes.
	MaxMessageSize int64 `toml:"max_message_size"`

	// PongWait is how long to wait for a pong before dropping a connection.
	PongWait time.Duration `toml:"pong_wait"`

	// PingPeriod is the interval between pings. Must be less than PongWait.
	PingPeriod time.Duration `toml:"ping_period"`

	// WriteTimeout bounds a single websocket write.
	WriteTimeout time.Duration `toml:"write_timeout"`

	// SendQueue is the per-session outbound patch buffer.
	SendQueue int `toml:"send_queue"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// HostConfig contains runtime loop settings.
type HostConfig struct {
	// DispatchQueue is the size of the dispatch channel buffer.
	DispatchQueue int `toml:"dispatch_queue"`

	// PatchQueue is the size of the patch channel buffer.
	PatchQueue int `toml:"patch_queue"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled controls whether containers are instrumented and /metrics
	// is backed by a live registry.
	Enabled bool `toml:"enabled"`

	// Namespace is the metric name prefix.
	Namespace string `toml:"namespace"`

	// Subsystem is the optional second metric name segment.
	Subsystem string `toml:"subsystem"`
}

// TraceConfig contains OpenTelemetry settings.
type TraceConfig struct {
	// Enabled controls whether dispatched actions are wrapped in spans.
	Enabled bool `toml:"enabled"`

	// TracerName names the tracer resolved from the global provider.
	TracerName string `toml:"tracer_name"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`

	// Format is one of text, json.
	Format string `toml:"format"`
}

// FeedConfig describes one file watched into a named container.
type FeedConfig struct {
	// Name is the container name. Defaults to the file name without
	// extension.
	Name string `toml:"name"`

	// Path is the watched file, relative to the config directory.
	Path string `toml:"path"`

	// Debounce is the reload quiet period after a write.
	Debounce time.Duration `toml:"debounce"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Address: DefaultAddress,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Trace: TraceConfig{
			TracerName: DefaultTracerName,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for datum.toml in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E020").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or pass an explicit --config path")
		}
		return nil, errors.New("E020").Wrap(err)
	}

	cfg := New()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		derr := errors.New("E021").WithDetail(err.Error())
		var perr toml.ParseError
		if stderrors.As(err, &perr) {
			derr = derr.WithDetail(perr.Message).
				WithLocation(path, perr.Position.Line, perr.Position.Col)
		}
		return nil, derr
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New("E023").
			WithDetail("Unknown keys: " + strings.Join(keys, ", ")).
			WithSuggestion("Remove the unknown keys or check their spelling")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Trace.TracerName == "" {
		c.Trace.TracerName = DefaultTracerName
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}

	for i := range c.Feeds {
		f := &c.Feeds[i]
		if f.Name == "" && f.Path != "" {
			base := filepath.Base(f.Path)
			f.Name = strings.TrimSuffix(base, filepath.Ext(base))
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
		return errors.New("E022").
			WithDetail(fmt.Sprintf("Listen address %q is not host:port", c.Server.Address)).
			WithSuggestion(`Use an address like ":8080" or "127.0.0.1:3000"`)
	}
	if c.Server.SendQueue < 0 || c.Host.DispatchQueue < 0 || c.Host.PatchQueue < 0 {
		return errors.New("E022").
			WithDetail("Queue sizes cannot be negative")
	}
	if c.Server.PongWait > 0 && c.Server.PingPeriod >= c.Server.PongWait {
		return errors.New("E022").
			WithDetail("ping_period must be less than pong_wait")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("E022").
			WithDetail(fmt.Sprintf("Unknown log level %q", c.Log.Level)).
			WithSuggestion("Use debug, info, warn or error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E022").
			WithDetail(fmt.Sprintf("Unknown log format %q", c.Log.Format)).
			WithSuggestion("Use text or json")
	}

	seen := make(map[string]bool, len(c.Feeds))
	for _, f := range c.Feeds {
		if f.Path == "" {
			return errors.New("E022").
				WithDetail("Feed entries need a path")
		}
		if f.Debounce < 0 {
			return errors.New("E022").
				WithDetail(fmt.Sprintf("Feed %q has a negative debounce", f.Name))
		}
		if seen[f.Name] {
			return errors.New("E022").
				WithDetail(fmt.Sprintf("Feed name %q is used twice", f.Name))
		}
		seen[f.Name] = true
	}

	return nil
}

// FeedPath returns the absolute path for a feed entry. Relative paths
// resolve against the config directory.
func (c *Config) FeedPath(f FeedConfig) string {
	if filepath.IsAbs(f.Path) {
		return f.Path
	}
	return filepath.Join(c.Dir(), f.Path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing datum.toml, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E020").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory").
				WithSuggestion("Create " + ConfigFileName + " at the project root")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
