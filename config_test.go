package datum

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

// =============================================================================
// Default Tests
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Host.DispatchQueue != 256 {
		t.Errorf("Host.DispatchQueue = %d, want %d", cfg.Host.DispatchQueue, 256)
	}
	if cfg.Host.PatchQueue != 64 {
		t.Errorf("Host.PatchQueue = %d, want %d", cfg.Host.PatchQueue, 64)
	}
	if cfg.Live.Address != ":8080" {
		t.Errorf("Live.Address = %q, want %q", cfg.Live.Address, ":8080")
	}
	if cfg.Live.PingPeriod >= cfg.Live.PongWait {
		t.Errorf("Live.PingPeriod = %v, must be less than PongWait %v", cfg.Live.PingPeriod, cfg.Live.PongWait)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should default to true")
	}
	if cfg.Metrics.Namespace != "datum" {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, "datum")
	}
	if cfg.Trace.Enabled {
		t.Error("Trace.Enabled should default to false")
	}
	if cfg.Trace.TracerName != "datum" {
		t.Errorf("Trace.TracerName = %q, want %q", cfg.Trace.TracerName, "datum")
	}
}

// =============================================================================
// Translation Tests
// =============================================================================

func TestBuildHostConfig(t *testing.T) {
	// Zero sections fall back to package defaults
	hostCfg := buildHostConfig(Config{})
	if hostCfg.DispatchQueue != 256 {
		t.Errorf("DispatchQueue = %d, want %d", hostCfg.DispatchQueue, 256)
	}
	if hostCfg.PatchQueue != 64 {
		t.Errorf("PatchQueue = %d, want %d", hostCfg.PatchQueue, 64)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hostCfg = buildHostConfig(Config{
		Host:   HostConfig{DispatchQueue: 8, PatchQueue: 4},
		Logger: logger,
	})
	if hostCfg.DispatchQueue != 8 {
		t.Errorf("DispatchQueue = %d, want %d", hostCfg.DispatchQueue, 8)
	}
	if hostCfg.PatchQueue != 4 {
		t.Errorf("PatchQueue = %d, want %d", hostCfg.PatchQueue, 4)
	}
	if hostCfg.Logger != logger {
		t.Error("Logger should pass through to the host config")
	}
}

func TestBuildLiveConfig(t *testing.T) {
	// Partial overrides keep the remaining defaults
	liveCfg := buildLiveConfig(Config{
		Live: LiveConfig{Address: "127.0.0.1:9999", SendQueue: 8},
	})
	if liveCfg.Address != "127.0.0.1:9999" {
		t.Errorf("Address = %q, want %q", liveCfg.Address, "127.0.0.1:9999")
	}
	if liveCfg.SendQueue != 8 {
		t.Errorf("SendQueue = %d, want %d", liveCfg.SendQueue, 8)
	}
	if liveCfg.PongWait != 60*time.Second {
		t.Errorf("PongWait = %v, want %v", liveCfg.PongWait, 60*time.Second)
	}
	if liveCfg.MaxMessageSize != 4096 {
		t.Errorf("MaxMessageSize = %d, want %d", liveCfg.MaxMessageSize, 4096)
	}

	root := func(s *Session) Component {
		return Func(func() string { return "" })
	}
	liveCfg = buildLiveConfig(Config{Root: root})
	if liveCfg.Root == nil {
		t.Error("Root should pass through to the live config")
	}
}
