package host

import "log/slog"

// Config holds configuration for a Runtime.
type Config struct {
	// DispatchQueue is the size of the dispatch channel buffer.
	// Default: 256.
	DispatchQueue int

	// PatchQueue is the size of the patch channel buffer.
	// Default: 64.
	PatchQueue int

	// Logger receives runtime diagnostics.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DispatchQueue: 256,
		PatchQueue:    64,
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
