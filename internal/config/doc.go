// Package config provides configuration parsing for datum projects.
//
// The configuration is stored in datum.toml at the project root.
// This package handles loading and validating configuration; the CLI
// translates it onto the programmatic Config structs.
//
// # Configuration File Structure
//
//	name = "checkout"
//
//	[server]
//	address = ":8080"
//	send_queue = 64
//	shutdown_timeout = "10s"
//
//	[host]
//	dispatch_queue = 256
//	patch_queue = 64
//
//	[metrics]
//	enabled = true
//	namespace = "datum"
//
//	[trace]
//	enabled = false
//
//	[log]
//	level = "info"
//	format = "text"
//
//	[[feed]]
//	name = "state"
//	path = "state.yaml"
//	debounce = "100ms"
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Address:", cfg.Server.Address)
package config
