package main

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/datum-dev/datum"
	"github.com/datum-dev/datum/internal/config"
	"github.com/datum-dev/datum/pkg/feed"
)

func serveCmd() *cobra.Command {
	var (
		addr       string
		configPath string
		trace      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the live dashboard server",
		Long: `Start the live dashboard server.

The server fills containers from the project's [[feed]] files and
pushes updated HTML to connected browsers over WebSocket whenever a
value changes. Sessions share the same containers, so every browser
sees every change.

Endpoints:
  /         dashboard page
  /ws       websocket patch stream
  /healthz  liveness probe
  /metrics  Prometheus metrics (when enabled)

Examples:
  datum serve
  datum serve --addr=:3000
  datum serve --config=./datum.toml --trace`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, configPath, trace)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from datum.toml)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to datum.toml (default: nearest up the tree)")
	cmd.Flags().BoolVar(&trace, "trace", false, "Wrap dispatched actions in OpenTelemetry spans")

	return cmd
}

func runServe(addr, configPath string, trace bool) error {
	cfg, err := loadServeConfig(configPath)
	if err != nil {
		return err
	}

	// Apply command-line overrides
	if addr != "" {
		cfg.Server.Address = addr
	}
	if trace {
		cfg.Trace.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := buildLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appCfg := datum.Config{
		Host: datum.HostConfig{
			DispatchQueue: cfg.Host.DispatchQueue,
			PatchQueue:    cfg.Host.PatchQueue,
		},
		Live: datum.LiveConfig{
			Address:         cfg.Server.Address,
			MaxMessageSize:  cfg.Server.MaxMessageSize,
			PongWait:        cfg.Server.PongWait,
			PingPeriod:      cfg.Server.PingPeriod,
			WriteTimeout:    cfg.Server.WriteTimeout,
			SendQueue:       cfg.Server.SendQueue,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		},
		Metrics: datum.MetricsConfig{
			Enabled:   cfg.Metrics.Enabled,
			Namespace: cfg.Metrics.Namespace,
			Subsystem: cfg.Metrics.Subsystem,
		},
		Trace: datum.TraceConfig{
			Enabled:    cfg.Trace.Enabled,
			TracerName: cfg.Trace.TracerName,
		},
		Logger: logger,
	}

	// board is assigned before Run starts accepting sessions.
	var board *dashboard
	appCfg.Root = func(s *datum.Session) datum.Component {
		return board.component(s)
	}

	app := datum.NewApp(appCfg)
	board = newDashboard(ctx, app, cfg, logger)

	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	if cfg.Path() != "" {
		info("Config: %s", cfg.Path())
	}
	info("Listening on http://%s", displayAddr(cfg.Server.Address))
	if len(board.feeds) > 0 {
		info("Watching %d feeds", len(board.feeds))
	} else {
		warn("No feeds configured; add [[feed]] entries to datum.toml")
	}
	fmt.Println()

	return app.Run()
}

// loadServeConfig resolves the project configuration. An explicit path must
// load; otherwise the nearest datum.toml up the directory tree is used, and
// a project with no file at all runs on defaults.
func loadServeConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := config.FindProjectRoot(wd)
	if err != nil {
		return config.New(), nil
	}
	return config.Load(root)
}

// buildLogger builds the application logger from the [log] section.
func buildLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

// dashboard holds the shared containers behind every session's root
// component: one container per configured feed, plus a visit counter and a
// note list that sessions append to through actions.
type dashboard struct {
	started time.Time
	visits  *datum.Int
	notes   *datum.Slice[string]
	feeds   []dashboardFeed
}

type dashboardFeed struct {
	name string
	data *datum.Datum[map[string]any]
}

func newDashboard(ctx context.Context, app *datum.App, cfg *config.Config, logger *slog.Logger) *dashboard {
	board := &dashboard{
		started: time.Now(),
		visits:  datum.NewInt(0, datum.Trace("serve.visits"), app.Probe()),
		notes:   datum.NewSlice[string](nil, datum.Trace("serve.notes"), app.Probe()),
	}

	for _, fc := range cfg.Feeds {
		d := datum.New(map[string]any(nil), datum.Trace("feed."+fc.Name), app.Probe())

		opts := []datum.WatchOption{feed.WithLogger(logger)}
		if fc.Debounce > 0 {
			opts = append(opts, datum.Debounce(fc.Debounce))
		}

		if err := datum.Watch(ctx, cfg.FeedPath(fc), d, opts...); err != nil {
			errorMsg("Feed %s: %s", fc.Name, err)
			continue
		}
		board.feeds = append(board.feeds, dashboardFeed{name: fc.Name, data: d})
	}

	return board
}

// component builds one session's view of the shared dashboard.
func (b *dashboard) component(s *datum.Session) datum.Component {
	b.visits.Inc()

	s.HandleAction("note", func(ev datum.Event) {
		if text := strings.TrimSpace(ev.Value); text != "" {
			b.notes.Append(text)
		}
	})
	s.HandleAction("clear-notes", func(datum.Event) {
		b.notes.Clear()
	})

	return datum.Func(b.render)
}

func (b *dashboard) render() string {
	var sb strings.Builder
	sb.WriteString(`<div class="dashboard">`)

	visits, _ := b.visits.Use()
	fmt.Fprintf(&sb, `<p>up %s, %d sessions served</p>`,
		time.Since(b.started).Round(time.Second), visits)

	for _, f := range b.feeds {
		fmt.Fprintf(&sb, `<section><h2>%s</h2>`, html.EscapeString(f.name))
		data, _ := f.data.Use()
		if len(data) == 0 {
			sb.WriteString(`<p>no data yet</p></section>`)
			continue
		}
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(`<dl>`)
		for _, k := range keys {
			fmt.Fprintf(&sb, `<dt>%s</dt><dd>%s</dd>`,
				html.EscapeString(k), html.EscapeString(fmt.Sprint(data[k])))
		}
		sb.WriteString(`</dl></section>`)
	}

	notes, _ := b.notes.Use()
	sb.WriteString(`<section><h2>notes</h2>`)
	if len(notes) > 0 {
		sb.WriteString(`<ul>`)
		for _, n := range notes {
			fmt.Fprintf(&sb, `<li>%s</li>`, html.EscapeString(n))
		}
		sb.WriteString(`</ul>`)
	}
	sb.WriteString(`<input id="note-text" placeholder="add a note">` +
		`<button onclick="send('note', document.getElementById('note-text').value)">add</button>` +
		`<button onclick="send('clear-notes')">clear</button>` +
		`</section>`)

	sb.WriteString(`</div>`)
	return sb.String()
}
