package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/marketd/marketd/pkg/api"
	"github.com/marketd/marketd/pkg/cli/internal/output"
	"github.com/marketd/marketd/pkg/config"
	"github.com/marketd/marketd/pkg/flows"
	"github.com/marketd/marketd/pkg/logging"
	"github.com/marketd/marketd/pkg/seed"
	"github.com/marketd/marketd/pkg/session"
)

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals serveFlags

// serveCmd represents the serve command — the foreground server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the marketplace API server (foreground)",
	Long: `Start the marketplace API server.

Every session created against the server gets its own isolated copy of the
marketplace, seeded from the canonical dataset. Agents talk to the listings
API with an X-Session-ID header; the /test endpoints grade their work
against validation flows and reset state between runs.

Configuration is layered: defaults, then an optional YAML file (--config or
MARKETD_CONFIG), then MARKETD_* environment variables, then flags.`,
	Example: `  # Start with defaults
  marketd serve

  # Custom port with debug logging
  marketd serve --port 3000 --log-level debug

  # Load extra validation flows from YAML files
  marketd serve --flows './flows/**/*.yaml'

  # Ship logs to Loki alongside stderr
  marketd serve --loki-endpoint http://localhost:3100/loki/api/v1/push

  # JSON logs (also suppresses the startup banner)
  marketd serve --log-format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, &serveFlagVals)
	},
}

// registerServeFlags binds the serve flag set to cmd.
func registerServeFlags(cmd *cobra.Command, f *serveFlags) {
	// Standard server flags
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&f.host, "host", config.DefaultHost, "Interface to bind")
	cmd.Flags().IntVarP(&f.port, "port", "p", config.DefaultPort, "HTTP server port")

	// Logging flags
	cmd.Flags().StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", config.DefaultLogFormat, "Log format (text, json)")
	cmd.Flags().StringVar(&f.lokiEndpoint, "loki-endpoint", "", "Loki endpoint for log aggregation")

	// Session lifecycle flags
	cmd.Flags().StringVar(&f.sessionTTL, "session-ttl", config.DefaultSessionTTL, "Idle session lifetime before the reaper collects it (0 = never)")
	cmd.Flags().StringVar(&f.reapInterval, "reap-interval", config.DefaultReapInterval, "How often expired sessions are collected")

	// Flow loading flags
	cmd.Flags().StringSliceVar(&f.flowPaths, "flows", nil, "Glob patterns for extra validation flow files")

	cmd.Flags().BoolVar(&f.noBanner, "no-banner", false, "Suppress the startup banner")
}

func init() {
	rootCmd.AddCommand(serveCmd)
	registerServeFlags(serveCmd, &serveFlagVals)
}

// serveFlags holds all parsed command-line flags for the serve command.
type serveFlags struct {
	// Standard server flags
	configFile string
	host       string
	port       int

	// Logging flags
	logLevel     string
	logFormat    string
	lokiEndpoint string

	// Session lifecycle flags
	sessionTTL   string
	reapInterval string

	// Flow loading flags
	flowPaths []string

	noBanner bool
}

// serveContext holds all runtime state for the serve command.
type serveContext struct {
	flags    *serveFlags
	cfg      *config.Config
	registry *flows.Registry
	sessions *session.Manager
	server   *api.Server
	log      *slog.Logger
}

// runServe is the core serve logic called by the cobra command.
func runServe(cmd *cobra.Command, flags *serveFlags) error {
	// A .env in the working directory may carry MARKETD_* overrides.
	_ = godotenv.Load()

	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg, cmd, flags)

	// Flag values bypass the validation inside Load, so check again.
	if result := cfg.Validate(); !result.IsValid() {
		return fmt.Errorf("invalid configuration: %w", result)
	}

	sctx := &serveContext{flags: flags, cfg: cfg}

	// Initialize structured logger
	sctx.log = logging.New(logging.Config{
		Level:     logging.ParseLevel(cfg.Log.Level),
		Format:    logging.ParseFormat(cfg.Log.Format),
		AddSource: cfg.Log.AddSource,
	})

	// Add Loki handler if an endpoint is configured
	if cfg.Log.Loki != nil && cfg.Log.Loki.URL != "" {
		labels := map[string]string{
			"service": "marketd",
			"port":    strconv.Itoa(cfg.Server.Port),
		}
		for k, v := range cfg.Log.Loki.Labels {
			labels[k] = v
		}
		lokiHandler := logging.NewLokiHandler(cfg.Log.Loki.URL,
			logging.WithLokiLabels(labels),
			logging.WithLokiLevel(logging.ParseLevel(cfg.Log.Level)),
		)
		// Create a multi-handler that writes to both the standard stream and Loki
		sctx.log = slog.New(logging.NewMultiHandler(sctx.log.Handler(), lokiHandler))
		sctx.log.Info("log aggregation enabled", "endpoint", cfg.Log.Loki.URL)
	}

	if showBanner(flags, cfg) {
		printBanner()
	}

	if err := buildServer(sctx); err != nil {
		return err
	}

	// Start the API server
	if err := sctx.server.Start(); err != nil {
		if isAddrInUseError(err) {
			return fmt.Errorf("port %d is already in use — try a different port with --port or check what's using it: lsof -i :%d", cfg.Server.Port, cfg.Server.Port)
		}
		return fmt.Errorf("failed to start server: %w", err)
	}

	printStartupMessage(cfg, sctx.registry.Len())

	// Run main event loop (blocks until shutdown signal)
	return runMainLoop(sctx)
}

// applyFlagOverrides layers explicitly set command-line flags over the
// file/env configuration. Only flags the user actually set are applied.
func applyFlagOverrides(cfg *config.Config, cmd *cobra.Command, flags *serveFlags) {
	set := cmd.Flags().Changed
	if set("host") {
		cfg.Server.Host = flags.host
	}
	if set("port") {
		cfg.Server.Port = flags.port
	}
	if set("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if set("log-format") {
		cfg.Log.Format = flags.logFormat
	}
	if set("loki-endpoint") {
		if flags.lokiEndpoint == "" {
			cfg.Log.Loki = nil
		} else {
			cfg.Log.Loki = &config.LokiConfig{URL: flags.lokiEndpoint}
		}
	}
	if set("session-ttl") {
		cfg.Session.TTL = flags.sessionTTL
	}
	if set("reap-interval") {
		cfg.Session.ReapInterval = flags.reapInterval
	}
	if set("flows") {
		// Patterns from the flag load in addition to configured ones.
		cfg.Flows.Paths = append(cfg.Flows.Paths, flags.flowPaths...)
	}
}

// showBanner reports whether the startup banner should be printed. JSON log
// output keeps the stream machine-parseable, so the banner is suppressed.
func showBanner(flags *serveFlags, cfg *config.Config) bool {
	if flags.noBanner {
		return false
	}
	return logging.ParseFormat(cfg.Log.Format) != logging.FormatJSON
}

// buildServer assembles the seed runner, flow registry, session manager and
// API server from the resolved configuration.
func buildServer(sctx *serveContext) error {
	cfg := sctx.cfg

	ttl, err := cfg.Session.ParseTTL()
	if err != nil {
		return fmt.Errorf("invalid session ttl %q: %w", cfg.Session.TTL, err)
	}
	reapInterval, err := cfg.Session.ParseReapInterval()
	if err != nil {
		return fmt.Errorf("invalid reap interval %q: %w", cfg.Session.ReapInterval, err)
	}

	runner := seed.NewRunner(sctx.log)

	// Builtin flows plus any configured flow files
	sctx.registry = flows.Builtin()
	for _, pattern := range cfg.Flows.Paths {
		n, err := flows.LoadGlob(sctx.registry, pattern)
		if err != nil {
			return fmt.Errorf("failed to load flows from %q: %w", pattern, err)
		}
		sctx.log.Info("loaded validation flows", "pattern", pattern, "count", n)
	}

	sctx.sessions = session.NewManager(runner,
		session.WithLogger(logging.Component(sctx.log, "session")),
		session.WithTTL(ttl),
	)

	sctx.server = api.NewServer(cfg.Server.Host, cfg.Server.Port,
		sctx.sessions, flows.NewValidator(sctx.registry), runner,
		api.WithLogger(logging.Component(sctx.log, "api")),
		api.WithVersion(Version),
		api.WithSessionReaper(reapInterval),
	)
	return nil
}

// runMainLoop blocks until a shutdown signal arrives, then stops the server.
func runMainLoop(sctx *serveContext) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	<-sigChan
	fmt.Println("\nShutting down...")

	// Stop the API server (uses internal 5s timeout). This also cancels the
	// session reaper.
	if err := sctx.server.Stop(); err != nil {
		output.Warn("server shutdown error: %v", err)
	}

	fmt.Println("Server stopped")
	return nil
}

// isAddrInUseError reports whether err means the listen address is already
// bound by another process.
func isAddrInUseError(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}

// printBanner prints the ASCII-art application name.
func printBanner() {
	figure.NewFigure("marketd", "cybermedium", true).Print()
	fmt.Println()
}

// printStartupMessage prints the server startup information.
func printStartupMessage(cfg *config.Config, flowCount int) {
	base := displayAddr(cfg.Server)

	fmt.Printf("marketd server started (%d validation flows)\n", flowCount)
	fmt.Println()
	fmt.Printf("  Listings API: http://%s/listings/2021-08-01/items\n", base)
	fmt.Printf("  Sessions:     http://%s/sessions\n", base)
	fmt.Printf("  Test harness: http://%s/test/flows\n", base)
	fmt.Println()
	fmt.Println("Create a session to get started:")
	fmt.Printf("  curl -X POST http://%s/sessions\n", base)
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop")
}

// displayAddr rewrites a wildcard bind address to localhost so the printed
// URLs can be pasted into a terminal.
func displayAddr(s config.ServerConfig) string {
	host := s.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("%s:%d", host, s.Port)
}
