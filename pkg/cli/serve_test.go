package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/spf13/cobra"

	"github.com/marketd/marketd/pkg/config"
	"github.com/marketd/marketd/pkg/flows"
	"github.com/marketd/marketd/pkg/logging"
)

func TestApplyFlagOverrides(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "no flags leaves config untouched",
			args: nil,
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Server.Port != 9999 {
					t.Errorf("port: got %d, want 9999", cfg.Server.Port)
				}
				if cfg.Log.Format != "json" {
					t.Errorf("log format: got %s, want json", cfg.Log.Format)
				}
			},
		},
		{
			name: "explicit port wins over config",
			args: []string{"--port", "3000"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Server.Port != 3000 {
					t.Errorf("port: got %d, want 3000", cfg.Server.Port)
				}
			},
		},
		{
			name: "explicit default still wins",
			args: []string{"--port", "8080"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Server.Port != 8080 {
					t.Errorf("port: got %d, want 8080", cfg.Server.Port)
				}
			},
		},
		{
			name: "log flags",
			args: []string{"--log-level", "debug", "--log-format", "text"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Log.Level != "debug" {
					t.Errorf("log level: got %s, want debug", cfg.Log.Level)
				}
				if cfg.Log.Format != "text" {
					t.Errorf("log format: got %s, want text", cfg.Log.Format)
				}
			},
		},
		{
			name: "loki endpoint sets loki config",
			args: []string{"--loki-endpoint", "http://loki:3100/loki/api/v1/push"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Log.Loki == nil || cfg.Log.Loki.URL != "http://loki:3100/loki/api/v1/push" {
					t.Errorf("loki config not applied: %+v", cfg.Log.Loki)
				}
			},
		},
		{
			name: "empty loki endpoint disables loki",
			args: []string{"--loki-endpoint", ""},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Log.Loki != nil {
					t.Errorf("loki config should be nil, got %+v", cfg.Log.Loki)
				}
			},
		},
		{
			name: "session lifecycle flags",
			args: []string{"--session-ttl", "5m", "--reap-interval", "30s"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Session.TTL != "5m" {
					t.Errorf("ttl: got %s, want 5m", cfg.Session.TTL)
				}
				if cfg.Session.ReapInterval != "30s" {
					t.Errorf("reap interval: got %s, want 30s", cfg.Session.ReapInterval)
				}
			},
		},
		{
			name: "flow patterns append to configured ones",
			args: []string{"--flows", "extra/*.yaml"},
			check: func(t *testing.T, cfg *config.Config) {
				want := []string{"base/*.yaml", "extra/*.yaml"}
				if len(cfg.Flows.Paths) != len(want) {
					t.Fatalf("flow paths: got %v, want %v", cfg.Flows.Paths, want)
				}
				for i := range want {
					if cfg.Flows.Paths[i] != want[i] {
						t.Errorf("flow paths[%d]: got %s, want %s", i, cfg.Flows.Paths[i], want[i])
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f serveFlags
			cmd := &cobra.Command{Use: "serve"}
			registerServeFlags(cmd, &f)
			if err := cmd.Flags().Parse(tt.args); err != nil {
				t.Fatalf("parse flags: %v", err)
			}

			// Simulate values already loaded from a config file.
			cfg := config.Default()
			cfg.Server.Port = 9999
			cfg.Log.Format = "json"
			cfg.Flows.Paths = []string{"base/*.yaml"}

			applyFlagOverrides(cfg, cmd, &f)
			tt.check(t, cfg)
		})
	}
}

func TestShowBanner(t *testing.T) {
	tests := []struct {
		name     string
		noBanner bool
		format   string
		want     bool
	}{
		{name: "text format shows banner", format: "text", want: true},
		{name: "default format shows banner", format: "", want: true},
		{name: "json format suppresses banner", format: "json", want: false},
		{name: "no-banner flag wins", noBanner: true, format: "text", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := &serveFlags{noBanner: tt.noBanner}
			cfg := config.Default()
			cfg.Log.Format = tt.format
			if got := showBanner(flags, cfg); got != tt.want {
				t.Errorf("showBanner: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDisplayAddr(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{host: "0.0.0.0", want: "localhost:8080"},
		{host: "", want: "localhost:8080"},
		{host: "::", want: "localhost:8080"},
		{host: "127.0.0.1", want: "127.0.0.1:8080"},
		{host: "market.internal", want: "market.internal:8080"},
	}

	for _, tt := range tests {
		got := displayAddr(config.ServerConfig{Host: tt.host, Port: 8080})
		if got != tt.want {
			t.Errorf("displayAddr(%q): got %s, want %s", tt.host, got, tt.want)
		}
	}
}

func TestIsAddrInUseError(t *testing.T) {
	wrapped := fmt.Errorf("listen tcp: %w", syscall.EADDRINUSE)
	if !isAddrInUseError(wrapped) {
		t.Error("expected wrapped EADDRINUSE to be recognized")
	}
	if isAddrInUseError(errors.New("some other failure")) {
		t.Error("unrelated error should not be recognized")
	}
	if isAddrInUseError(nil) {
		t.Error("nil error should not be recognized")
	}
}

func TestBuildServer(t *testing.T) {
	sctx := &serveContext{cfg: config.Default(), log: logging.Nop()}
	if err := buildServer(sctx); err != nil {
		t.Fatalf("buildServer: %v", err)
	}
	if sctx.server == nil {
		t.Fatal("server not assembled")
	}
	if sctx.sessions == nil {
		t.Fatal("session manager not assembled")
	}
	if got, want := sctx.registry.Len(), flows.Builtin().Len(); got != want {
		t.Errorf("registry size: got %d, want %d", got, want)
	}
}

func TestBuildServerBadTTL(t *testing.T) {
	cfg := config.Default()
	cfg.Session.TTL = "banana"
	sctx := &serveContext{cfg: cfg, log: logging.Nop()}
	if err := buildServer(sctx); err == nil {
		t.Fatal("expected error for unparseable ttl")
	}
}

func TestBuildServerLoadsFlowFiles(t *testing.T) {
	dir := t.TempDir()
	flowFile := filepath.Join(dir, "extra.yaml")
	doc := `- id: flow_cli_extra
  name: CLI extra flow
  instruction: Check the laptop listing still looks right.
  kind: update
  target:
    sellerId: SELLER001
    sku: LAPTOP-001
  expect:
    status: ACTIVE
`
	if err := os.WriteFile(flowFile, []byte(doc), 0o644); err != nil {
		t.Fatalf("write flow file: %v", err)
	}

	cfg := config.Default()
	cfg.Flows.Paths = []string{filepath.Join(dir, "*.yaml")}
	sctx := &serveContext{cfg: cfg, log: logging.Nop()}
	if err := buildServer(sctx); err != nil {
		t.Fatalf("buildServer: %v", err)
	}
	if _, ok := sctx.registry.Get("flow_cli_extra"); !ok {
		t.Error("flow from file not registered")
	}
	if got, want := sctx.registry.Len(), flows.Builtin().Len()+1; got != want {
		t.Errorf("registry size: got %d, want %d", got, want)
	}
}

func TestBuildServerBadFlowPattern(t *testing.T) {
	dir := t.TempDir()
	flowFile := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(flowFile, []byte("- id: incomplete\n"), 0o644); err != nil {
		t.Fatalf("write flow file: %v", err)
	}

	cfg := config.Default()
	cfg.Flows.Paths = []string{filepath.Join(dir, "*.yaml")}
	sctx := &serveContext{cfg: cfg, log: logging.Nop()}
	if err := buildServer(sctx); err == nil {
		t.Fatal("expected error for invalid flow file")
	}
}
