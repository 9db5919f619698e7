package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadDefaults tests that an absent default config is not an error
func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Host != "" || cfg.ProcessLogs != "" || cfg.Telemetry.Enabled {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestLoadExplicitMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for explicitly named missing file")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `api:
  host: msa.example.test
  port: "8480"
process_logs: /var/log/msax
telemetry:
  enabled: true
  otlp_endpoint: http://collector:4318/v1/metrics
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Host != "msa.example.test" || cfg.API.Port != "8480" {
		t.Errorf("unexpected api config %+v", cfg.API)
	}
	if cfg.ProcessLogs != "/var/log/msax" {
		t.Errorf("Expected process logs dir, got %q", cfg.ProcessLogs)
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.OTLPEndpoint == "" {
		t.Errorf("unexpected telemetry config %+v", cfg.Telemetry)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api: [broken"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

// TestAPIHostPort tests the endpoint resolution precedence
func TestAPIHostPort(t *testing.T) {
	t.Setenv("MSA_SDK_API_HOSTNAME", "env.example.test")
	t.Setenv("MSA_SDK_API_PORT", "1234")

	var cfg Config
	cfg.API.Host = "cfg.example.test"
	cfg.API.Port = "5678"

	host, port := cfg.APIHostPort()
	if host != "env.example.test" || port != "1234" {
		t.Fatalf("environment must win, got %s:%s", host, port)
	}

	t.Setenv("MSA_SDK_API_HOSTNAME", "")
	t.Setenv("MSA_SDK_API_PORT", "")
	host, port = cfg.APIHostPort()
	if host != "cfg.example.test" || port != "5678" {
		t.Fatalf("config must win over defaults, got %s:%s", host, port)
	}

	cfg.API.Host = ""
	cfg.API.Port = ""
	cfg.API.VarsCtx = filepath.Join(t.TempDir(), "missing.ctx")
	host, port = cfg.APIHostPort()
	if host != "localhost" || port != "8480" {
		t.Fatalf("Expected localhost:8480 fallback, got %s:%s", host, port)
	}
}
