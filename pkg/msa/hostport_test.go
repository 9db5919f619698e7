package msa

import (
	"os"
	"path/filepath"
	"testing"
)

// TestResolveHostPortFromEnv tests that the environment pair wins
func TestResolveHostPortFromEnv(t *testing.T) {
	t.Setenv(EnvAPIHostname, "api.example.test")
	t.Setenv(EnvAPIPort, "9000")

	host, port := ResolveHostPort("")
	if host != "api.example.test" || port != "9000" {
		t.Fatalf("Expected api.example.test:9000, got %s:%s", host, port)
	}
}

func TestResolveHostPortFromVarsCtx(t *testing.T) {
	t.Setenv(EnvAPIHostname, "")
	t.Setenv(EnvAPIPort, "")

	path := filepath.Join(t.TempDir(), "vars.ctx")
	content := `# runtime variables
UBI_WILDFLY_JNDI_ADDRESS=test_hostname

UBI_WILDFLY_JNDI_PORT=1111
not-a-pair
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	host, port := ResolveHostPort(path)
	if host != "test_hostname" {
		t.Errorf("Expected host 'test_hostname', got '%s'", host)
	}
	if port != "1111" {
		t.Errorf("Expected port '1111', got '%s'", port)
	}
}

func TestResolveHostPortDefaults(t *testing.T) {
	t.Setenv(EnvAPIHostname, "")
	t.Setenv(EnvAPIPort, "")

	host, port := ResolveHostPort(filepath.Join(t.TempDir(), "missing.ctx"))
	if host != "localhost" || port != "8480" {
		t.Fatalf("Expected localhost:8480, got %s:%s", host, port)
	}
}

func TestResolveHostPortIncompleteEnv(t *testing.T) {
	// A hostname without a port must not win over the file chain.
	t.Setenv(EnvAPIHostname, "half.example.test")
	t.Setenv(EnvAPIPort, "")

	host, port := ResolveHostPort(filepath.Join(t.TempDir(), "missing.ctx"))
	if host != "localhost" || port != "8480" {
		t.Fatalf("Expected localhost:8480, got %s:%s", host, port)
	}
}
