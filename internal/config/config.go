// Package config loads the msax CLI configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/3cpo-dev/msax/pkg/msa"
)

// Config is the CLI configuration. Everything is optional: an absent file
// leaves endpoint resolution to the environment, the vars context file and
// the localhost default.
type Config struct {
	API struct {
		Host    string `yaml:"host"`
		Port    string `yaml:"port"`
		VarsCtx string `yaml:"vars_ctx"`
	} `yaml:"api"`
	ProcessLogs string `yaml:"process_logs"`
	Telemetry   struct {
		Enabled      bool   `yaml:"enabled"`
		OTLPEndpoint string `yaml:"otlp_endpoint"`
	} `yaml:"telemetry"`
}

// Load reads YAML configuration from a path. If path is empty it resolves
// $XDG_CONFIG_HOME/msax/config.yaml or ~/.config/msax/config.yaml, and a
// missing default file yields a zero config. An explicitly named file must
// exist.
func Load(path string) (Config, error) {
	var cfg Config
	defaulted := path == ""
	if defaulted {
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, ".config")
		}
		path = filepath.Join(base, "msax", "config.yaml")
	}
	f, err := os.Open(path)
	if err != nil {
		if defaulted && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// APIHostPort resolves the endpoint for API calls. The environment pair
// wins, then explicit config values, then the vars context chain.
func (c Config) APIHostPort() (host, port string) {
	if h, p := os.Getenv(msa.EnvAPIHostname), os.Getenv(msa.EnvAPIPort); h != "" && p != "" {
		return h, p
	}
	if c.API.Host != "" && c.API.Port != "" {
		return c.API.Host, c.API.Port
	}
	return msa.ResolveHostPort(c.API.VarsCtx)
}
