package msa

import (
	"bufio"
	"os"
	"strings"
)

// Environment variables that pin the API endpoint, taking precedence over
// the vars context file.
const (
	EnvAPIHostname = "MSA_SDK_API_HOSTNAME"
	EnvAPIPort     = "MSA_SDK_API_PORT"
)

// DefaultVarsCtxFile is where the orchestrator host publishes its runtime
// variables.
const DefaultVarsCtxFile = "/etc/ubiqube/vars.ctx"

// Keys carrying the API endpoint inside a vars context file.
const (
	varsCtxHostKey = "UBI_WILDFLY_JNDI_ADDRESS"
	varsCtxPortKey = "UBI_WILDFLY_JNDI_PORT"
)

// Endpoint used when nothing else resolves.
const (
	defaultHost = "localhost"
	defaultPort = "8480"
)

// ResolveHostPort determines the API endpoint for this process. The
// environment pair wins, then the vars context file, then localhost:8480.
// An empty varsCtxPath means DefaultVarsCtxFile; a missing file is skipped,
// not an error.
func ResolveHostPort(varsCtxPath string) (host, port string) {
	if h, p := os.Getenv(EnvAPIHostname), os.Getenv(EnvAPIPort); h != "" && p != "" {
		return h, p
	}
	if varsCtxPath == "" {
		varsCtxPath = DefaultVarsCtxFile
	}
	vars := readVarsCtx(varsCtxPath)
	if h, p := vars[varsCtxHostKey], vars[varsCtxPortKey]; h != "" && p != "" {
		return h, p
	}
	return defaultHost, defaultPort
}

// readVarsCtx parses a KEY=VALUE file, skipping blank lines and # comments.
// Unreadable files yield an empty map.
func readVarsCtx(path string) map[string]string {
	out := map[string]string{}

	f, err := os.Open(path)
	if err != nil {
		return out
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		out[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return out
}
