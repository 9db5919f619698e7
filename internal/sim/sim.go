// Package sim is a local stand-in for the MSA orchestration API: token
// issuing, the ordercommand surface and health endpoints, answering with the
// same bearer handshake and {"message": ...} error bodies as the real thing.
// It exists for development and integration tests, not for production use.
package sim

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/3cpo-dev/msax/internal/telemetry"
)

// Server simulates one MSA endpoint. With Token set only that bearer token
// is accepted; otherwise any non-empty bearer passes and the auth endpoint
// mints random tokens.
type Server struct {
	Version string
	Token   string
	health  *telemetry.HealthRegistry
	srv     *http.Server
}

// Canned inventory served by the objects endpoints.
var (
	objectNames = []string{"linux_users", "simple_firewall"}

	objectInstances = map[string][]string{
		"linux_users":     {"101", "102"},
		"simple_firewall": {"fw-base", "fw-strict"},
	}
)

func (s *Server) routes(mux *http.ServeMux) {
	s.health = telemetry.NewHealthRegistry()
	mux.HandleFunc("/ubi-api-rest/auth/token", s.handleToken)
	mux.HandleFunc("/ubi-api-rest/ordercommand/", s.handleOrderCommand)
	mux.HandleFunc("/ubi-api-rest/status", s.handleStatus)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/metrics", s.handleMetrics)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer r.Body.Close()

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed credentials")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token := s.Token
	if token == "" {
		u := uuid.New()
		token = hex.EncodeToString(u[:])
	}

	telemetry.CounterGlobal("msax_sim_tokens_issued", 1, map[string]string{
		"component": "sim",
		"endpoint":  "auth",
	})
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
	telemetry.TimerGlobal("msax_sim_request_duration", time.Since(start), map[string]string{
		"component": "sim",
		"endpoint":  "auth",
	})
}

func (s *Server) handleOrderCommand(w http.ResponseWriter, r *http.Request) {
	ts := telemetry.NewTimerScope("msax_sim_request_duration", map[string]string{
		"component": "sim",
		"endpoint":  "ordercommand",
	})
	defer ts.End()
	defer r.Body.Close()

	if !s.requireToken(w, r) {
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/ubi-api-rest/ordercommand/"), "/")
	parts := strings.Split(path, "/")

	telemetry.CounterGlobal("msax_sim_requests", 1, map[string]string{
		"component": "sim",
		"endpoint":  "ordercommand",
		"op":        parts[0],
	})

	switch {
	case parts[0] == "execute" && r.Method == http.MethodPost && len(parts) == 3:
		s.acknowledgeCommand(w, r, parts[1], parts[2], fmt.Sprintf("accepted command %s", parts[2]))
	case parts[0] == "get" && r.Method == http.MethodPost && len(parts) == 4 && parts[1] == "configuration":
		s.acknowledgeCommand(w, r, parts[2], parts[3], fmt.Sprintf("generated configuration for %s", parts[3]))
	case parts[0] == "synchronize" && r.Method == http.MethodPost && len(parts) == 2:
		s.acknowledgeCommand(w, r, parts[1], "", "synchronized")
	case parts[0] == "call" && r.Method == http.MethodPost && len(parts) == 4:
		s.acknowledgeCommand(w, r, parts[1], parts[2], fmt.Sprintf("accepted call %s mode %s", parts[2], parts[3]))
	case parts[0] == "objects" && r.Method == http.MethodGet && len(parts) >= 2:
		s.serveObjects(w, parts[1:])
	default:
		writeError(w, http.StatusNotFound, "no such order operation")
	}
}

// requireToken enforces the bearer handshake the real API uses.
func (s *Server) requireToken(w http.ResponseWriter, r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if !strings.HasPrefix(auth, "Bearer ") || token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return false
	}
	if s.Token != "" && token != s.Token {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return false
	}
	return true
}

func (s *Server) acknowledgeCommand(w http.ResponseWriter, r *http.Request, device, command, verb string) {
	id, err := strconv.Atoi(device)
	if err != nil {
		writeError(w, http.StatusBadRequest, "device id must be numeric")
		return
	}

	var params map[string]any
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON object")
		return
	}

	writeJSON(w, http.StatusOK, CommandResponse{
		Status:  "OK",
		Message: fmt.Sprintf("device %d %s", id, verb),
		Device:  id,
		Command: command,
		Params:  params,
	})
}

func (s *Server) serveObjects(w http.ResponseWriter, rest []string) {
	switch len(rest) {
	case 1:
		writeJSON(w, http.StatusOK, objectNames)
	case 2:
		instances, ok := objectInstances[rest[1]]
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown object %s", rest[1]))
			return
		}
		writeJSON(w, http.StatusOK, instances)
	case 3:
		writeJSON(w, http.StatusOK, map[string]string{
			"device_id": rest[0],
			"name":      rest[1],
			"object_id": rest[2],
		})
	default:
		writeError(w, http.StatusNotFound, "no such object path")
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	_ = r.Body.Close()

	telemetry.CounterGlobal("msax_sim_status_checks", 1, map[string]string{
		"component": "sim",
		"endpoint":  "status",
	})
	writeJSON(w, http.StatusOK, StatusResponse{Time: time.Now(), Host: r.Host, Version: s.Version})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r.Body.Close()

	status, checks := s.health.Run()
	code := http.StatusOK
	if status != telemetry.HealthHealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.Version,
		"checks":  checks,
	})
}

// handleMetrics exposes buffered collector metrics as a plain text listing.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	_ = r.Body.Close()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	for _, m := range telemetry.GetGlobal().GetMetrics() {
		if len(m.Labels) == 0 {
			fmt.Fprintf(w, "%s %v\n", m.Name, m.Value)
			continue
		}
		pairs := make([]string, 0, len(m.Labels))
		for k, v := range m.Labels {
			pairs = append(pairs, fmt.Sprintf("%s=%q", k, v))
		}
		sort.Strings(pairs)
		fmt.Fprintf(w, "%s{%s} %v\n", m.Name, strings.Join(pairs, ","), m.Value)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the {"message": ...} body the real API uses.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIError{Message: message})
}

// Handler returns the configured route set, for embedding in tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.routes(mux)
	return mux
}

// ListenAndServe starts the simulator.
func (s *Server) ListenAndServe(addr string) error {
	s.srv = &http.Server{Addr: addr, Handler: s.Handler()}
	return s.srv.ListenAndServe()
}

// Shutdown stops the simulator.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return fmt.Errorf("server not running")
	}
	return s.srv.Shutdown(ctx)
}
