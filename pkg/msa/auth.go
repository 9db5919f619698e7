package msa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// loginTimeout bounds the credential exchange.
const loginTimeout = 60 * time.Second

// Login exchanges credentials for a bearer token. Orchestrated tasks already
// receive TOKEN in their context; Login serves tools and development against
// a simulator.
func Login(ctx context.Context, host, port, username, password string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("http://%s:%s%s/auth/token", host, port, basePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("login: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var remote struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &remote); err == nil && remote.Message != "" {
			return "", fmt.Errorf("login: %s", remote.Message)
		}
		return "", fmt.Errorf("login: status %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("login: decode response: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("login: response carries no token")
	}
	return out.Token, nil
}
