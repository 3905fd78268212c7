// Package translate talks to the remote Hakka translation service and
// layers Markdown-aware handling and batch retries on top of it.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hakkalearn/hakka-news-backend/pkg/log"
)

// Config carries the translation service endpoints and credentials. Unlike
// the TTS service, both URLs are complete endpoints rather than bases.
type Config struct {
	LoginURL     string
	TranslateURL string
	Username     string
	Password     string
	Timeout      int
	// OutputDir receives one raw response file per translation, named by
	// the caller-supplied index.
	OutputDir string
}

// Validate fails fast when any credential is missing, before a single
// network call is attempted.
func (c Config) Validate() error {
	if c.LoginURL == "" || c.TranslateURL == "" || c.Username == "" || c.Password == "" {
		return fmt.Errorf("translation service credentials are not set")
	}
	return nil
}

// Client speaks the remote translation protocol: a login exchanging
// username/password for a bearer token, then a translate call per text.
type Client struct {
	config     Config
	httpClient *http.Client
	// retryDelay is the pause between batch attempts. Tests shrink it.
	retryDelay time.Duration
}

func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		retryDelay: time.Second,
	}, nil
}

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe int    `json:"rememberMe"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type translateRequest struct {
	Input string `json:"input"`
}

// Result is one completed translation. Raw preserves the service response
// verbatim; Text is the extracted translated string.
type Result struct {
	Text     string
	Raw      json.RawMessage
	FilePath string
}

// Translate logs in, posts text to the translate endpoint, extracts the
// translated string, and persists the raw response under OutputDir as
// translation_{index}.json.
func (c *Client) Translate(ctx context.Context, text, index string) (Result, error) {
	token, err := c.login(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("translation login: %w", err)
	}

	body, err := json.Marshal(translateRequest{Input: text})
	if err != nil {
		return Result{}, fmt.Errorf("marshal translate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.TranslateURL, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("translate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("translation failed with status %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Result{}, fmt.Errorf("parse translate response: %w", err)
	}

	result := Result{
		Text: extractTranslation(raw),
		Raw:  raw,
	}
	if c.config.OutputDir != "" {
		path, err := c.persistResponse(raw, index)
		if err != nil {
			log.Warn("Failed to persist translation %s: %v", index, err)
		} else {
			result.FilePath = path
		}
	}
	return result, nil
}

// extractTranslation pulls the translated string out of a response whose
// shape is not firmly specified upstream. Known field names are tried in
// order; an unrecognized shape falls back to the stringified body.
func extractTranslation(raw json.RawMessage) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err == nil {
		for _, name := range []string{"output", "result", "translation"} {
			var s string
			if v, ok := fields[name]; ok && json.Unmarshal(v, &s) == nil && s != "" {
				return s
			}
		}
	}
	return string(raw)
}

func (c *Client) persistResponse(raw json.RawMessage, index string) (string, error) {
	if err := os.MkdirAll(c.config.OutputDir, 0o755); err != nil {
		return "", err
	}
	pretty, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(c.config.OutputDir, fmt.Sprintf("translation_%s.json", index))
	if err := os.WriteFile(path, pretty, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (c *Client) login(ctx context.Context) (string, error) {
	body, err := json.Marshal(loginRequest{
		Username:   c.config.Username,
		Password:   c.config.Password,
		RememberMe: 0,
	})
	if err != nil {
		return "", fmt.Errorf("marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.LoginURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var loginResp loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", fmt.Errorf("parse login response: %w", err)
	}
	if loginResp.Token == "" {
		return "", fmt.Errorf("login succeeded but no token was returned")
	}
	return "Bearer " + loginResp.Token, nil
}
