package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fixed voice parameters for the Hakka synthesis endpoint (四縣腔 female
// voice, normal speaking rate).
const (
	hakkaLanguageCode = "hak-xi-TW"
	hakkaVoiceName    = "hak-xi-TW-vs2-F01"
	hakkaSpeakingRate = 1
	hakkaInputType    = "common"
)

// HakkaConfig carries the credentials and endpoints for the remote Hakka
// TTS service.
type HakkaConfig struct {
	BaseURL  string
	TTSURL   string
	Username string
	Password string
	Timeout  int
}

// Validate fails fast when any credential is missing, before a single
// network call is attempted.
func (c HakkaConfig) Validate() error {
	if c.BaseURL == "" || c.TTSURL == "" || c.Username == "" || c.Password == "" {
		return fmt.Errorf("hakka TTS credentials are not set")
	}
	return nil
}

// HakkaClient speaks the remote Hakka TTS protocol: a login exchanging
// username/password for a bearer token, then a synthesize call returning
// raw audio bytes.
type HakkaClient struct {
	config     HakkaConfig
	httpClient *http.Client
}

func NewHakkaClient(config HakkaConfig) (*HakkaClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30
	}
	return &HakkaClient{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
	}, nil
}

type hakkaLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type hakkaLoginResponse struct {
	Token string `json:"token"`
}

type hakkaSynthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
		Type string `json:"type"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		SpeakingRate int `json:"speakingRate"`
	} `json:"audioConfig"`
}

// Synthesize logs in, posts text to the synthesize endpoint, and returns
// the raw audio bytes on a 200 response.
func (c *HakkaClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	token, err := c.login(ctx)
	if err != nil {
		return nil, fmt.Errorf("hakka TTS login: %w", err)
	}

	payload := hakkaSynthesizeRequest{}
	payload.Input.Text = text
	payload.Input.Type = hakkaInputType
	payload.Voice.LanguageCode = hakkaLanguageCode
	payload.Voice.Name = hakkaVoiceName
	payload.AudioConfig.SpeakingRate = hakkaSpeakingRate

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal synthesize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.TTSURL+"/api/v1/tts/synthesize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create synthesize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesize request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hakka TTS failed with status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesize response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("hakka TTS returned an empty body")
	}
	return audio, nil
}

func (c *HakkaClient) login(ctx context.Context) (string, error) {
	body, err := json.Marshal(hakkaLoginRequest{
		Username: c.config.Username,
		Password: c.config.Password,
	})
	if err != nil {
		return "", fmt.Errorf("marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/api/v1/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var loginResp hakkaLoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", fmt.Errorf("parse login response: %w", err)
	}
	if loginResp.Token == "" {
		return "", fmt.Errorf("login succeeded but no token was returned")
	}
	return "Bearer " + loginResp.Token, nil
}
