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

// GenericConfig points at the generic text-to-speech endpoint used for
// Latin-script segments. The contract is text in, audio bytes out,
// synchronous.
type GenericConfig struct {
	URL      string
	Language string
	Timeout  int
}

func (c GenericConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("generic TTS URL is not set")
	}
	return nil
}

// GenericClient is the Latin-script synthesis backend.
type GenericClient struct {
	config     GenericConfig
	httpClient *http.Client
}

func NewGenericClient(config GenericConfig) (*GenericClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30
	}
	lang := config.Language
	if lang == "" {
		lang = "en"
	}
	config.Language = lang
	return &GenericClient{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
	}, nil
}

type genericSynthesizeRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

func (c *GenericClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(genericSynthesizeRequest{Text: text, Lang: c.config.Language})
	if err != nil {
		return nil, fmt.Errorf("marshal TTS request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create TTS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("TTS request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generic TTS failed with status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read TTS response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("generic TTS returned an empty body")
	}
	return audio, nil
}
