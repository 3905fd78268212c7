package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHakkaTestServer(t *testing.T, synthStatus int, audio []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/login", func(w http.ResponseWriter, r *http.Request) {
		var req hakkaLoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Username != "user" || req.Password != "pass" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "abc123"})
	})
	mux.HandleFunc("/api/v1/tts/synthesize", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc123", r.Header.Get("Authorization"))
		var req hakkaSynthesizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "common", req.Input.Type)
		assert.Equal(t, "hak-xi-TW", req.Voice.LanguageCode)
		assert.Equal(t, "hak-xi-TW-vs2-F01", req.Voice.Name)
		w.WriteHeader(synthStatus)
		if synthStatus == http.StatusOK {
			_, _ = w.Write(audio)
		}
	})
	return httptest.NewServer(mux)
}

func TestHakkaClient_Synthesize(t *testing.T) {
	srv := newHakkaTestServer(t, http.StatusOK, []byte("RIFFwavdata"))
	defer srv.Close()

	client, err := NewHakkaClient(HakkaConfig{
		BaseURL:  srv.URL,
		TTSURL:   srv.URL,
		Username: "user",
		Password: "pass",
	})
	require.NoError(t, err)

	audio, err := client.Synthesize(context.Background(), "恁早")
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFFwavdata"), audio)
}

func TestHakkaClient_SynthesizeNon200Fails(t *testing.T) {
	srv := newHakkaTestServer(t, http.StatusBadGateway, nil)
	defer srv.Close()

	client, err := NewHakkaClient(HakkaConfig{
		BaseURL:  srv.URL,
		TTSURL:   srv.URL,
		Username: "user",
		Password: "pass",
	})
	require.NoError(t, err)

	_, err = client.Synthesize(context.Background(), "恁早")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHakkaClient_MissingCredentialsFailFast(t *testing.T) {
	_, err := NewHakkaClient(HakkaConfig{BaseURL: "http://x", TTSURL: "http://y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials")
}

func TestHakkaClient_LoginWithoutTokenFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := NewHakkaClient(HakkaConfig{
		BaseURL:  srv.URL,
		TTSURL:   srv.URL,
		Username: "user",
		Password: "pass",
	})
	require.NoError(t, err)

	_, err = client.Synthesize(context.Background(), "恁早")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no token")
}

func TestGenericClient_Synthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req genericSynthesizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "en", req.Lang)
		_, _ = w.Write([]byte("RIFFenglish"))
	}))
	defer srv.Close()

	client, err := NewGenericClient(GenericConfig{URL: srv.URL})
	require.NoError(t, err)

	audio, err := client.Synthesize(context.Background(), "good morning")
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFFenglish"), audio)
}

func TestGenericClient_MissingURLFailFast(t *testing.T) {
	_, err := NewGenericClient(GenericConfig{})
	assert.Error(t, err)
}
