package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService stands in for the remote translation service. translateFn
// decides each call's response from the submitted input text.
type fakeService struct {
	mu          sync.Mutex
	calls       map[string]int
	translateFn func(input string, attempt int) (int, string)
}

func newFakeService(fn func(input string, attempt int) (int, string)) *fakeService {
	return &fakeService{calls: map[string]int{}, translateFn: fn}
}

func (f *fakeService) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user", req["username"])
		assert.EqualValues(t, 0, req["rememberMe"])
		fmt.Fprint(w, `{"token":"tok-123"}`)
	})
	mux.HandleFunc("/translate", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		var req struct {
			Input string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		f.mu.Lock()
		f.calls[req.Input]++
		attempt := f.calls[req.Input]
		f.mu.Unlock()

		status, body := f.translateFn(req.Input, attempt)
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server, outputDir string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		LoginURL:     srv.URL + "/login",
		TranslateURL: srv.URL + "/translate",
		Username:     "user",
		Password:     "pass",
		OutputDir:    outputDir,
	})
	require.NoError(t, err)
	c.retryDelay = time.Millisecond
	return c
}

func TestNewClient_MissingCredentials(t *testing.T) {
	_, err := NewClient(Config{LoginURL: "http://x", Username: "u"})
	require.Error(t, err)
}

func TestClient_Translate_FieldFallback(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"output field", `{"output":"客語結果"}`, "客語結果"},
		{"result field", `{"result":"第二種"}`, "第二種"},
		{"translation field", `{"translation":"第三種"}`, "第三種"},
		{"unknown shape", `{"weird":42}`, `{"weird":42}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newFakeService(func(string, int) (int, string) {
				return http.StatusOK, tc.body
			})
			c := newTestClient(t, svc.server(t), "")

			res, err := c.Translate(context.Background(), "你好", "0")
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Text)
		})
	}
}

func TestClient_Translate_PersistsRawResponse(t *testing.T) {
	svc := newFakeService(func(string, int) (int, string) {
		return http.StatusOK, `{"output":"結果"}`
	})
	dir := t.TempDir()
	c := newTestClient(t, svc.server(t), dir)

	res, err := c.Translate(context.Background(), "你好", "5")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "translation_5.json"), res.FilePath)
	require.FileExists(t, res.FilePath)
}

func TestClient_Translate_ServerError(t *testing.T) {
	svc := newFakeService(func(string, int) (int, string) {
		return http.StatusBadGateway, "boom"
	})
	c := newTestClient(t, svc.server(t), "")

	_, err := c.Translate(context.Background(), "你好", "0")
	require.Error(t, err)
}

func TestTranslateBatch_RetriesTransientFailure(t *testing.T) {
	svc := newFakeService(func(input string, attempt int) (int, string) {
		if input == "b" && attempt < 3 {
			return http.StatusInternalServerError, "flaky"
		}
		return http.StatusOK, fmt.Sprintf(`{"output":"譯-%s"}`, input)
	})
	c := newTestClient(t, svc.server(t), "")

	result := c.TranslateBatch(context.Background(), []string{"a", "b", "c"})

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Successful)
	assert.Zero(t, result.Failed)
	require.Len(t, result.Results, 3)

	b := result.Results[1]
	assert.True(t, b.Success)
	assert.Equal(t, "batch_1", b.Index)
	assert.Contains(t, string(b.Translation), "譯-b")
	assert.Equal(t, 3, svc.calls["b"])
}

func TestTranslateBatch_ExhaustedRetriesReportFailure(t *testing.T) {
	svc := newFakeService(func(input string, _ int) (int, string) {
		if input == "壞" {
			return http.StatusInternalServerError, "down"
		}
		return http.StatusOK, `{"output":"好"}`
	})
	c := newTestClient(t, svc.server(t), "")

	result := c.TranslateBatch(context.Background(), []string{"好", "壞"})
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Failed)
	assert.False(t, result.Results[1].Success)
	assert.NotEmpty(t, result.Results[1].ErrorMessage)
	assert.Equal(t, 3, svc.calls["壞"])
}

func TestTranslateMarkdown_PreservesStructure(t *testing.T) {
	svc := newFakeService(func(input string, _ int) (int, string) {
		body, _ := json.Marshal(map[string]string{"output": "譯-" + input})
		return http.StatusOK, string(body)
	})
	c := newTestClient(t, svc.server(t), "")

	doc := "# 標題\n\n內文 **重點** 收尾"
	out, err := c.TranslateMarkdown(context.Background(), doc, "course")
	require.NoError(t, err)

	assert.Equal(t, "# 譯-標題\n\n譯-內文 **重點** 收尾", out)
}

func TestTranslateMarkdown_FailedRunKeepsOriginal(t *testing.T) {
	svc := newFakeService(func(input string, _ int) (int, string) {
		if strings.Contains(input, "二") {
			return http.StatusInternalServerError, "down"
		}
		body, _ := json.Marshal(map[string]string{"output": "譯-" + input})
		return http.StatusOK, string(body)
	})
	c := newTestClient(t, svc.server(t), "")

	out, err := c.TranslateMarkdown(context.Background(), "段落一\n\n段落二", "n")
	require.NoError(t, err)
	assert.Equal(t, "譯-段落一\n\n段落二", out)
}

func TestTranslateMarkdown_EmptyDocument(t *testing.T) {
	svc := newFakeService(func(string, int) (int, string) {
		t.Error("no remote call expected for an empty document")
		return 0, ""
	})
	c := newTestClient(t, svc.server(t), "")

	out, err := c.TranslateMarkdown(context.Background(), "", "n")
	require.NoError(t, err)
	assert.Equal(t, "", out)
}
