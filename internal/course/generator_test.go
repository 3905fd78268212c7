package course

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeChapters(t *testing.T, raw json.RawMessage) []map[string]any {
	t.Helper()
	var chapters []map[string]any
	require.NoError(t, json.Unmarshal(raw, &chapters))
	return chapters
}

func TestGenerate_NoWebhookServesMock(t *testing.T) {
	g := NewGenerator("", 0)

	raw := g.Generate(context.Background(), Request{
		Topic:       "客家諺語",
		Difficulty:  "beginner",
		IncludeQuiz: true,
	})

	chapters := decodeChapters(t, raw)
	require.Len(t, chapters, 3)
	assert.Contains(t, chapters[0]["text"], "客家諺語")
	assert.Contains(t, chapters[0]["text"], "初級")

	output, ok := chapters[0]["output"].(map[string]any)
	require.True(t, ok)
	quiz, ok := output["quiz_questions"].([]any)
	require.True(t, ok)
	assert.Len(t, quiz, 1)
}

func TestGenerate_MockWithoutQuiz(t *testing.T) {
	g := NewGenerator("", 0)

	raw := g.Generate(context.Background(), Request{Topic: "美食", Difficulty: "advanced"})
	chapters := decodeChapters(t, raw)
	for _, chapter := range chapters {
		output := chapter["output"].(map[string]any)
		assert.Empty(t, output["quiz_questions"])
	}
}

func TestGenerate_WebhookPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "客家山歌", payload["主題"])
		assert.Equal(t, "中級", payload["難度"])
		assert.Equal(t, "包含練習題", payload["練習題"])

		fmt.Fprint(w, `[{"text":"# 章節","output":{"quiz_questions":[]}}]`)
	}))
	t.Cleanup(srv.Close)

	g := NewGenerator(srv.URL, 5)
	raw := g.Generate(context.Background(), Request{
		Topic:       "客家山歌",
		Difficulty:  "intermediate",
		IncludeQuiz: true,
	})

	chapters := decodeChapters(t, raw)
	require.Len(t, chapters, 1)
	assert.Equal(t, "# 章節", chapters[0]["text"])
}

func TestGenerate_MalformedWebhookFallsBack(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not an array", `{"text":"x"}`},
		{"item missing text", `[{"output":{}}]`},
		{"output not an object", `[{"text":"x","output":"nope"}]`},
		{"quiz not an array", `[{"text":"x","output":{"quiz_questions":1}}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, tc.body)
			}))
			t.Cleanup(srv.Close)

			g := NewGenerator(srv.URL, 5)
			raw := g.Generate(context.Background(), Request{Topic: "topic", Difficulty: "beginner"})

			chapters := decodeChapters(t, raw)
			assert.Len(t, chapters, 3, "malformed payload must fall back to mock chapters")
		})
	}
}

func TestGenerate_WebhookErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	g := NewGenerator(srv.URL, 5)
	raw := g.Generate(context.Background(), Request{Topic: "topic"})
	assert.Len(t, decodeChapters(t, raw), 3)
}

func TestGenerate_UnknownDifficultyDefaultsToIntermediate(t *testing.T) {
	g := NewGenerator("", 0)
	raw := g.Generate(context.Background(), Request{Topic: "主題", Difficulty: "expert"})
	chapters := decodeChapters(t, raw)
	assert.Contains(t, chapters[0]["text"], "中級")
}
