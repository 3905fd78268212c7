// Package course turns course-generation requests into chapter payloads,
// either through an external webhook or a local fallback.
package course

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hakkalearn/hakka-news-backend/pkg/log"
)

// Request is a course-generation request from the frontend.
type Request struct {
	Topic       string `json:"topic"`
	Difficulty  string `json:"difficulty"`
	IncludeQuiz bool   `json:"includeQuiz"`
}

// The webhook speaks Chinese field names.
type webhookPayload struct {
	Topic       string `json:"主題"`
	Difficulty  string `json:"難度"`
	IncludeQuiz string `json:"練習題"`
}

var difficultyNames = map[string]string{
	"beginner":     "初級",
	"intermediate": "中級",
	"advanced":     "高級",
}

func difficultyName(difficulty string) string {
	if name, ok := difficultyNames[difficulty]; ok {
		return name
	}
	return "中級"
}

// Generator produces course chapters. A missing webhook URL, a timeout, or
// a malformed response all degrade to locally generated chapters with the
// same shape, so the frontend never sees a bare failure.
type Generator struct {
	webhookURL string
	httpClient *http.Client
}

func NewGenerator(webhookURL string, timeoutSeconds int) *Generator {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	return &Generator{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
	}
}

// Generate returns the chapter array as raw JSON, passing a valid webhook
// response through untouched.
func (g *Generator) Generate(ctx context.Context, req Request) json.RawMessage {
	if g.webhookURL == "" {
		log.Warn("No course webhook configured, serving mock chapters")
		return mockChapters(req)
	}

	raw, err := g.callWebhook(ctx, req)
	if err != nil {
		log.Warn("Course webhook call failed: %v, serving mock chapters", err)
		return mockChapters(req)
	}
	if !validChapters(raw) {
		log.Warn("Course webhook returned a malformed payload, serving mock chapters")
		return mockChapters(req)
	}
	return raw
}

func (g *Generator) callWebhook(ctx context.Context, req Request) (json.RawMessage, error) {
	quizText := "不包含練習題"
	if req.IncludeQuiz {
		quizText = "包含練習題"
	}
	body, err := json.Marshal(webhookPayload{
		Topic:       req.Topic,
		Difficulty:  difficultyName(req.Difficulty),
		IncludeQuiz: quizText,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal webhook payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create webhook request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", "CourseGenerator/1.0")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse webhook response: %w", err)
	}
	return raw, nil
}

// validChapters checks the response is an array of objects each carrying
// "text", with an optional "output" object whose optional quiz_questions
// is an array. Anything stricter would reject payloads the frontend can
// actually render.
func validChapters(raw json.RawMessage) bool {
	var items []map[string]json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return false
	}
	for _, item := range items {
		if _, ok := item["text"]; !ok {
			return false
		}
		out, ok := item["output"]
		if !ok {
			continue
		}
		var outObj map[string]json.RawMessage
		if json.Unmarshal(out, &outObj) != nil {
			return false
		}
		if qq, ok := outObj["quiz_questions"]; ok {
			var list []json.RawMessage
			if json.Unmarshal(qq, &list) != nil {
				return false
			}
		}
	}
	return true
}

type mockChapter struct {
	Text   string     `json:"text"`
	Output mockOutput `json:"output"`
}

type mockOutput struct {
	QuizQuestions []quizQuestion `json:"quiz_questions"`
}

type quizQuestion struct {
	QuestionNumber int               `json:"question_number"`
	QuestionText   string            `json:"question_text"`
	Options        map[string]string `json:"options"`
	CorrectAnswer  string            `json:"correct_answer"`
	Explanation    string            `json:"explanation"`
}

// mockChapters builds a three-chapter stand-in course around the requested
// topic, matching the webhook's shape exactly.
func mockChapters(req Request) json.RawMessage {
	topic := req.Topic
	difficulty := difficultyName(req.Difficulty)

	quiz := func(q quizQuestion) []quizQuestion {
		if !req.IncludeQuiz {
			return []quizQuestion{}
		}
		return []quizQuestion{q}
	}

	chapters := []mockChapter{
		{
			Text: fmt.Sprintf("# %s - %s課程\n\n## 課程介紹\n\n歡迎來到%s的學習課程！這是一個專為%s學習者設計的課程。\n\n在這個章節中，我們將介紹%s的基本概念和重要性。\n\n## 學習目標\n\n- 了解%s的基本概念\n- 掌握相關的核心知識\n- 能夠應用所學知識",
				topic, difficulty, topic, difficulty, topic, topic),
			Output: mockOutput{QuizQuestions: quiz(quizQuestion{
				QuestionNumber: 1,
				QuestionText:   fmt.Sprintf("什麼是%s的核心概念？", topic),
				Options: map[string]string{
					"A": "基礎理論知識",
					"B": "實踐應用技能",
					"C": "綜合理解能力",
					"D": "以上皆是",
				},
				CorrectAnswer: "D",
				Explanation:   fmt.Sprintf("%s需要理論與實踐並重，綜合發展各項能力。", topic),
			})},
		},
		{
			Text: fmt.Sprintf("# %s - 深入學習\n\n## 進階概念\n\n在上一章節中，我們學習了%s的基礎知識。現在讓我們深入探討更複雜的概念。\n\n## 重要原理\n\n%s包含許多重要的原理和方法，這些都是我們需要深入理解的內容。\n\n## 實際應用\n\n理論知識需要與實際應用相結合，才能真正掌握%s的精髓。",
				topic, topic, topic, topic),
			Output: mockOutput{QuizQuestions: quiz(quizQuestion{
				QuestionNumber: 1,
				QuestionText:   fmt.Sprintf("在%s的學習過程中，最重要的是什麼？", topic),
				Options: map[string]string{
					"A": "理論學習",
					"B": "實踐練習",
					"C": "理論與實踐結合",
					"D": "記憶背誦",
				},
				CorrectAnswer: "C",
				Explanation:   "學習任何知識都需要理論與實踐相結合，這樣才能真正掌握和應用。",
			})},
		},
		{
			Text: fmt.Sprintf("# %s - 總結與展望\n\n## 課程總結\n\n通過本課程的學習，我們已經掌握了%s的核心知識和技能。\n\n## 學習成果\n\n- 建立了扎實的理論基礎\n- 培養了實踐應用能力\n- 具備了持續學習的方法\n\n## 未來發展\n\n%s是一個不斷發展的領域，希望大家能夠持續學習，跟上時代的步伐。\n\n## 結語\n\n學習是一個持續的過程，希望大家能夠將所學知識應用到實際生活和工作中。",
				topic, topic, topic),
			Output: mockOutput{QuizQuestions: quiz(quizQuestion{
				QuestionNumber: 1,
				QuestionText:   fmt.Sprintf("完成%s課程後，下一步應該怎麼做？", topic),
				Options: map[string]string{
					"A": "停止學習",
					"B": "持續實踐和深化",
					"C": "重新開始",
					"D": "轉向其他領域",
				},
				CorrectAnswer: "B",
				Explanation:   "學習是持續的過程，完成課程後應該繼續實踐和深化所學知識。",
			})},
		},
	}

	raw, err := json.Marshal(chapters)
	if err != nil {
		log.Error("Failed to marshal mock chapters: %v", err)
		return json.RawMessage("[]")
	}
	return raw
}
