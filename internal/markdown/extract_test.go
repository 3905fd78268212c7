package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = "# 客語學習\n" +
	"\n" +
	"介紹段落，說明 `code_span` 用法。\n" +
	"\n" +
	"- 第一項\n" +
	"- 第二項 **重點**\n" +
	"1. 有序項目\n" +
	"\n" +
	"> 引用文字\n" +
	"\n" +
	"```go\n" +
	"x := total_count + 1\n" +
	"```\n" +
	"\n" +
	"| 欄位 | 說明 |\n" +
	"|------|------|\n" +
	"\n" +
	"    縮排的結尾段落。"

func TestExtract_RoundTripIdentity(t *testing.T) {
	runs, template := Extract(sampleDoc)
	require.NotEmpty(t, runs)
	assert.Equal(t, sampleDoc, Reconstruct(template, runs))
}

func TestExtract_RunContents(t *testing.T) {
	runs, template := Extract(sampleDoc)

	texts := make([]string, len(runs))
	for i, run := range runs {
		require.Equal(t, i, run.ID, "ids must increase from zero")
		texts[i] = run.Text
	}
	assert.Contains(t, texts, "客語學習")
	assert.Contains(t, texts, "第一項")
	assert.Contains(t, texts, "第二項 **重點**")
	assert.Contains(t, texts, "有序項目")
	assert.Contains(t, texts, "引用文字")
	assert.Contains(t, texts, "介紹段落，說明 `code_span` 用法。")
	assert.Contains(t, texts, "縮排的結尾段落。")

	// Structure survives in the template, content does not.
	assert.Contains(t, template, "# {{MDSEG_")
	assert.Contains(t, template, "    {{MDSEG_")
	assert.NotContains(t, template, "客語學習")
}

func TestExtract_IdsFollowDocumentOrder(t *testing.T) {
	runs, _ := Extract(sampleDoc)

	texts := make([]string, len(runs))
	for i, run := range runs {
		texts[i] = run.Text
	}
	// Iterating the slice reads the document top to bottom.
	assert.Equal(t, []string{
		"客語學習",
		"介紹段落，說明 `code_span` 用法。",
		"第一項",
		"第二項 **重點**",
		"有序項目",
		"引用文字",
		"縮排的結尾段落。",
	}, texts)
}

func TestExtract_CodeNeverBecomesARun(t *testing.T) {
	runs, template := Extract(sampleDoc)

	for _, run := range runs {
		assert.NotContains(t, run.Text, "total_count")
	}
	// The fenced block is back in the template byte for byte.
	assert.Contains(t, template, "```go\nx := total_count + 1\n```")
}

func TestExtract_TableAndRuleLinesUntouched(t *testing.T) {
	doc := "| a | b |\n---\n普通句子"
	runs, template := Extract(doc)
	require.Len(t, runs, 1)
	assert.Equal(t, "普通句子", runs[0].Text)
	assert.True(t, strings.HasPrefix(template, "| a | b |\n---\n"))
}

func TestExtract_UnclosedFenceRunsToEOF(t *testing.T) {
	doc := "開頭\n```\nnever closed\n還在程式碼裡"
	runs, template := Extract(doc)
	require.Len(t, runs, 1)
	assert.Equal(t, "開頭", runs[0].Text)
	assert.Contains(t, template, "never closed\n還在程式碼裡")
}

func TestReconstruct_MatchesByID(t *testing.T) {
	runs, template := Extract("# 一\n\n二\n\n三")
	require.Len(t, runs, 3)

	// A caller shuffled the slice; IDs still route each run home.
	shuffled := []Run{runs[2], runs[0], runs[1]}
	assert.Equal(t, "# 一\n\n二\n\n三", Reconstruct(template, shuffled))
}

func TestExtract_EmptyDocument(t *testing.T) {
	runs, template := Extract("")
	assert.Empty(t, runs)
	assert.Equal(t, "", template)
}
