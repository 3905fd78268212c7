package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_EmptyInput(t *testing.T) {
	assert.Empty(t, Split(""))
}

func TestSplit_PureLatinIsSingleSegment(t *testing.T) {
	for _, text := range []string{
		"hello",
		"Hello world",
		"The quick brown fox, jumps over 3 dogs!",
	} {
		got := Split(text)
		require.Len(t, got, 1, "input %q", text)
		assert.Equal(t, text, got[0].Text)
		assert.Equal(t, Latin, got[0].Class)
		assert.Equal(t, 0, got[0].Index)
	}
}

func TestSplit_PureHanIsSingleSegment(t *testing.T) {
	got := Split("今天天氣真好，大家都出門了。")
	require.Len(t, got, 1)
	assert.Equal(t, Other, got[0].Class)
}

func TestSplit_MixedScriptsCutAtClassBoundaries(t *testing.T) {
	got := Split("行政院今天宣布AI政策，相關單位like Google將配合。")
	require.Len(t, got, 5)
	assert.Equal(t, "行政院今天宣布", got[0].Text)
	assert.Equal(t, Other, got[0].Class)
	assert.Equal(t, "AI", got[1].Text)
	assert.Equal(t, Latin, got[1].Class)
	assert.Equal(t, "政策，相關單位", got[2].Text)
	assert.Equal(t, Other, got[2].Class)
	assert.Equal(t, "like Google", got[3].Text)
	assert.Equal(t, Latin, got[3].Class)
	assert.Equal(t, "將配合。", got[4].Text)
	assert.Equal(t, Other, got[4].Class)
}

func TestSplit_NeutralsStickToTheOpenRun(t *testing.T) {
	// Punctuation and digits after the Latin run stay with it.
	got := Split("排名第1的是BTS (2013年出道)的歌")
	for i := 1; i < len(got); i++ {
		assert.NotEqual(t, got[i-1].Class, got[i].Class, "adjacent runs must alternate class")
	}
	joined := strings.Join(segmentTexts(got), "")
	assert.Equal(t, "排名第1的是BTS (2013年出道)的歌", joined)
}

func TestSplit_LosslessWhenNoBlankRuns(t *testing.T) {
	inputs := []string{
		"客家電視台HakkaTV今天開播",
		"today是個好日子123",
		"ＮＢＡ球星來台，粉絲很興奮",
	}
	for _, text := range inputs {
		got := Split(text)
		assert.Equal(t, text, strings.Join(segmentTexts(got), ""), "input %q", text)
	}
}

func TestSplit_IndexFollowsOriginalOrder(t *testing.T) {
	got := Split("新聞News快報Flash結束")
	for i, seg := range got {
		assert.Equal(t, i, seg.Index)
	}
}

func TestSplit_WhitespaceOnlyFilteredToEmpty(t *testing.T) {
	assert.Empty(t, Split("   "))
	assert.Empty(t, Split("\t \n"))
}

func TestSplit_PunctuationOnlySurvivesAsOther(t *testing.T) {
	got := Split("，。！")
	require.Len(t, got, 1)
	assert.Equal(t, Other, got[0].Class)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Latin, Classify("abc"))
	assert.Equal(t, Latin, Classify("３Ｃ產品Ａ")) // fullwidth letter counts
	assert.Equal(t, Other, Classify("你好，世界。"))
	assert.Equal(t, Other, Classify("123，。"))
}

func segmentTexts(segments []Segment) []string {
	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		texts = append(texts, seg.Text)
	}
	return texts
}
