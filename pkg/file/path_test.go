package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeBaseName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "strips path chars", input: `快訊/總統:「AI?」*元年`, want: "快訊總統「AI」元年"},
		{name: "plain title untouched", input: "台灣新聞", want: "台灣新聞"},
		{name: "empty", input: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeBaseName(tt.input, 50))
		})
	}
}

func TestSafeBaseName_Truncates(t *testing.T) {
	got := SafeBaseName("一二三四五六七八九十", 5)
	assert.Equal(t, "一二三四五", got)
}

func TestSafeSlug(t *testing.T) {
	assert.Equal(t, "hello_world", SafeSlug("  hello,  world!  ", 30))
	assert.Equal(t, "恁仔細", SafeSlug("恁仔細。", 30))
	assert.Equal(t, "a_b", SafeSlug("a b c", 3))
}

func TestClearFolder(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "a.wav"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "keepdir"), 0o755))

	require.NoError(t, ClearFolder(tmp))

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsDir())
}

func TestClearFolder_MissingDirIsNoop(t *testing.T) {
	assert.NoError(t, ClearFolder(filepath.Join(t.TempDir(), "nope")))
}

func TestRemoveOlderThan(t *testing.T) {
	tmp := t.TempDir()
	oldFile := filepath.Join(tmp, "old.wav")
	newFile := filepath.Join(tmp, "new.wav")
	require.NoError(t, os.WriteFile(oldFile, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(newFile, []byte("x"), 0o644))

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(oldFile, past, past))

	removed, err := RemoveOlderThan(tmp, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, err = os.Stat(newFile)
	assert.NoError(t, err)
}
