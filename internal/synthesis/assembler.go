package synthesis

import (
	"fmt"
	"os"

	"github.com/hakkalearn/hakka-news-backend/internal/audio"
	"github.com/hakkalearn/hakka-news-backend/internal/subtitle"
	"github.com/hakkalearn/hakka-news-backend/pkg/log"
)

// PauseMS is the fixed silence appended after every paragraph. It is part
// of the subtitle timing contract, not a tunable.
const PauseMS = 500

// Assemble concatenates per-segment artifacts paragraph by paragraph and
// derives one subtitle block per paragraph. Segments whose artifact is
// missing, empty, or unreadable contribute nothing (silence by omission).
// Block start/end are measured before the inter-paragraph pause; the pause
// only advances the cursor.
func Assemble(paragraphs []string, segmentPaths [][]string) (*audio.Clip, []subtitle.Block, error) {
	if len(paragraphs) != len(segmentPaths) {
		return nil, nil, fmt.Errorf("paragraph/path count mismatch: %d vs %d", len(paragraphs), len(segmentPaths))
	}

	final := audio.Empty()
	blocks := make([]subtitle.Block, 0, len(paragraphs))
	cursor := 0

	for idx, text := range paragraphs {
		paraClip := audio.Empty()
		for _, path := range segmentPaths[idx] {
			if path == "" {
				continue
			}
			info, err := os.Stat(path)
			if err != nil || info.Size() == 0 {
				log.Warn("Missing or empty segment artifact, skipping: %s", path)
				continue
			}
			clip, err := audio.ReadClip(path)
			if err != nil {
				log.Error("Failed to merge segment %s: %v", path, err)
				continue
			}
			paraClip.Append(clip)
		}

		start := cursor
		end := cursor + paraClip.DurationMS()
		blocks = append(blocks, subtitle.Block{
			Index: idx + 1,
			Start: start,
			End:   end,
			Text:  text,
		})

		final.Append(paraClip)
		final.Append(audio.Silence(PauseMS, final.SampleRate, final.Channels))
		cursor = end + PauseMS
	}

	return final, blocks, nil
}
