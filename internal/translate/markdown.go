package translate

import (
	"context"
	"fmt"

	"github.com/hakkalearn/hakka-news-backend/internal/markdown"
	"github.com/hakkalearn/hakka-news-backend/pkg/log"
)

// TranslateMarkdown translates a Markdown document while preserving its
// structure. Runs are extracted, each run's formatting is shielded, the
// shielded text goes through the remote service, and the restored result
// is slotted back into the template. A run whose translation fails keeps
// its original text so the document always comes back whole.
func (c *Client) TranslateMarkdown(ctx context.Context, doc, index string) (string, error) {
	runs, template := markdown.Extract(doc)
	if len(runs) == 0 {
		return doc, nil
	}

	failures := 0
	for i, run := range runs {
		protector := markdown.NewProtector()
		shielded := protector.Protect(run.Text)

		translated, err := c.Translate(ctx, shielded, fmt.Sprintf("%s_r%d", index, run.ID))
		if err != nil {
			log.Warn("Markdown run %d failed to translate, keeping original: %v", run.ID, err)
			failures++
			continue
		}
		runs[i].Text = protector.Restore(translated.Text)
	}

	if failures == len(runs) {
		return doc, fmt.Errorf("all %d markdown runs failed to translate", len(runs))
	}
	return markdown.Reconstruct(template, runs), nil
}
