package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hakkalearn/hakka-news-backend/pkg/log"
)

const (
	batchMaxAttempts = 3
)

// BatchItem is one text's outcome inside a batch.
type BatchItem struct {
	Success      bool            `json:"success"`
	OriginalText string          `json:"original_text"`
	Translation  json.RawMessage `json:"translation_result,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Index        string          `json:"index"`
}

// BatchResult tallies a whole batch. Items appear in input order.
type BatchResult struct {
	Total      int         `json:"total"`
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
	Results    []BatchItem `json:"results"`
}

// TranslateBatch translates each text independently. A failing item is
// retried up to three attempts with a fixed pause between them; one item's
// exhaustion never aborts its siblings.
func (c *Client) TranslateBatch(ctx context.Context, texts []string) BatchResult {
	result := BatchResult{
		Total:   len(texts),
		Results: make([]BatchItem, 0, len(texts)),
	}

	for i, text := range texts {
		index := fmt.Sprintf("batch_%d", i)
		item := c.translateWithRetry(ctx, text, index)
		if item.Success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.Results = append(result.Results, item)
	}

	log.Info("Batch translation finished: %d/%d succeeded", result.Successful, result.Total)
	return result
}

func (c *Client) translateWithRetry(ctx context.Context, text, index string) BatchItem {
	var lastErr error
	for attempt := 1; attempt <= batchMaxAttempts; attempt++ {
		translated, err := c.Translate(ctx, text, index)
		if err == nil {
			return BatchItem{
				Success:      true,
				OriginalText: text,
				Translation:  translated.Raw,
				Index:        index,
			}
		}
		lastErr = err
		if attempt < batchMaxAttempts {
			log.Warn("Retrying translation %s (attempt %d): %v", index, attempt, err)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return BatchItem{
					Success:      false,
					OriginalText: text,
					ErrorMessage: ctx.Err().Error(),
					Index:        index,
				}
			}
		}
	}
	return BatchItem{
		Success:      false,
		OriginalText: text,
		ErrorMessage: lastErr.Error(),
		Index:        index,
	}
}
