package subtitle

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// WriteJSON persists blocks as the sidecar consumed by the front-end
// player: a JSON array of {index, start, end, text}.
func WriteJSON(path string, blocks []Block) error {
	if blocks == nil {
		blocks = []Block{}
	}
	data, err := json.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("marshal subtitle blocks: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write subtitle sidecar: %w", err)
	}
	return nil
}

// ReadJSON loads a sidecar written by WriteJSON.
func ReadJSON(path string) ([]Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subtitle sidecar: %w", err)
	}
	var blocks []Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("parse subtitle sidecar: %w", err)
	}
	return blocks, nil
}

// WriteSRT emits blocks in literal SubRip format.
func WriteSRT(path string, blocks []Block) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create srt file: %w", err)
	}
	defer f.Close()

	writer := bufio.NewWriter(f)
	defer writer.Flush()

	for _, block := range blocks {
		fmt.Fprintf(writer, "%d\n", block.Index)
		fmt.Fprintf(writer, "%s --> %s\n", formatTimestamp(block.Start), formatTimestamp(block.End))
		fmt.Fprintf(writer, "%s\n\n", block.Text)
	}
	return nil
}

// formatTimestamp renders milliseconds as the SRT HH:MM:SS,mmm form.
func formatTimestamp(ms int) string {
	d := time.Duration(ms) * time.Millisecond
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, milliseconds)
}
