package synthesis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	"github.com/hakkalearn/hakka-news-backend/internal/audio"
	"github.com/hakkalearn/hakka-news-backend/internal/segment"
	"github.com/hakkalearn/hakka-news-backend/internal/subtitle"
	"github.com/hakkalearn/hakka-news-backend/pkg/file"
	"github.com/hakkalearn/hakka-news-backend/pkg/log"
)

// Status values returned by Generate.
const (
	// StatusDone means the audio was synthesized and assembled this call.
	StatusDone = "done"
	// StatusMemory means a previously assembled artifact pair was reused
	// without touching any backend.
	StatusMemory = "memory"
)

const baseNameMaxLen = 50

// Result is the outcome of one full audio generation.
type Result struct {
	Status      string
	AudioPath   string
	SidecarPath string
	Blocks      []subtitle.Block
	// FailedSegments / TotalSegments is the batch tally. Zero totals mean
	// the memory short-circuit was taken.
	FailedSegments int
	TotalSegments  int
}

// Pipeline runs the whole split → dispatch → assemble chain for a news
// item. Concurrent calls for the same output artifact collapse into one
// generation via singleflight.
type Pipeline struct {
	dispatcher *Dispatcher
	outputDir  string
	group      singleflight.Group
}

func NewPipeline(dispatcher *Dispatcher, outputDir string) *Pipeline {
	return &Pipeline{
		dispatcher: dispatcher,
		outputDir:  outputDir,
	}
}

// Generate produces the final audio artifact and subtitle sidecar for the
// given paragraphs. The first paragraph (the news title) names the output
// files; when both already exist the stored pair is returned directly with
// StatusMemory, the top-level short-circuit above per-segment caching.
func (p *Pipeline) Generate(ctx context.Context, paragraphs []string) (Result, error) {
	if len(paragraphs) == 0 {
		return Result{}, fmt.Errorf("no paragraphs to synthesize")
	}

	baseName := file.SafeBaseName(paragraphs[0], baseNameMaxLen)
	if baseName == "" {
		baseName = "news"
	}

	v, err, _ := p.group.Do(baseName, func() (any, error) {
		return p.generate(ctx, baseName, paragraphs)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (p *Pipeline) generate(ctx context.Context, baseName string, paragraphs []string) (Result, error) {
	audioPath := filepath.Join(p.outputDir, baseName+".wav")
	sidecarPath := filepath.Join(p.outputDir, baseName+".json")

	if blocks, ok := p.reuseStored(audioPath, sidecarPath); ok {
		log.Info("memory: reusing stored artifacts for %s", baseName)
		return Result{
			Status:      StatusMemory,
			AudioPath:   audioPath,
			SidecarPath: sidecarPath,
			Blocks:      blocks,
		}, nil
	}

	split := make([][]segment.Segment, len(paragraphs))
	for i, paragraph := range paragraphs {
		split[i] = segment.Split(paragraph)
	}

	dispatched, err := p.dispatcher.Dispatch(ctx, split)
	if err != nil {
		return Result{}, err
	}

	final, blocks, err := Assemble(paragraphs, dispatched.Paths)
	if err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output directory: %w", err)
	}
	if err := subtitle.WriteJSON(sidecarPath, blocks); err != nil {
		return Result{}, err
	}
	if err := subtitle.WriteSRT(filepath.Join(p.outputDir, baseName+".srt"), blocks); err != nil {
		log.Warn("Failed to write srt sidecar for %s: %v", baseName, err)
	}

	if final.DurationMS() == 0 {
		log.Warn("Final audio for %s is empty, skipping export", baseName)
		audioPath = ""
	} else if err := audio.WriteClip(audioPath, final); err != nil {
		return Result{}, err
	}

	return Result{
		Status:         StatusDone,
		AudioPath:      audioPath,
		SidecarPath:    sidecarPath,
		Blocks:         blocks,
		FailedSegments: dispatched.Failed,
		TotalSegments:  dispatched.Total,
	}, nil
}

// reuseStored checks for a complete artifact pair from an earlier run.
func (p *Pipeline) reuseStored(audioPath, sidecarPath string) ([]subtitle.Block, bool) {
	info, err := os.Stat(audioPath)
	if err != nil || info.Size() == 0 {
		return nil, false
	}
	blocks, err := subtitle.ReadJSON(sidecarPath)
	if err != nil {
		return nil, false
	}
	return blocks, true
}
