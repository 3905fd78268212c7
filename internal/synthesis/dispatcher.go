// Package synthesis orchestrates the audio pipeline: it splits paragraphs
// into script-homogeneous segments, dispatches each segment to the right
// TTS backend under bounded concurrency, and stitches the results back
// together in original order with subtitle timing offsets.
package synthesis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/hakkalearn/hakka-news-backend/internal/audio"
	"github.com/hakkalearn/hakka-news-backend/internal/audiocache"
	"github.com/hakkalearn/hakka-news-backend/internal/segment"
	"github.com/hakkalearn/hakka-news-backend/pkg/log"
)

// DefaultConcurrency bounds in-flight synthesis calls. The remote Hakka
// service rate-limits aggressively, so this stays a small hard ceiling.
const DefaultConcurrency = 3

// Latin-script synthesis failures degrade to this much silence so the
// concatenation step never trips over a missing file.
const silentPlaceholderMS = 100

// Dispatcher fans segments out to the synthesis backends.
type Dispatcher struct {
	hakka   Synthesizer
	generic Synthesizer
	cache   *audiocache.Cache
	sem     *semaphore.Weighted
	tempDir string
}

// Synthesizer matches internal/tts.Synthesizer without importing it, so
// tests can drop in counters and failures.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// NewDispatcher builds a dispatcher writing per-segment artifacts under
// tempDir. concurrency <= 0 falls back to DefaultConcurrency.
func NewDispatcher(hakka, generic Synthesizer, cache *audiocache.Cache, tempDir string, concurrency int) *Dispatcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Dispatcher{
		hakka:   hakka,
		generic: generic,
		cache:   cache,
		sem:     semaphore.NewWeighted(int64(concurrency)),
		tempDir: tempDir,
	}
}

// DispatchResult reports where each segment's audio landed, in original
// paragraph/segment order, plus the batch tally. A failed segment keeps an
// empty path (or a silent placeholder for Latin runs); assembly treats both
// as silence.
type DispatchResult struct {
	// Paths[p][s] is the artifact for paragraph p, segment s.
	Paths  [][]string
	Total  int
	Failed int
}

// Dispatch synthesizes every segment of every paragraph concurrently and
// returns per-segment artifact paths in original order. Segment failures
// never abort the batch; Dispatch errors only when not a single segment
// succeeded.
func (d *Dispatcher) Dispatch(ctx context.Context, paragraphs [][]segment.Segment) (DispatchResult, error) {
	result := DispatchResult{
		Paths: make([][]string, len(paragraphs)),
	}
	for i, segments := range paragraphs {
		result.Paths[i] = make([]string, len(segments))
		result.Total += len(segments)
	}
	if result.Total == 0 {
		return result, nil
	}
	log.Info("Dispatching %d synthesis segments", result.Total)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for paraIdx, segments := range paragraphs {
		for segIdx, seg := range segments {
			wg.Add(1)
			go func(paraIdx, segIdx int, seg segment.Segment) {
				defer wg.Done()

				path, err := d.synthesizeSegment(ctx, paraIdx, segIdx, seg)
				if err != nil {
					log.Error("Segment %d_%d synthesis failed: %v", paraIdx, segIdx, err)
					mu.Lock()
					failed++
					mu.Unlock()
				}
				mu.Lock()
				result.Paths[paraIdx][segIdx] = path
				mu.Unlock()
			}(paraIdx, segIdx, seg)
		}
	}
	wg.Wait()

	result.Failed = failed
	if failed > 0 {
		log.Warn("Synthesis batch finished with %d/%d failed segments", failed, result.Total)
	}
	if failed == result.Total {
		return result, fmt.Errorf("all %d synthesis segments failed", result.Total)
	}
	return result, nil
}

// synthesizeSegment produces the artifact for one segment: cache first,
// then the backend chosen by script class. The returned path may be empty
// when a Hakka segment failed (assembly treats that as silence).
func (d *Dispatcher) synthesizeSegment(ctx context.Context, paraIdx, segIdx int, seg segment.Segment) (string, error) {
	key := audiocache.Key(seg.Text)
	if entry, ok := d.cache.Lookup(key); ok {
		return entry.FilePath, nil
	}

	outPath := filepath.Join(d.tempDir, fmt.Sprintf("segment_%d_%d.wav", paraIdx, segIdx))

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire synthesis slot: %w", err)
	}
	data, err := d.callBackend(ctx, seg)
	d.sem.Release(1)

	if err != nil {
		if seg.Class == segment.Latin {
			// Keep concatenation going with a short silent clip instead
			// of a missing file.
			if werr := audio.WriteClip(outPath, audio.Silence(silentPlaceholderMS, 0, 0)); werr != nil {
				return "", err
			}
			return outPath, err
		}
		return "", err
	}

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write segment artifact: %w", err)
	}
	if err := d.cache.Insert(key, seg.Text, outPath); err != nil {
		log.Warn("Failed to record %s in the audio cache: %v", outPath, err)
	}
	return outPath, nil
}

func (d *Dispatcher) callBackend(ctx context.Context, seg segment.Segment) ([]byte, error) {
	switch seg.Class {
	case segment.Latin:
		return d.generic.Synthesize(ctx, seg.Text)
	case segment.Other:
		return d.hakka.Synthesize(ctx, seg.Text)
	default:
		return nil, fmt.Errorf("unknown script class %q", seg.Class)
	}
}
