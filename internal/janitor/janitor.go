// Package janitor sweeps expired scratch artifacts on a cron schedule so
// the per-segment WAV files and translation dumps never fill the disk.
package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hakkalearn/hakka-news-backend/internal/history"
	"github.com/hakkalearn/hakka-news-backend/pkg/file"
	"github.com/hakkalearn/hakka-news-backend/pkg/log"
)

// defaultHistoryRetention is how long reading-history rows outlive the
// artifacts they point at.
const defaultHistoryRetention = 30 * 24 * time.Hour

// Report tallies one sweep.
type Report struct {
	FilesRemoved   int   `json:"files_removed"`
	HistoryRemoved int64 `json:"history_removed"`
}

// Janitor periodically removes temp files older than maxAge and prunes
// ancient history rows.
type Janitor struct {
	cron             *cron.Cron
	entryID          cron.EntryID
	expr             string
	dirs             []string
	maxAge           time.Duration
	store            *history.Store
	historyRetention time.Duration
}

// New validates the schedule up front. store may be nil when history
// pruning is not wanted.
func New(expr string, dirs []string, maxAge time.Duration, store *history.Store) (*Janitor, error) {
	if _, err := cron.ParseStandard(expr); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", expr, err)
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("cleanup max age must be positive")
	}

	j := &Janitor{
		cron:             cron.New(),
		expr:             expr,
		dirs:             dirs,
		maxAge:           maxAge,
		store:            store,
		historyRetention: defaultHistoryRetention,
	}
	id, err := j.cron.AddFunc(expr, func() {
		report := j.RunOnce(context.Background())
		log.Info("Cleanup sweep removed %d files, %d history rows",
			report.FilesRemoved, report.HistoryRemoved)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule cleanup: %w", err)
	}
	j.entryID = id
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
	log.Info("Cleanup scheduled (%s), next run at %s", j.expr, j.NextRun().Format(time.RFC3339))
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// NextRun reports when the next sweep fires. Zero before Start.
func (j *Janitor) NextRun() time.Time {
	return j.cron.Entry(j.entryID).Next
}

// RunOnce sweeps immediately. Per-directory failures are logged and the
// sweep moves on; a partial sweep beats no sweep.
func (j *Janitor) RunOnce(ctx context.Context) Report {
	var report Report
	cutoff := time.Now().Add(-j.maxAge)

	for _, dir := range j.dirs {
		removed, err := file.RemoveOlderThan(dir, cutoff)
		if err != nil {
			log.Warn("Cleanup of %s failed: %v", dir, err)
			continue
		}
		report.FilesRemoved += removed
	}

	if j.store != nil {
		removed, err := j.store.DeleteOlderThan(ctx, time.Now().Add(-j.historyRetention))
		if err != nil {
			log.Warn("History pruning failed: %v", err)
		} else {
			report.HistoryRemoved = removed
		}
	}
	return report
}
