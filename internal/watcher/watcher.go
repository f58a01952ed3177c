package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay gives the writer time to finish before we read the transcript.
const settleDelay = 500 * time.Millisecond

// Start monitors the input directory and runs the handler on each new
// transcript file. Files are processed one at a time, in arrival order: the
// pipeline itself is strictly sequential, so there is nothing to gain from
// handling drops concurrently.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "watching %s for transcripts (%s)", w.inputDir, strings.Join(transcriptExts, ", "))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if !isTranscriptFile(event.Name) {
				w.logger.Debug(ctx, "ignoring %s", event.Name)
				continue
			}

			w.logger.Info(ctx, "new transcript: %s", event.Name)
			time.Sleep(settleDelay)
			if err := w.handler(ctx, event.Name); err != nil {
				w.logger.Error(ctx, "failed to process %s: %v", event.Name, err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "watcher error: %v", err)
		}
	}
}

// Stop closes the underlying file watcher.
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

var transcriptExts = []string{".txt", ".md"}

func isTranscriptFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range transcriptExts {
		if ext == e {
			return true
		}
	}
	return false
}
