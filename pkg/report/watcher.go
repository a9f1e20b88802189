// pkg/report/watcher.go
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const debounceInterval = 250 * time.Millisecond

// Watch re-loads the aggregate whenever a record file in outputDir is written
// and hands it to onChange. Events are debounced so a burst of writes from a
// finishing scan produces one reload. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, outputDir string, logger zerolog.Logger, onChange func(*Aggregate)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(outputDir); err != nil {
		return fmt.Errorf("watch %s: %w", outputDir, err)
	}

	var debounce *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !IsRecordFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceInterval, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("Watcher error")

		case <-reload:
			agg, err := Load(outputDir)
			if err != nil {
				logger.Warn().Err(err).Msg("Failed to reload aggregate")
				continue
			}
			onChange(agg)
		}
	}
}
