// services/schedule_service.go
package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RunAndLog runs an import and logs its outcome. trigger names what
// started the run.
func RunAndLog(ctx context.Context, trigger string) {
	log := logger().With(zap.String("trigger", trigger))
	summary, err := RunImport(ctx)
	if err != nil {
		log.Error("Import failed", zap.Error(err))
		return
	}
	log.Info("Import run completed",
		zap.Strings("imported", summary.Imported), zap.Int("features", summary.Features))
}

// StartSchedule runs job on the cron expression spec until the returned
// scheduler is stopped. Standard five-field expressions and descriptors
// such as "@daily" are accepted.
func StartSchedule(spec string, job func()) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, job); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	c.Start()
	logger().Info("Import scheduled", zap.String("schedule", spec))
	return c, nil
}

// WatchReports calls trigger whenever a file ending in ext is created in,
// written to or moved into dir. Bursts of events closer together than
// debounce collapse into one call. WatchReports blocks until ctx is done.
func WatchReports(ctx context.Context, dir, ext string, debounce time.Duration, trigger func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log := logger().With(zap.String("dir", dir))
	log.Info("Watching report directory")

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !strings.HasSuffix(filepath.Base(event.Name), ext) {
				continue
			}
			log.Debug("Report changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("Watcher error", zap.Error(err))
		}
	}
}
