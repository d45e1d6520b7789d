package inspect

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cyberguard/backend/internal/logger"
)

// Reloader watches a rule override file and swaps the classifier's RuleSet
// whenever the file changes. A file that fails to load leaves the active
// RuleSet in place.
type Reloader struct {
	watcher    *fsnotify.Watcher
	classifier *Classifier
	path       string
	debounce   time.Duration
}

// NewReloader watches the directory holding path, so editors that replace
// the file instead of writing it in place are still picked up.
func NewReloader(classifier *Classifier, path string) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create rule file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %q: %w", path, err)
	}
	return &Reloader{
		watcher:    watcher,
		classifier: classifier,
		path:       filepath.Clean(path),
		debounce:   500 * time.Millisecond,
	}, nil
}

// Reload loads the override file and installs it.
func (r *Reloader) Reload() error {
	rs, err := LoadRuleSet(r.path)
	if err != nil {
		return err
	}
	r.classifier.Swap(rs)
	return nil
}

// Run blocks until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) {
	defer r.watcher.Close()
	log := logger.Component("rules").WithField("path", r.path)

	var pending *time.Timer
	for {
		select {
		case <-ctx.Done():
			if pending != nil {
				pending.Stop()
			}
			return

		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != r.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(r.debounce, func() {
				if err := r.Reload(); err != nil {
					log.WithError(err).Error("rule reload failed, keeping active rules")
					return
				}
				log.Info("rule table reloaded")
			})

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("rule file watcher error")
		}
	}
}
