package server

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the drafts directory and reports changed draft files.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	onChange func(name string)
	done     chan struct{}
	debug    bool
}

// NewWatcher creates a watcher over a single drafts directory. Only YAML
// files trigger the callback; editors write temp files alongside and those
// are ignored.
func NewWatcher(dir string, onChange func(name string), debug bool) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	return &Watcher{
		watcher:  fsWatcher,
		dir:      dir,
		onChange: onChange,
		done:     make(chan struct{}),
		debug:    debug,
	}, nil
}

// Start begins watching in the background.
func (w *Watcher) Start() {
	go func() {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				ext := filepath.Ext(event.Name)
				if ext != ".yaml" && ext != ".yml" {
					continue
				}
				if w.debug {
					log.Printf("[watch] %s: %s", event.Op, event.Name)
				}
				w.onChange(filepath.Base(event.Name))

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[watch] error: %v", err)

			case <-w.done:
				return
			}
		}
	}()
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}
