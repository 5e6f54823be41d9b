package catalog

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// debounce is how long the file must stay quiet before it is reloaded;
// editors write a file in several steps.
const debounce = 100 * time.Millisecond

// Live is a catalog that reloads itself when its override file changes.
// A file that fails to parse keeps the last good catalog.
type Live struct {
	mu      sync.RWMutex
	current Catalog
	path    string
	logger  *log.Logger

	watcher *fsnotify.Watcher
	Reloads chan Catalog
	closeCh chan struct{}
	once    sync.Once
}

// Watch loads path and starts watching its directory. The directory is
// watched instead of the file so atomic renames are seen.
func Watch(path string, logger *log.Logger) (*Live, error) {
	cat, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, err
	}

	if logger == nil {
		logger = log.Default()
	}

	live := &Live{
		current: cat,
		path:    filepath.Clean(path),
		logger:  logger,
		watcher: w,
		Reloads: make(chan Catalog, 1),
		closeCh: make(chan struct{}),
	}
	go live.run()
	return live, nil
}

// Static wraps a fixed catalog in the Live interface.
func Static(cat Catalog) *Live {
	return &Live{current: cat}
}

// Current returns the latest good catalog.
func (l *Live) Current() Catalog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Close stops watching. Safe to call more than once.
func (l *Live) Close() error {
	if l.watcher == nil {
		return nil
	}
	var err error
	l.once.Do(func() {
		close(l.closeCh)
		err = l.watcher.Close()
	})
	return err
}

func (l *Live) run() {
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != l.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Every event pushes the reload back; the last one wins.
			timer.Reset(debounce)
		case <-timer.C:
			l.reload()
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("catalog watcher error", "error", err)
		case <-l.closeCh:
			return
		}
	}
}

func (l *Live) reload() {
	cat, err := LoadFile(l.path)
	if err != nil {
		l.logger.Warn("catalog reload failed, keeping previous", "path", l.path, "error", err)
		return
	}

	l.mu.Lock()
	l.current = cat
	l.mu.Unlock()
	l.logger.Info("catalog reloaded", "path", l.path, "games", len(cat.Games))

	// Drop the notification if nobody is listening.
	select {
	case l.Reloads <- cat:
	default:
	}
}
