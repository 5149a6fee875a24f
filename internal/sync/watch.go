package sync

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// ReadStateChangedMsg is a tea.Msg sent when the persisted read state was
// rewritten, possibly by another taskboard process.
type ReadStateChangedMsg struct{}

// Watcher reports changes to a single file. It watches the parent
// directory so that atomic replace-by-rename writes are seen.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *log.Logger
	changes chan struct{}
	done    chan struct{}
}

// NewWatcher starts watching path. The parent directory is created if it
// does not exist yet.
func NewWatcher(path string, logger *log.Logger) (*Watcher, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating watch directory %s: %w", dir, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &Watcher{
		path:    filepath.Clean(path),
		watcher: fw,
		logger:  logger,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Changes delivers one value per burst of writes to the file.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops watching.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
				continue
			}
			select {
			case w.changes <- struct{}{}:
			default:
				// A change is already pending.
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watching read state", "path", w.path, "err", err)
		}
	}
}

// WaitForChange returns a tea.Cmd that yields ReadStateChangedMsg on the
// next change, or nil once the watcher is closed.
func (w *Watcher) WaitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-w.changes:
			return ReadStateChangedMsg{}
		case <-w.done:
			return nil
		}
	}
}
