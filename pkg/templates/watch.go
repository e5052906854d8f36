package templates

import (
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/timothycrosley/blox/internal/errors"
)

// DefaultDebounce is how long Watch waits for a burst of file events to
// settle before invalidating.
const DefaultDebounce = 100 * time.Millisecond

// Watcher invalidates templates of a Set when their files change and
// reports the changed names.
type Watcher struct {
	set      *Set
	dir      string
	exts     []string
	debounce time.Duration
	logger   *slog.Logger

	fsw     *fsnotify.Watcher
	changes chan []string
	done    chan struct{}
	once    sync.Once
}

// Watch starts watching dir and its subdirectories. Changed templates are
// dropped from the cache and their names sent on Changes. A debounce of
// zero uses DefaultDebounce.
func (s *Set) Watch(dir string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.New("E061").Wrap(err).WithDetailf("creating watcher: %v", err)
	}

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(p)
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return nil, errors.New("E061").Wrap(err).WithDetailf("watching %s: %v", dir, err)
	}

	exts := DefaultExtensions
	if l, ok := s.opts.Loader.(*FSLoader); ok && len(l.Extensions) > 0 {
		exts = l.Extensions
	}
	w := &Watcher{
		set:      s,
		dir:      dir,
		exts:     exts,
		debounce: debounce,
		logger:   s.logger.With("dir", dir),
		fsw:      fsw,
		changes:  make(chan []string, 1),
		done:     make(chan struct{}),
	}
	go w.loop()
	w.logger.Info("watching templates")
	return w, nil
}

// Changes delivers the sorted names of templates changed in each burst.
// A burst is dropped if the previous one has not been received.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Close stops watching.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = make(map[string]bool)
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				w.addDir(event.Name)
			}
			name, ok := w.templateName(event)
			if !ok {
				continue
			}
			pending[name] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			names := slices.Sorted(maps.Keys(pending))
			clear(pending)
			w.set.Invalidate(names...)
			w.logger.Info("templates changed", "templates", names)
			select {
			case w.changes <- names:
			default:
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)

		case <-w.done:
			return
		}
	}
}

// addDir watches p if it is a newly created directory.
func (w *Watcher) addDir(p string) {
	info, err := os.Stat(p)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.fsw.Add(p); err == nil {
		w.logger.Debug("watching new directory", "path", p)
	}
}

// templateName maps a file event to the template name it affects.
func (w *Watcher) templateName(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return "", false
	}
	ext := filepath.Ext(event.Name)
	if !slices.Contains(w.exts, strings.ToLower(ext)) {
		return "", false
	}
	rel, err := filepath.Rel(w.dir, event.Name)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(strings.TrimSuffix(rel, ext)), true
}
