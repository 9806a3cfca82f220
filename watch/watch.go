// Package watch re-annotates a file each time it is saved. All passes share
// one editing session, so markers left in the file keep their spans.
package watch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/logger"
	"github.com/teranos/stamp/scan/annotate"
)

// DefaultDebounce coalesces the burst of events one save produces
const DefaultDebounce = 100 * time.Millisecond

// Pass is one annotation of the watched file
type Pass struct {
	Path   string
	Number int
	Result *annotate.AnnotatedText
}

// Watcher follows one file
type Watcher struct {
	path     string
	session  *annotate.Session
	debounce time.Duration
	log      *zap.SugaredLogger

	last   []byte
	passes int
}

// Option configures a Watcher
type Option func(*Watcher)

// WithDebounce sets the quiet period after the last event before a pass
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New returns a watcher for path over a fresh session of e
func New(path string, e *annotate.Engine, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve %s", path)
	}
	w := &Watcher{
		path:     abs,
		session:  e.NewSession(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = logger.ChildLogger(logger.ComponentLogger("watch"),
		logger.FieldFile, filepath.Base(abs),
		logger.FieldSession, w.session.ID()[:8])
	return w, nil
}

// Session returns the session the watcher annotates with
func (w *Watcher) Session() *annotate.Session {
	return w.session
}

// Run annotates the file once, then again after every change, until ctx is
// done. fn sees every pass in order. A save that leaves the content
// unchanged does not produce a pass.
func (w *Watcher) Run(ctx context.Context, fn func(Pass)) error {
	if err := w.pass(fn); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer fsw.Close()

	// Editors replace files on save, so watch the directory
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return errors.Wrapf(err, "failed to watch %s", filepath.Dir(w.path))
	}
	w.log.Infow("Watching for changes")

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("File watcher error", logger.FieldError, err)

		case <-fire:
			fire = nil
			if err := w.pass(fn); err != nil {
				// Mid-save or removed; the next event retries
				w.log.Warnw("Skipping pass", logger.FieldError, err)
			}
		}
	}
}

func (w *Watcher) pass(fn func(Pass)) error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", w.path)
	}
	if w.passes > 0 && bytes.Equal(data, w.last) {
		w.log.Debugw("Content unchanged")
		return nil
	}
	w.last = data
	w.passes++

	start := time.Now()
	out := w.session.Annotate(string(data))
	w.log.Debugw("Annotated",
		"pass", w.passes,
		logger.FieldCount, len(out.Spans()),
		"stale", out.Stats.Stale,
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	fn(Pass{Path: w.path, Number: w.passes, Result: out})
	return nil
}
