// Package watcher notifies when the progress store changes on disk, so a
// running `qw watch` can re-render after another process writes progress.
//
// fsnotify is used where it is reliable; on remote filesystems, or when
// QW_FORCE_POLL is set, the watcher falls back to stat polling.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/questwork/pkg/debug"
)

// DefaultPollInterval matches how often the web tracker re-read storage.
const DefaultPollInterval = 500 * time.Millisecond

// Common errors.
var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounceDuration = d
	}
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithOnChange sets the callback invoked after a debounced change.
func WithOnChange(fn func()) Option {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback invoked on errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithForcePoll forces polling mode even if fsnotify is available.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

// Watcher monitors a store file, and its SQLite write-ahead log if any.
type Watcher struct {
	path             string
	names            map[string]bool // base names that count as a change
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func()
	onError          func(error)
	forcePoll        bool
	fsType           FilesystemType

	fsWatcher   *fsnotify.Watcher
	debouncer   *Debouncer
	useFallback bool
	last        signature

	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
	changeCh chan struct{}
}

// New creates a watcher for path. Nothing is watched until Start.
func New(path string, opts ...Option) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(absPath)
	w := &Watcher{
		path:             absPath,
		names:            map[string]bool{base: true, base + "-wal": true},
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func() {},
		onError:          func(error) {},
		changeCh:         make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.debouncer = NewDebouncer(w.debounceDuration)
	return w, nil
}

// Start begins watching. The watcher stops when ctx is done or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	ctx, w.cancel = context.WithCancel(ctx)

	w.fsType = detectFilesystemTypeFunc(w.path)
	w.useFallback = w.forcePoll || envBool("QW_FORCE_POLL") || isRemoteFilesystem(w.fsType)

	sig, err := w.stat()
	if err != nil && os.IsPermission(err) {
		w.cancel()
		return ErrPermission
	}
	w.last = sig

	if !w.useFallback {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			debug.Log("fsnotify unavailable, polling %s: %v", w.path, err)
			w.useFallback = true
		} else if err := fsw.Add(filepath.Dir(w.path)); err != nil {
			// atomic writes replace the file, so the directory is watched
			debug.Log("cannot watch %s, polling: %v", filepath.Dir(w.path), err)
			fsw.Close()
			w.useFallback = true
		} else {
			w.fsWatcher = fsw
			go w.watchFsnotify(ctx, fsw)
		}
	}

	if w.useFallback {
		go w.watchPolling(ctx)
	}

	debug.Log("watching %s (fs=%s, polling=%v)", w.path, w.fsType, w.useFallback)
	w.started = true
	return nil
}

// Stop stops watching. The Changed channel is left open.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}

	if w.cancel != nil {
		w.cancel()
	}

	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}

	w.debouncer.Cancel()
	w.started = false
}

// IsPolling returns true if the watcher is using polling mode.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.useFallback
}

// IsStarted returns true if the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed returns a channel that receives after each debounced change.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changeCh
}

// Path returns the watched file path.
func (w *Watcher) Path() string {
	return w.path
}

// FilesystemType returns the detected filesystem of the watched path.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fsType
}

// PollInterval returns the polling interval used in polling mode.
func (w *Watcher) PollInterval() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pollInterval
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func (w *Watcher) watchFsnotify(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if !w.names[name] {
				continue
			}

			switch {
			case event.Op&fsnotify.Remove != 0 && name == filepath.Base(w.path):
				w.onError(ErrFileRemoved)
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.debouncer.Trigger(w.notifyChange)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

// signature is the stat fingerprint of the watched files.
type signature struct {
	exists  bool
	mtime   time.Time
	size    int64
	walTime time.Time
	walSize int64
}

func (w *Watcher) stat() (signature, error) {
	var sig signature
	info, err := os.Stat(w.path)
	if err != nil {
		return sig, err
	}
	sig.exists = true
	sig.mtime = info.ModTime()
	sig.size = info.Size()
	if wal, err := os.Stat(w.path + "-wal"); err == nil {
		sig.walTime = wal.ModTime()
		sig.walSize = wal.Size()
	}
	return sig, nil
}

func (w *Watcher) watchPolling(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			sig, err := w.stat()
			if err != nil {
				w.mu.Lock()
				hadFile := w.last.exists
				w.last = signature{}
				w.mu.Unlock()

				switch {
				case os.IsNotExist(err):
					if hadFile {
						w.onError(ErrFileRemoved)
					}
				case os.IsPermission(err):
					w.onError(ErrPermission)
				default:
					w.onError(err)
				}
				continue
			}

			w.mu.Lock()
			changed := sig != w.last
			w.last = sig
			w.mu.Unlock()

			if changed {
				w.debouncer.Trigger(w.notifyChange)
			}
		}
	}
}

func (w *Watcher) notifyChange() {
	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()
	if !started {
		return
	}

	w.onChange()

	select {
	case w.changeCh <- struct{}{}:
	default:
	}
}
