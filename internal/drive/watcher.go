package drive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Metadata is the part of Service a Watcher polls.
type Metadata interface {
	GetFile(ctx context.Context, fileID string) (*File, error)
	LatestFile(ctx context.Context, folderID string) (*File, error)
}

// WatchOptions selects what a Watcher follows. Exactly one of FileID and
// FolderID is set.
type WatchOptions struct {
	FileID   string
	FolderID string
	Interval time.Duration
}

// Watcher polls a Drive file, or the newest spreadsheet in a folder, and calls
// OnChange when its revision moves.
type Watcher struct {
	meta     Metadata
	opts     WatchOptions
	onChange func(ctx context.Context, f *File) error

	mu   sync.Mutex
	last string
}

// NewWatcher creates a Watcher. The first poll only records the revision.
func NewWatcher(meta Metadata, opts WatchOptions, onChange func(ctx context.Context, f *File) error) *Watcher {
	return &Watcher{meta: meta, opts: opts, onChange: onChange}
}

// Target names the watched file or folder for logs.
func (w *Watcher) Target() string {
	if w.opts.FolderID != "" {
		return "folder/" + w.opts.FolderID
	}
	return w.opts.FileID
}

// Revision identifies one version of a file. A folder changes revision when a
// newer file becomes the latest one too.
func Revision(f *File) string {
	return f.ID + "@" + f.ModifiedTime
}

// Poll checks the target once and reports whether OnChange fired.
func (w *Watcher) Poll(ctx context.Context) (bool, error) {
	var (
		f   *File
		err error
	)
	if w.opts.FolderID != "" {
		f, err = w.meta.LatestFile(ctx, w.opts.FolderID)
	} else {
		f, err = w.meta.GetFile(ctx, w.opts.FileID)
	}
	if err != nil {
		return false, fmt.Errorf("poll %s: %w", w.Target(), err)
	}

	rev := Revision(f)
	w.mu.Lock()
	prev := w.last
	w.last = rev
	w.mu.Unlock()

	if prev == "" || prev == rev {
		return false, nil
	}
	if w.onChange != nil {
		if err := w.onChange(ctx, f); err != nil {
			return true, fmt.Errorf("handle change of %s: %w", w.Target(), err)
		}
	}
	return true, nil
}

// Run polls until ctx is done. Poll errors are logged and retried on the next tick.
func (w *Watcher) Run(ctx context.Context) {
	if w.opts.Interval <= 0 {
		return
	}

	poll := func() {
		changed, err := w.Poll(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Str("target", w.Target()).Msg("drive watch failed")
			}
			return
		}
		if changed {
			log.Info().Str("target", w.Target()).Msg("drive source changed")
		}
	}

	poll()
	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll()
		}
	}
}
