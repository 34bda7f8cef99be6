package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/jackzampolin/collate/internal/config"
	"github.com/jackzampolin/collate/internal/home"
	"github.com/jackzampolin/collate/internal/store"
)

// Watcher stages observation documents dropped into the inbox directory.
// Reads are retried so that documents still being written settle before
// they are parsed.
type Watcher struct {
	home        *home.Dir
	store       *store.Store
	cfg         config.IngestCfg
	logger      *slog.Logger
	afterIngest func(ctx context.Context, bookID string) error
}

// NewWatcher creates a watcher over the home inbox.
func NewWatcher(homeDir *home.Dir, st *store.Store, cfg config.IngestCfg, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		home:   homeDir,
		store:  st,
		cfg:    cfg,
		logger: logger,
	}
}

// OnIngest registers a hook invoked after each staged document.
// Serve uses it to validate books as they arrive.
func (w *Watcher) OnIngest(fn func(ctx context.Context, bookID string) error) {
	w.afterIngest = fn
}

// Run watches the inbox until ctx is canceled. Documents already sitting
// in the inbox at startup are processed first.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.home.InboxPath()); err != nil {
		return fmt.Errorf("failed to watch inbox: %w", err)
	}

	w.logger.Info("watching inbox", "dir", w.home.InboxPath())

	if err := w.sweep(ctx); err != nil {
		return err
	}

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
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			w.handle(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// sweep stages documents already present in the inbox.
func (w *Watcher) sweep(ctx context.Context) error {
	entries, err := os.ReadDir(w.home.InboxPath())
	if err != nil {
		return fmt.Errorf("failed to read inbox: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		w.handle(ctx, filepath.Join(w.home.InboxPath(), e.Name()))
	}
	return nil
}

// handle ingests a single inbox document and moves it out of the inbox.
func (w *Watcher) handle(ctx context.Context, path string) {
	// Create and Write events arrive for the same file; once the first
	// pass has moved it out of the inbox the rest are no-ops.
	if _, err := os.Stat(path); err != nil {
		return
	}

	var res *Result
	err := retry.Do(
		func() error {
			r, err := Ingest(ctx, w.store, Request{Path: path, Logger: w.logger})
			if err != nil {
				return err
			}
			res = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(w.cfg.RetryAttempts),
		retry.Delay(time.Duration(w.cfg.RetryDelayMS)*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		w.logger.Error("failed to ingest document", "path", path, "error", err)
		return
	}

	if w.cfg.Archive {
		if err := os.Rename(path, w.home.ArchivedDocPath(res.BookID)); err != nil {
			w.logger.Warn("failed to archive document", "path", path, "error", err)
		}
	} else if err := os.Remove(path); err != nil {
		w.logger.Warn("failed to remove document", "path", path, "error", err)
	}

	if w.afterIngest != nil {
		if err := w.afterIngest(ctx, res.BookID); err != nil {
			w.logger.Error("post-ingest hook failed", "book_id", res.BookID, "error", err)
		}
	}
}
