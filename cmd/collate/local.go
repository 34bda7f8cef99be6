package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gofrs/flock"

	"github.com/jackzampolin/collate/internal/config"
	"github.com/jackzampolin/collate/internal/home"
	"github.com/jackzampolin/collate/internal/store"
)

// getHome returns the home directory manager.
func getHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	return h, nil
}

// loadConfig builds the config manager from the --config flag.
func loadConfig() (*config.Manager, error) {
	return config.NewManager(cfgFile)
}

// newLogger builds a logger for local commands. It writes to stderr so
// structured output on stdout stays pipeable.
func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
}

// openStore acquires the staging lock and opens the staging store.
// Commands that write to the store use this so they never race a
// running serve process. The cleanup closes the store and releases
// the lock.
func openStore(h *home.Dir) (*store.Store, func(), error) {
	lock := flock.New(h.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to acquire staging lock: %w", err)
	}
	if !locked {
		return nil, nil, fmt.Errorf("staging store is locked by another collate process (if 'collate serve' is running, use 'collate api' instead)")
	}

	st, err := store.Open(h.DBPath())
	if err != nil {
		lock.Unlock()
		return nil, nil, err
	}

	cleanup := func() {
		st.Close()
		lock.Unlock()
	}
	return st, cleanup, nil
}

// openStoreRead opens the staging store without taking the lock.
// Reads can run alongside a serve process; WAL handles the concurrency.
func openStoreRead(h *home.Dir) (*store.Store, func(), error) {
	st, err := store.Open(h.DBPath())
	if err != nil {
		return nil, nil, err
	}
	return st, func() { st.Close() }, nil
}
