package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/collate/internal/config"
	"github.com/jackzampolin/collate/internal/home"
	"github.com/jackzampolin/collate/internal/server"
)

var (
	serveHost  string
	servePort  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the collate server",
	Long: `Start the collate HTTP server.

The server opens the staging store and, unless --watch=false, watches
the inbox directory so observation documents dropped there are staged
(and validated, when auto-validation is on) automatically.

The server provides:
  - /health - Basic server health check
  - /ready  - Readiness check (includes staging store status)

Examples:
  collate serve                    # Start on default port 8080
  collate serve --port 3000        # Start on custom port
  collate serve --host 0.0.0.0     # Bind to all interfaces
  collate serve --watch=false      # Disable the inbox watcher`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		cfgMgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg := cfgMgr.Get()

		// Log level follows config reloads
		level := new(slog.LevelVar)
		level.Set(cfg.Log.SlogLevel())
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

		cfgMgr.OnChange(func(c *config.Config) {
			level.Set(c.Log.SlogLevel())
			logger.Info("configuration reloaded", "log_level", c.Log.Level)
		})
		cfgMgr.WatchConfig()

		// The staging store has one writer at a time
		lock := flock.New(h.LockPath())
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("failed to acquire staging lock: %w", err)
		}
		if !locked {
			return fmt.Errorf("another collate process holds the staging lock at %s", h.LockPath())
		}
		defer lock.Unlock()

		host := serveHost
		if host == "" {
			host = cfg.Server.Host
		}
		port := servePort
		if port == "" {
			port = cfg.Server.Port
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			Home:          h,
			Watch:         serveWatch,
			ConfigManager: cfgMgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "Watch the inbox directory for dropped documents")

	rootCmd.AddCommand(serveCmd)
}
