package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/jackzampolin/collate/internal/home"
	"github.com/jackzampolin/collate/internal/pageseq"
	"github.com/jackzampolin/collate/internal/report"
	"github.com/jackzampolin/collate/internal/server/endpoints"
	"github.com/jackzampolin/collate/internal/testutil"
)

const lifecycleDoc = `{
	"title": "backward demo",
	"pages": [
		{"scan_page": 1, "printed_page_number": "10"},
		{"scan_page": 2, "printed_page_number": "9"},
		{"scan_page": 3, "printed_page_number": "junk!"}
	]
}`

const cleanDoc = `{
	"pages": [
		{"scan_page": 1, "printed_page_number": "1"},
		{"scan_page": 2, "printed_page_number": "2"},
		{"scan_page": 3, "printed_page_number": "3"}
	]
}`

func TestServer_FullLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cfg := testutil.NewServerConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	homeDir, err := home.New(cfg.HomePath)
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}

	srv, err := New(Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		Home:   homeDir,
		Watch:  true,
		Logger: cfg.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Start server in background
	serverErr := make(chan error, 1)
	serverCtx, serverCancel := context.WithCancel(ctx)

	go func() {
		serverErr <- srv.Start(serverCtx)
	}()

	// Wait for server to be ready
	if err := testutil.WaitForServer(cfg.URL(), 30*time.Second); err != nil {
		serverCancel()
		t.Fatalf("server did not start: %v", err)
	}

	httpClient := testutil.HTTPClient()

	t.Run("health_endpoint", func(t *testing.T) {
		resp, err := httpClient.Get(cfg.URL() + "/health")
		if err != nil {
			t.Fatalf("health check failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("health status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var health endpoints.HealthResponse
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if health.Status != "ok" {
			t.Errorf("health.Status = %q, want %q", health.Status, "ok")
		}
	})

	t.Run("ready_endpoint", func(t *testing.T) {
		resp, err := httpClient.Get(cfg.URL() + "/ready")
		if err != nil {
			t.Fatalf("ready check failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("ready status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var health endpoints.HealthResponse
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if health.Status != "ok" {
			t.Errorf("health.Status = %q, want %q", health.Status, "ok")
		}
		if health.Store != "ok" {
			t.Errorf("health.Store = %q, want %q", health.Store, "ok")
		}
	})

	t.Run("status_endpoint", func(t *testing.T) {
		status, err := testutil.GetStatus(cfg.URL())
		if err != nil {
			t.Fatalf("status check failed: %v", err)
		}

		if status.Server != "running" {
			t.Errorf("status.Server = %q, want %q", status.Server, "running")
		}
		if status.Store.Health != "healthy" {
			t.Errorf("status.Store.Health = %q, want %q", status.Store.Health, "healthy")
		}
		if status.Home != cfg.HomePath {
			t.Errorf("status.Home = %q, want %q", status.Home, cfg.HomePath)
		}
	})

	var ingestedID string
	t.Run("ingest_endpoint", func(t *testing.T) {
		resp, err := httpClient.Post(cfg.URL()+"/api/books/ingest", "application/json", bytes.NewReader([]byte(lifecycleDoc)))
		if err != nil {
			t.Fatalf("ingest failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("ingest status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}

		var ingested endpoints.IngestResponse
		if err := json.NewDecoder(resp.Body).Decode(&ingested); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if ingested.BookID == "" {
			t.Fatal("ingest returned empty book id")
		}
		if ingested.Title != "backward demo" {
			t.Errorf("Title = %q, want %q", ingested.Title, "backward demo")
		}
		if ingested.Pages != 3 {
			t.Errorf("Pages = %d, want 3", ingested.Pages)
		}
		ingestedID = ingested.BookID
	})

	t.Run("validate_endpoint", func(t *testing.T) {
		resp, err := httpClient.Post(cfg.URL()+"/api/books/"+ingestedID+"/validate", "application/json", nil)
		if err != nil {
			t.Fatalf("validate failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("validate status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var summary report.RunSummary
		if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if summary.PagesTotal != 3 {
			t.Errorf("PagesTotal = %d, want 3", summary.PagesTotal)
		}
		if summary.PagesFlagged != 2 {
			t.Errorf("PagesFlagged = %d, want 2", summary.PagesFlagged)
		}
		if summary.TotalClusters != 2 {
			t.Errorf("TotalClusters = %d, want 2", summary.TotalClusters)
		}
	})

	t.Run("report_endpoint", func(t *testing.T) {
		resp, err := httpClient.Get(cfg.URL() + "/api/books/" + ingestedID + "/report")
		if err != nil {
			t.Fatalf("report fetch failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("report status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var rep pageseq.ClusterReport
		if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if rep.TotalClusters != 2 {
			t.Errorf("TotalClusters = %d, want 2", rep.TotalClusters)
		}
		if rep.ClustersByType[pageseq.ClusterBackwardJump] != 1 {
			t.Errorf("backward_jump clusters = %d, want 1", rep.ClustersByType[pageseq.ClusterBackwardJump])
		}
	})

	t.Run("pages_endpoint", func(t *testing.T) {
		resp, err := httpClient.Get(cfg.URL() + "/api/books/" + ingestedID + "/pages")
		if err != nil {
			t.Fatalf("pages fetch failed: %v", err)
		}
		defer resp.Body.Close()

		var pages endpoints.ListPagesResponse
		if err := json.NewDecoder(resp.Body).Decode(&pages); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if pages.TotalPages != 3 {
			t.Fatalf("TotalPages = %d, want 3", pages.TotalPages)
		}
		if pages.Pages[1].Status != "backward_jump" {
			t.Errorf("Pages[1].Status = %q, want %q", pages.Pages[1].Status, "backward_jump")
		}
		if !pages.Pages[1].NeedsReview {
			t.Error("Pages[1].NeedsReview = false, want true")
		}
	})

	t.Run("runs_endpoint", func(t *testing.T) {
		resp, err := httpClient.Get(cfg.URL() + "/api/books/" + ingestedID + "/runs")
		if err != nil {
			t.Fatalf("runs fetch failed: %v", err)
		}
		defer resp.Body.Close()

		var runs endpoints.ListRunsResponse
		if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if runs.Total != 1 {
			t.Errorf("Total = %d, want 1", runs.Total)
		}
	})

	t.Run("watcher_stages_inbox_documents", func(t *testing.T) {
		docPath := homeDir.InboxPath() + "/dropped.json"
		if err := os.WriteFile(docPath, []byte(cleanDoc), 0o644); err != nil {
			t.Fatalf("failed to drop document: %v", err)
		}

		// The watcher stages the book, auto-validates it, and archives the file.
		var droppedID string
		deadline := time.Now().Add(15 * time.Second)
		for time.Now().Before(deadline) {
			var list endpoints.ListBooksResponse
			resp, err := httpClient.Get(cfg.URL() + "/api/books")
			if err == nil {
				if err := json.NewDecoder(resp.Body).Decode(&list); err == nil {
					for _, b := range list.Books {
						if b.Title == "dropped" && b.Status == "validated" {
							droppedID = b.ID
						}
					}
				}
				resp.Body.Close()
			}
			if droppedID != "" {
				break
			}
			time.Sleep(100 * time.Millisecond)
		}
		if droppedID == "" {
			t.Fatal("dropped document was not staged and validated in time")
		}

		if _, err := os.Stat(homeDir.ArchivedDocPath(droppedID)); err != nil {
			t.Errorf("archived document not found: %v", err)
		}
		if _, err := os.Stat(docPath); !os.IsNotExist(err) {
			t.Errorf("document still in inbox after staging")
		}
		if _, err := os.Stat(homeDir.SequenceReportPath(droppedID)); err != nil {
			t.Errorf("report file not written: %v", err)
		}
	})

	t.Run("delete_endpoint", func(t *testing.T) {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, cfg.URL()+"/api/books/"+ingestedID, nil)
		if err != nil {
			t.Fatalf("failed to create request: %v", err)
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("delete status = %d, want %d", resp.StatusCode, http.StatusNoContent)
		}

		getResp, err := httpClient.Get(cfg.URL() + "/api/books/" + ingestedID)
		if err != nil {
			t.Fatalf("get after delete failed: %v", err)
		}
		getResp.Body.Close()

		if getResp.StatusCode != http.StatusNotFound {
			t.Errorf("get after delete status = %d, want %d", getResp.StatusCode, http.StatusNotFound)
		}
	})

	t.Run("is_running", func(t *testing.T) {
		if !srv.IsRunning() {
			t.Error("IsRunning() = false, want true")
		}
	})

	// Shutdown server
	serverCancel()

	if err := testutil.WaitForShutdown(serverErr, 30*time.Second); err != nil {
		t.Fatalf("server did not shut down: %v", err)
	}

	t.Run("not_running_after_shutdown", func(t *testing.T) {
		if srv.IsRunning() {
			t.Error("IsRunning() = true after shutdown, want false")
		}
	})

	t.Run("store_closed_after_shutdown", func(t *testing.T) {
		if err := srv.Store().Ping(); err == nil {
			t.Error("store still open after shutdown")
		}
	})
}

// TestServer_ContextCancellation tests that the server properly handles context cancellation.
func TestServer_ContextCancellation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cfg := testutil.NewServerConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	homeDir, err := home.New(cfg.HomePath)
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}

	srv, err := New(Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		Home:   homeDir,
		Watch:  true,
		Logger: cfg.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	serverErr := make(chan error, 1)
	serverCtx, serverCancel := context.WithCancel(ctx)

	go func() {
		serverErr <- srv.Start(serverCtx)
	}()

	if err := testutil.WaitForServer(cfg.URL(), 30*time.Second); err != nil {
		serverCancel()
		t.Fatalf("server did not start: %v", err)
	}

	// Cancel context immediately
	serverCancel()

	if err := testutil.WaitForShutdown(serverErr, 30*time.Second); err != nil {
		t.Fatalf("server did not respond to context cancellation: %v", err)
	}
}

// TestServer_DoubleStart tests that starting a running server returns an error.
func TestServer_DoubleStart(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cfg := testutil.NewServerConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	homeDir, err := home.New(cfg.HomePath)
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}

	srv, err := New(Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		Home:   homeDir,
		Logger: cfg.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	go func() {
		_ = srv.Start(serverCtx)
	}()

	if err := testutil.WaitForServer(cfg.URL(), 30*time.Second); err != nil {
		t.Fatalf("server did not start: %v", err)
	}

	// Try to start again - should fail
	if err := srv.Start(ctx); err == nil {
		t.Error("second Start() should return error")
	}
}

func TestServer_RequiresHome(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() without home should return error")
	}
}
