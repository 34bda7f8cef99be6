package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-collate")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-collate" {
			t.Errorf("expected path /tmp/test-collate, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-collate")

	t.Run("DataPath", func(t *testing.T) {
		expected := "/tmp/test-collate/data"
		if dir.DataPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.DataPath())
		}
	})

	t.Run("InboxPath", func(t *testing.T) {
		expected := "/tmp/test-collate/inbox"
		if dir.InboxPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.InboxPath())
		}
	})

	t.Run("ConfigPath", func(t *testing.T) {
		expected := "/tmp/test-collate/config.yaml"
		if dir.ConfigPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.ConfigPath())
		}
	})

	t.Run("DBPath", func(t *testing.T) {
		expected := "/tmp/test-collate/collate.db"
		if dir.DBPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.DBPath())
		}
	})

	t.Run("SequenceReportPath", func(t *testing.T) {
		expected := "/tmp/test-collate/reports/book-1/sequence_report.json"
		if dir.SequenceReportPath("book-1") != expected {
			t.Errorf("expected %s, got %s", expected, dir.SequenceReportPath("book-1"))
		}
	})

	t.Run("ArchivedDocPath", func(t *testing.T) {
		expected := "/tmp/test-collate/data/book-1.json"
		if dir.ArchivedDocPath("book-1") != expected {
			t.Errorf("expected %s, got %s", expected, dir.ArchivedDocPath("book-1"))
		}
	})
}

func TestDir_EnsureExists(t *testing.T) {
	tmpDir := t.TempDir()
	collateDir := filepath.Join(tmpDir, "collate-test")

	dir, err := New(collateDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Directory shouldn't exist yet
	if dir.Exists() {
		t.Error("directory should not exist before EnsureExists")
	}

	// Create it
	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	// Now it should exist
	if !dir.Exists() {
		t.Error("directory should exist after EnsureExists")
	}

	// Subdirectories should also exist
	for _, sub := range []string{dir.DataPath(), dir.InboxPath(), dir.ReportsPath()} {
		if _, err := os.Stat(sub); os.IsNotExist(err) {
			t.Errorf("%s should exist after EnsureExists", sub)
		}
	}
}

func TestDir_ConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	dir, _ := New(tmpDir)

	// Config doesn't exist
	if dir.ConfigExists() {
		t.Error("config should not exist initially")
	}

	// Create a config file
	configPath := dir.ConfigPath()
	if err := os.WriteFile(configPath, []byte("test: true\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Now it should exist
	if !dir.ConfigExists() {
		t.Error("config should exist after creation")
	}
}

func TestDir_EnsureBookReportDir(t *testing.T) {
	tmpDir := t.TempDir()
	dir, _ := New(tmpDir)

	if err := dir.EnsureBookReportDir("book-1"); err != nil {
		t.Fatalf("EnsureBookReportDir failed: %v", err)
	}

	if _, err := os.Stat(dir.BookReportDir("book-1")); os.IsNotExist(err) {
		t.Error("report directory should exist after EnsureBookReportDir")
	}
}
