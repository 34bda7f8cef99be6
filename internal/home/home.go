package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the collate home directory.
	DefaultDirName = ".collate"

	// DataDirName is the subdirectory for archived observation documents.
	DataDirName = "data"

	// InboxDirName is the subdirectory watched for incoming documents.
	InboxDirName = "inbox"

	// ReportsDirName is the subdirectory for persisted cluster reports.
	ReportsDirName = "reports"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// DBFileName is the staging database file name.
	DBFileName = "collate.db"

	// LockFileName guards the staging database against concurrent CLI runs.
	LockFileName = ".collate.lock"
)

// Dir represents the collate home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.collate).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DataPath returns the path to the data directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// InboxPath returns the path to the watched inbox directory.
func (d *Dir) InboxPath() string {
	return filepath.Join(d.path, InboxDirName)
}

// ReportsPath returns the path to the reports directory.
func (d *Dir) ReportsPath() string {
	return filepath.Join(d.path, ReportsDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// DBPath returns the path to the staging database.
func (d *Dir) DBPath() string {
	return filepath.Join(d.path, DBFileName)
}

// LockPath returns the path to the CLI lock file.
func (d *Dir) LockPath() string {
	return filepath.Join(d.path, LockFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.DataPath(), d.InboxPath(), d.ReportsPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// ArchivedDocPath returns the path an ingested observation document is
// archived to once staged.
func (d *Dir) ArchivedDocPath(bookID string) string {
	return filepath.Join(d.DataPath(), fmt.Sprintf("%s.json", bookID))
}

// BookReportDir returns the report directory for a book.
func (d *Dir) BookReportDir(bookID string) string {
	return filepath.Join(d.ReportsPath(), bookID)
}

// SequenceReportPath returns the path to a book's cluster report document.
func (d *Dir) SequenceReportPath(bookID string) string {
	return filepath.Join(d.BookReportDir(bookID), "sequence_report.json")
}

// EnsureBookReportDir creates the report directory for a book.
func (d *Dir) EnsureBookReportDir(bookID string) error {
	return os.MkdirAll(d.BookReportDir(bookID), 0o755)
}
