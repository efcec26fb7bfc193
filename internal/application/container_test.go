package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/khanhnv2901/riskscan/internal/domain/scan"
	sharedErrors "github.com/khanhnv2901/riskscan/internal/shared/errors"
	"go.uber.org/zap/zaptest"
)

func TestNewContainer_JSONStoreByDefault(t *testing.T) {
	dir := t.TempDir()
	c, err := NewContainer(context.Background(), Config{DataDir: dir}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	defer c.Close()

	if c.ScanService == nil || c.LogRepo == nil {
		t.Fatal("expected service and repository to be wired")
	}

	if err := c.LogRepo.Append(context.Background(), &scan.Result{URL: "https://example.com", RiskLevel: scan.RiskLow}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "scan_logs.json")); err != nil {
		t.Errorf("expected scan_logs.json in data dir: %v", err)
	}
}

func TestNewContainer_SQLiteStore(t *testing.T) {
	dir := t.TempDir()
	c, err := NewContainer(context.Background(), Config{DataDir: dir, StoreDriver: "SQLite"}, nil)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	defer c.Close()

	if _, err := os.Stat(filepath.Join(dir, "scan_logs.db")); err != nil {
		t.Errorf("expected scan_logs.db in data dir: %v", err)
	}
}

func TestNewContainer_CustomStorePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "custom.json")
	c, err := NewContainer(context.Background(), Config{StorePath: path}, nil)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	defer c.Close()

	if err := c.LogRepo.Append(context.Background(), &scan.Result{URL: "https://example.com"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected custom log file: %v", err)
	}
}

func TestNewContainer_UnsupportedStore(t *testing.T) {
	_, err := NewContainer(context.Background(), Config{DataDir: t.TempDir(), StoreDriver: "postgres"}, nil)
	if !errors.Is(err, sharedErrors.ErrUnsupportedStore) {
		t.Fatalf("expected ErrUnsupportedStore, got %v", err)
	}
}
