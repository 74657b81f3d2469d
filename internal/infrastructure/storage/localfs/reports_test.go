package localfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveReport(t *testing.T) {
	root := t.TempDir()
	store, err := NewReportStore(root)
	if err != nil {
		t.Fatalf("NewReportStore() error = %v", err)
	}

	path, err := store.SaveReport(context.Background(), "M017", "report body")
	if err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}
	if path != filepath.Join(root, "M017_underwriting_report.txt") {
		t.Fatalf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if string(data) != "report body" {
		t.Fatalf("contents = %q", data)
	}
}

func TestSaveReportCanceledContext(t *testing.T) {
	store, err := NewReportStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewReportStore() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.SaveReport(ctx, "M017", "body"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewReportStoreCreatesNestedDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b", "reports")
	if _, err := NewReportStore(root); err != nil {
		t.Fatalf("NewReportStore() error = %v", err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		t.Fatalf("report dir not created: %v", err)
	}
}
