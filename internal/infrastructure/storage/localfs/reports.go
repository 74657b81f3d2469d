// Package localfs stores rendered underwriting reports on the local disk.
package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

type ReportStore struct {
	root string
}

func NewReportStore(root string) (*ReportStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &ReportStore{root: root}, nil
}

// SaveReport writes the report and returns its path.
func (s *ReportStore) SaveReport(ctx context.Context, merchantID string, report string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.root, fmt.Sprintf("%s_underwriting_report.txt", merchantID))
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return "", fmt.Errorf("write report %s: %w", path, err)
	}
	return path, nil
}
