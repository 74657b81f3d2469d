package ingest

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
)

// LoadCSV reads a merchant book from a CSV file with a header row.
func LoadCSV(path string) (*domain.MerchantTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open merchant csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read merchant csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.WrapError(domain.ErrSchema, "load merchant csv",
			fmt.Errorf("empty file %s", path))
	}
	return buildTable(rows[0], rows[1:])
}
