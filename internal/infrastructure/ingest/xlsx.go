package ingest

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
)

// LoadXLSX reads a merchant book from the first sheet of an XLSX workbook.
func LoadXLSX(path string) (*domain.MerchantTable, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open merchant workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.WrapError(domain.ErrSchema, "load merchant workbook",
			fmt.Errorf("no sheets in %s", path))
	}

	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, domain.WrapError(domain.ErrSchema, "load merchant workbook",
			fmt.Errorf("empty sheet %s", sheets[0]))
	}
	return buildTable(rows[0], rows[1:])
}
