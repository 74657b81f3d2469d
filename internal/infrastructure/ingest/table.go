// Package ingest loads merchant tables from CSV and XLSX files. Loaders
// preserve the file's column set so schema validation can name missing
// columns; numeric parsing failures surface as schema errors naming the
// offending field.
package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
)

func buildTable(header []string, rows [][]string) (*domain.MerchantTable, error) {
	index := make(map[string]int, len(header))
	columns := make([]string, 0, len(header))
	for i, col := range header {
		name := strings.TrimSpace(col)
		if name == "" {
			continue
		}
		index[name] = i
		columns = append(columns, name)
	}

	table := &domain.MerchantTable{
		Columns: columns,
		Records: make([]domain.MerchantRecord, 0, len(rows)),
	}
	for rowNum, row := range rows {
		rec, err := parseRow(index, row)
		if err != nil {
			return nil, domain.WrapError(domain.ErrSchema, "parse merchant row",
				fmt.Errorf("row %d: %w", rowNum+2, err))
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

func parseRow(index map[string]int, row []string) (domain.MerchantRecord, error) {
	cell := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := domain.MerchantRecord{
		MerchantID:         cell("merchant_id"),
		Name:               cell("name"),
		Country:            cell("country"),
		RegistrationNumber: cell("registration_number"),
	}

	var err error
	if rec.MonthlyVolume, err = parseFloatCell(cell("monthly_volume"), "monthly_volume"); err != nil {
		return domain.MerchantRecord{}, err
	}
	if rec.DisputeCount, err = parseIntCell(cell("dispute_count"), "dispute_count"); err != nil {
		return domain.MerchantRecord{}, err
	}
	if rec.TransactionCount, err = parseIntCell(cell("transaction_count"), "transaction_count"); err != nil {
		return domain.MerchantRecord{}, err
	}
	return rec, nil
}

func parseFloatCell(value, field string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be numeric, got %q", field, value)
	}
	return f, nil
}

func parseIntCell(value, field string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		// XLSX cells often render integers as floats.
		f, ferr := strconv.ParseFloat(value, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, fmt.Errorf("%s must be an integer, got %q", field, value)
		}
		return int(f), nil
	}
	return n, nil
}
