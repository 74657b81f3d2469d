package usecase

import (
	"fmt"
	"strings"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
)

// SchemaValidator gates pipeline entry. Checks run eagerly in a fixed order
// and the validator raises on the first violation: required columns, then
// merchant_id (nulls, prefix, duplicates), then name, country, numeric
// fields, and finally the strictly-positive transaction count.
type SchemaValidator struct{}

func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{}
}

func (v *SchemaValidator) Validate(table *domain.MerchantTable) error {
	if table == nil {
		return domain.WrapError(domain.ErrSchema, "validate table", fmt.Errorf("nil table"))
	}

	if err := v.checkRequiredColumns(table); err != nil {
		return err
	}
	if err := v.checkMerchantIDs(table.Records); err != nil {
		return err
	}
	if err := v.checkIdentityFields(table.Records); err != nil {
		return err
	}
	if err := v.checkNumericFields(table.Records); err != nil {
		return err
	}
	return nil
}

func (v *SchemaValidator) checkRequiredColumns(table *domain.MerchantTable) error {
	var missing []string
	for _, col := range domain.RequiredColumns {
		if !table.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return domain.WrapError(domain.ErrSchema, "validate columns",
			fmt.Errorf("missing required columns: %s", strings.Join(missing, ", ")))
	}
	return nil
}

func (v *SchemaValidator) checkMerchantIDs(records []domain.MerchantRecord) error {
	seen := make(map[string]struct{}, len(records))
	for i := range records {
		id := records[i].MerchantID
		if id == "" {
			return domain.WrapError(domain.ErrSchema, "validate merchant_id",
				fmt.Errorf("merchant_id contains null values (row %d)", i))
		}
		if !strings.HasPrefix(id, domain.MerchantIDPrefix) {
			return domain.WrapError(domain.ErrSchema, "validate merchant_id",
				fmt.Errorf("merchant_id must start with %q: %s", domain.MerchantIDPrefix, id))
		}
		if _, dup := seen[id]; dup {
			return domain.WrapError(domain.ErrSchema, "validate merchant_id",
				fmt.Errorf("duplicate merchant_id found: %s", id))
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (v *SchemaValidator) checkIdentityFields(records []domain.MerchantRecord) error {
	for i := range records {
		if records[i].Name == "" {
			return domain.WrapError(domain.ErrSchema, "validate name",
				fmt.Errorf("merchant name contains null values (merchant %s)", records[i].MerchantID))
		}
	}
	for i := range records {
		if records[i].Country == "" {
			return domain.WrapError(domain.ErrSchema, "validate country",
				fmt.Errorf("country contains null values (merchant %s)", records[i].MerchantID))
		}
	}
	return nil
}

func (v *SchemaValidator) checkNumericFields(records []domain.MerchantRecord) error {
	for i := range records {
		rec := &records[i]
		if rec.MonthlyVolume < 0 {
			return domain.WrapError(domain.ErrSchema, "validate monthly_volume",
				fmt.Errorf("monthly_volume contains negative values (merchant %s)", rec.MerchantID))
		}
		if rec.DisputeCount < 0 {
			return domain.WrapError(domain.ErrSchema, "validate dispute_count",
				fmt.Errorf("dispute_count contains negative values (merchant %s)", rec.MerchantID))
		}
		if rec.TransactionCount < 0 {
			return domain.WrapError(domain.ErrSchema, "validate transaction_count",
				fmt.Errorf("transaction_count contains negative values (merchant %s)", rec.MerchantID))
		}
	}
	// Zero is rejected here even though rate computation later floors it to
	// one; both checks are intentional.
	for i := range records {
		if records[i].TransactionCount == 0 {
			return domain.WrapError(domain.ErrSchema, "validate transaction_count",
				fmt.Errorf("transaction_count must be greater than 0 (merchant %s)", records[i].MerchantID))
		}
	}
	return nil
}
