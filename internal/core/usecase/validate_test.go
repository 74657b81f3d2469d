package usecase

import (
	"strings"
	"testing"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
)

func validTable() *domain.MerchantTable {
	return &domain.MerchantTable{
		Columns: append([]string(nil), domain.RequiredColumns...),
		Records: []domain.MerchantRecord{
			{MerchantID: "M001", Name: "Acme Payments", Country: "Germany", RegistrationNumber: "R1", MonthlyVolume: 10000, DisputeCount: 2, TransactionCount: 500},
			{MerchantID: "M002", Name: "Borealis Shop", Country: "Brazil", RegistrationNumber: "R2", MonthlyVolume: 2500, DisputeCount: 0, TransactionCount: 120},
		},
	}
}

func TestValidateAcceptsWellFormedTable(t *testing.T) {
	if err := NewSchemaValidator().Validate(validTable()); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateNamesMissingColumns(t *testing.T) {
	table := validTable()
	table.Columns = []string{"merchant_id", "name", "country"}

	err := NewSchemaValidator().Validate(table)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
	for _, col := range []string{"registration_number", "monthly_volume", "dispute_count", "transaction_count"} {
		if !strings.Contains(err.Error(), col) {
			t.Fatalf("error should name missing column %q: %v", col, err)
		}
	}
}

func TestValidateMerchantIDViolationsHaveDistinctMessages(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*domain.MerchantTable)
		message string
	}{
		{
			name:    "null id",
			mutate:  func(tb *domain.MerchantTable) { tb.Records[1].MerchantID = "" },
			message: "null",
		},
		{
			name:    "bad prefix",
			mutate:  func(tb *domain.MerchantTable) { tb.Records[1].MerchantID = "X002" },
			message: "must start with",
		},
		{
			name:    "duplicate",
			mutate:  func(tb *domain.MerchantTable) { tb.Records[1].MerchantID = "M001" },
			message: "duplicate",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			table := validTable()
			tc.mutate(table)

			err := NewSchemaValidator().Validate(table)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !domain.IsKind(err, domain.ErrSchema) {
				t.Fatalf("expected ErrSchema, got %v", err)
			}
			if !strings.Contains(strings.ToLower(err.Error()), tc.message) {
				t.Fatalf("expected message containing %q, got %v", tc.message, err)
			}
		})
	}
}

func TestValidateRejectsNullIdentityFields(t *testing.T) {
	table := validTable()
	table.Records[0].Name = ""
	if err := NewSchemaValidator().Validate(table); err == nil || !strings.Contains(err.Error(), "name") {
		t.Fatalf("expected name violation, got %v", err)
	}

	table = validTable()
	table.Records[0].Country = ""
	if err := NewSchemaValidator().Validate(table); err == nil || !strings.Contains(err.Error(), "country") {
		t.Fatalf("expected country violation, got %v", err)
	}
}

func TestValidateRejectsNegativeNumerics(t *testing.T) {
	table := validTable()
	table.Records[0].MonthlyVolume = -1
	if err := NewSchemaValidator().Validate(table); err == nil || !strings.Contains(err.Error(), "monthly_volume") {
		t.Fatalf("expected monthly_volume violation, got %v", err)
	}

	table = validTable()
	table.Records[1].DisputeCount = -3
	if err := NewSchemaValidator().Validate(table); err == nil || !strings.Contains(err.Error(), "dispute_count") {
		t.Fatalf("expected dispute_count violation, got %v", err)
	}
}

func TestValidateRejectsZeroTransactionCount(t *testing.T) {
	table := validTable()
	table.Records[1].TransactionCount = 0

	err := NewSchemaValidator().Validate(table)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "greater than 0") {
		t.Fatalf("expected strict positivity violation, got %v", err)
	}
}
