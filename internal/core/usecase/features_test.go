package usecase

import (
	"math"
	"testing"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeBehavioralRatesFloorsTransactionCount(t *testing.T) {
	table := &domain.MerchantTable{Records: []domain.MerchantRecord{
		{MerchantID: "M001", MonthlyVolume: 500, DisputeCount: 2, TransactionCount: 0},
	}}

	b := NewFeatureBuilder(nil, testLogger())
	b.Build(table)

	d := table.Records[0].Derived
	if !almostEqual(d.DisputeRate, 2) {
		t.Fatalf("dispute rate = %v, want 2 (floored denominator)", d.DisputeRate)
	}
	if !almostEqual(d.AvgTicketSize, 500) {
		t.Fatalf("avg ticket = %v, want 500", d.AvgTicketSize)
	}
	if !table.RatesComputed {
		t.Fatalf("RatesComputed not set")
	}
}

func TestComputeBehavioralRatesDeriveChargebackAndFraud(t *testing.T) {
	table := &domain.MerchantTable{Records: []domain.MerchantRecord{
		{MerchantID: "M001", MonthlyVolume: 10000, DisputeCount: 5, TransactionCount: 1000},
	}}

	NewFeatureBuilder(nil, testLogger()).Build(table)

	d := table.Records[0].Derived
	if !almostEqual(d.DisputeRate, 0.005) {
		t.Fatalf("dispute rate = %v", d.DisputeRate)
	}
	if !almostEqual(d.ChargebackRate, d.DisputeRate) {
		t.Fatalf("chargeback rate = %v, want alias of dispute rate", d.ChargebackRate)
	}
	if !almostEqual(d.FraudRate, 0.6*d.ChargebackRate) {
		t.Fatalf("fraud rate = %v, want 0.6 * chargeback", d.FraudRate)
	}
}

func TestMapRiskFlagsOrdinalsAndUnknownDefault(t *testing.T) {
	table := &domain.MerchantTable{Records: []domain.MerchantRecord{
		{MerchantID: "M001", TransactionCount: 1, Internal: domain.InternalSignals{RiskFlag: domain.FlagLow}},
		{MerchantID: "M002", TransactionCount: 1, Internal: domain.InternalSignals{RiskFlag: domain.FlagMedium}},
		{MerchantID: "M003", TransactionCount: 1, Internal: domain.InternalSignals{RiskFlag: domain.FlagHigh}},
		{MerchantID: "M004", TransactionCount: 1, Internal: domain.InternalSignals{RiskFlag: "critical"}},
	}}

	NewFeatureBuilder(nil, testLogger()).Build(table)

	want := []float64{0, 1, 2, 1}
	for i, w := range want {
		if got := table.Records[i].Derived.FlagNumeric; got != w {
			t.Fatalf("record %d flag numeric = %v, want %v", i, got, w)
		}
	}
}

func TestMarkHighRiskRegions(t *testing.T) {
	table := &domain.MerchantTable{Records: []domain.MerchantRecord{
		{MerchantID: "M001", TransactionCount: 1, Geo: domain.CountrySignals{Region: "Africa"}},
		{MerchantID: "M002", TransactionCount: 1, Geo: domain.CountrySignals{Region: "Europe"}},
		{MerchantID: "M003", TransactionCount: 1, Geo: domain.CountrySignals{Region: "Unknown"}},
	}}

	NewFeatureBuilder([]string{"Africa", "South America"}, testLogger()).Build(table)

	if !table.Records[0].Derived.HighRiskRegion {
		t.Fatalf("Africa should be high risk")
	}
	if table.Records[1].Derived.HighRiskRegion || table.Records[2].Derived.HighRiskRegion {
		t.Fatalf("Europe and Unknown should not be high risk")
	}
}

func TestComputeCountryRiskDefaultsWithoutRates(t *testing.T) {
	table := &domain.MerchantTable{Records: []domain.MerchantRecord{
		{MerchantID: "M001", Country: "Brazil", Derived: domain.DerivedMetrics{ChargebackRate: 0.5, FraudRate: 0.3}},
	}}

	NewFeatureBuilder(nil, testLogger()).ComputeCountryRisk(table)

	if got := table.Records[0].Derived.CountryRiskScore; got != 0 {
		t.Fatalf("country risk = %v, want 0 before rates exist", got)
	}
}

func TestComputeCountryRiskGroupsByCountry(t *testing.T) {
	table := &domain.MerchantTable{Records: []domain.MerchantRecord{
		{MerchantID: "M001", Country: "Brazil", MonthlyVolume: 100, DisputeCount: 10, TransactionCount: 100},
		{MerchantID: "M002", Country: "Brazil", MonthlyVolume: 100, DisputeCount: 30, TransactionCount: 100},
		{MerchantID: "M003", Country: "Chile", MonthlyVolume: 100, DisputeCount: 0, TransactionCount: 100},
	}}

	NewFeatureBuilder(nil, testLogger()).Build(table)

	// Per record: (chargeback + fraud)/2 = cb * 0.8. Brazil mean over
	// cb 0.1 and 0.3 is 0.16.
	brazil := table.Records[0].Derived.CountryRiskScore
	if !almostEqual(brazil, 0.16) {
		t.Fatalf("Brazil country risk = %v, want 0.16", brazil)
	}
	if !almostEqual(table.Records[1].Derived.CountryRiskScore, brazil) {
		t.Fatalf("Brazil records disagree on country risk")
	}
	if !almostEqual(table.Records[2].Derived.CountryRiskScore, 0) {
		t.Fatalf("Chile country risk = %v, want 0", table.Records[2].Derived.CountryRiskScore)
	}
}

func TestCompositeScoreUsesFixedWeights(t *testing.T) {
	table := &domain.MerchantTable{Records: []domain.MerchantRecord{
		{
			MerchantID: "M001", Country: "Brazil",
			MonthlyVolume: 100, DisputeCount: 10, TransactionCount: 100,
			Internal: domain.InternalSignals{RiskFlag: domain.FlagHigh},
		},
	}}

	NewFeatureBuilder(nil, testLogger()).Build(table)

	d := table.Records[0].Derived
	want := 0.4*d.ChargebackRate + 0.3*d.FraudRate + 0.2*d.FlagNumeric + 0.1*d.CountryRiskScore
	if !almostEqual(d.RiskScore, want) {
		t.Fatalf("composite risk score = %v, want %v", d.RiskScore, want)
	}
}
