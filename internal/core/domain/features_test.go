package domain

import "testing"

func TestFeatureVectorFollowsRequestedOrder(t *testing.T) {
	rec := MerchantRecord{
		MonthlyVolume:    1000,
		TransactionCount: 50,
		Internal:         InternalSignals{Last30dVolume: 900, Last30dTxnCount: 45},
		Document:         DocumentSignals{MentionsRefunds: true},
		Web:              WebSignals{NumValueProps: 3, NumPublicStats: 2, NumPartners: 1},
		Derived:          DerivedMetrics{DisputeRate: 0.01, AvgTicketSize: 20, FlagNumeric: 2, HighRiskRegion: true},
	}

	row, err := rec.FeatureVector([]string{"num_partners", "monthly_volume", "is_high_risk_region"})
	if err != nil {
		t.Fatalf("FeatureVector() error = %v", err)
	}
	want := []float64{1, 1000, 1}
	for i := range want {
		if row[i] != want[i] {
			t.Fatalf("row = %v, want %v", row, want)
		}
	}
}

func TestFeatureVectorFullNameSet(t *testing.T) {
	rec := MerchantRecord{}
	row, err := rec.FeatureVector(FeatureNames)
	if err != nil {
		t.Fatalf("FeatureVector() error = %v", err)
	}
	if len(row) != len(FeatureNames) {
		t.Fatalf("row length = %d, want %d", len(row), len(FeatureNames))
	}
}

func TestFeatureVectorUnknownName(t *testing.T) {
	rec := MerchantRecord{}
	if _, err := rec.FeatureVector([]string{"nonexistent"}); err == nil {
		t.Fatalf("expected error")
	} else if !IsKind(err, ErrScoring) {
		t.Fatalf("expected ErrScoring, got %v", err)
	}
}

func TestFindByID(t *testing.T) {
	table := MerchantTable{Records: []MerchantRecord{
		{MerchantID: "M001"}, {MerchantID: "M002"},
	}}

	if rec := table.FindByID("M002"); rec == nil || rec.MerchantID != "M002" {
		t.Fatalf("FindByID(M002) = %v", rec)
	}
	if rec := table.FindByID("M999"); rec != nil {
		t.Fatalf("FindByID(M999) = %v, want nil", rec)
	}
}
