package domain

import (
	"fmt"
)

// FeatureNames is the fixed classifier feature order. The trained artifact
// stores its own copy; a mismatch between the two is a scoring failure, not
// a silent reorder.
var FeatureNames = []string{
	"monthly_volume",
	"transaction_count",
	"dispute_rate",
	"avg_ticket_size",
	"last_30d_volume",
	"last_30d_txn_count",
	"internal_flag_numeric",
	"is_high_risk_region",
	"pdf_mentions_refunds",
	"pdf_mentions_chargeback",
	"pdf_mentions_complaint",
	"num_value_props",
	"num_public_stats",
	"num_partners",
}

// Features exposes the scorable fields of a record by name.
func (r *MerchantRecord) Features() map[string]float64 {
	return map[string]float64{
		"monthly_volume":          r.MonthlyVolume,
		"transaction_count":       float64(r.TransactionCount),
		"dispute_rate":            r.Derived.DisputeRate,
		"avg_ticket_size":         r.Derived.AvgTicketSize,
		"last_30d_volume":         r.Internal.Last30dVolume,
		"last_30d_txn_count":      float64(r.Internal.Last30dTxnCount),
		"internal_flag_numeric":   r.Derived.FlagNumeric,
		"is_high_risk_region":     boolToFloat(r.Derived.HighRiskRegion),
		"pdf_mentions_refunds":    boolToFloat(r.Document.MentionsRefunds),
		"pdf_mentions_chargeback": boolToFloat(r.Document.MentionsChargeback),
		"pdf_mentions_complaint":  boolToFloat(r.Document.MentionsComplaint),
		"num_value_props":         float64(r.Web.NumValueProps),
		"num_public_stats":        float64(r.Web.NumPublicStats),
		"num_partners":            float64(r.Web.NumPartners),
	}
}

// FeatureVector assembles the record's features in the given order.
func (r *MerchantRecord) FeatureVector(names []string) ([]float64, error) {
	features := r.Features()
	vector := make([]float64, len(names))
	for i, name := range names {
		value, ok := features[name]
		if !ok {
			return nil, WrapError(ErrScoring, "build feature vector",
				fmt.Errorf("unknown feature %q", name))
		}
		vector[i] = value
	}
	return vector, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
