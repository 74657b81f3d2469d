package domain

import "time"

// MerchantIDPrefix is the mandatory prefix for every merchant identifier.
const MerchantIDPrefix = "M"

type RiskFlag string

const (
	FlagLow    RiskFlag = "low"
	FlagMedium RiskFlag = "medium"
	FlagHigh   RiskFlag = "high"
)

type RiskTier string

const (
	TierLow    RiskTier = "Low"
	TierMedium RiskTier = "Medium"
	TierHigh   RiskTier = "High"
)

// RequiredColumns are the columns a merchant table must carry at ingestion.
var RequiredColumns = []string{
	"merchant_id",
	"name",
	"country",
	"registration_number",
	"monthly_volume",
	"dispute_count",
	"transaction_count",
}

// MerchantRecord is one row of the working table. Enrichment stages each own
// one sub-struct and never write outside it, so a failed stage cannot corrupt
// fields written by an earlier one.
type MerchantRecord struct {
	MerchantID         string  `json:"merchant_id"`
	Name               string  `json:"name"`
	Country            string  `json:"country"`
	RegistrationNumber string  `json:"registration_number"`
	MonthlyVolume      float64 `json:"monthly_volume"`
	DisputeCount       int     `json:"dispute_count"`
	TransactionCount   int     `json:"transaction_count"`

	Internal InternalSignals `json:"internal"`
	Geo      CountrySignals  `json:"geo"`
	Document DocumentSignals `json:"document"`
	Web      WebSignals      `json:"web"`
	Derived  DerivedMetrics  `json:"derived"`
	Scoring  ScoringResult   `json:"scoring"`
}

// InternalSignals is owned by the internal-risk enrichment stage.
type InternalSignals struct {
	RiskFlag        RiskFlag   `json:"internal_risk_flag"`
	Last30dVolume   float64    `json:"last_30d_volume"`
	Last30dTxnCount int        `json:"last_30d_txn_count"`
	AvgTicketSize   float64    `json:"avg_ticket_size"`
	LastReviewDate  *time.Time `json:"last_review_date,omitempty"`
}

// CountrySignals is owned by the country-metadata enrichment stage.
type CountrySignals struct {
	Region    string `json:"region"`
	Subregion string `json:"subregion"`
}

// DocumentSignals is owned by the document enrichment stage. An absent or
// empty merchant summary yields the zero value.
type DocumentSignals struct {
	MentionsRefunds    bool    `json:"pdf_mentions_refunds"`
	MentionsChargeback bool    `json:"pdf_mentions_chargeback"`
	MentionsComplaint  bool    `json:"pdf_mentions_complaint"`
	RiskSignal         float64 `json:"pdf_risk_signal"`
}

// WebSignals is owned by the web-scrape enrichment stage.
type WebSignals struct {
	NumValueProps  int `json:"num_value_props"`
	NumPublicStats int `json:"num_public_stats"`
	NumPartners    int `json:"num_partners"`
}

// DerivedMetrics is owned by the derived-metric computation step.
type DerivedMetrics struct {
	DisputeRate      float64 `json:"dispute_rate"`
	AvgTicketSize    float64 `json:"avg_ticket_size"`
	ChargebackRate   float64 `json:"chargeback_rate"`
	FraudRate        float64 `json:"fraud_rate"`
	FlagNumeric      float64 `json:"internal_flag_numeric"`
	HighRiskRegion   bool    `json:"is_high_risk_region"`
	CountryRiskScore float64 `json:"country_risk_score"`
	RiskScore        float64 `json:"risk_score"`
}

// ScoringResult is owned by the scoring engine.
type ScoringResult struct {
	Probability float64  `json:"risk_probability"`
	HighRisk    bool     `json:"predicted_high_risk"`
	Tier        RiskTier `json:"risk_tier"`
}

// MerchantTable is the working table for one pipeline run. Columns records
// which columns the loader actually saw, so schema validation can name the
// missing ones. RatesComputed flips once behavioral rates exist; country risk
// refuses to read rates before that and defaults to zero instead.
type MerchantTable struct {
	Columns       []string
	Records       []MerchantRecord
	RatesComputed bool
}

func (t *MerchantTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

func (t *MerchantTable) FindByID(merchantID string) *MerchantRecord {
	for i := range t.Records {
		if t.Records[i].MerchantID == merchantID {
			return &t.Records[i]
		}
	}
	return nil
}

// InternalRiskReport is the internal-risk collaborator response shape.
type InternalRiskReport struct {
	MerchantID     string             `json:"merchant_id"`
	RiskFlag       RiskFlag           `json:"internal_risk_flag"`
	Summary        TransactionSummary `json:"transaction_summary"`
	LastReviewDate *time.Time         `json:"last_review_date,omitempty"`
}

type TransactionSummary struct {
	Last30dVolume   float64 `json:"last_30d_volume"`
	Last30dTxnCount int     `json:"last_30d_txn_count"`
	AvgTicketSize   float64 `json:"avg_ticket_size"`
}

// CountryMeta is the country-metadata collaborator response shape.
type CountryMeta struct {
	Region    string `json:"region"`
	Subregion string `json:"subregion"`
}

// UnknownCountryMeta is the documented fallback pair for any country lookup
// failure.
func UnknownCountryMeta() CountryMeta {
	return CountryMeta{Region: "Unknown", Subregion: "Unknown"}
}

// WebPresence is the web-scrape collaborator response shape. Every list may
// be empty.
type WebPresence struct {
	ValuePropositions []string `json:"value_propositions"`
	PublicStats       []string `json:"public_stats"`
	Partners          []string `json:"partners"`
}

// FeatureWeight is one entry of the trained model's coefficient-based
// feature importance, kept for report explainability.
type FeatureWeight struct {
	Feature     string  `json:"feature"`
	Coefficient float64 `json:"coefficient"`
}

// PortfolioMetrics is the reduction of one scored table.
type PortfolioMetrics struct {
	NumHighRisk            int     `json:"num_high_risk"`
	NumMediumRisk          int     `json:"num_medium_risk"`
	NumLowRisk             int     `json:"num_low_risk"`
	ExpectedHighRisk       float64 `json:"expected_high_risk_merchants"`
	AverageRiskProbability float64 `json:"average_risk_probability"`
	TotalMerchants         int     `json:"total_merchants"`
}
