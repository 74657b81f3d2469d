package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
	"github.com/claritypay/merchant-underwriter/internal/core/ports"
)

// Enricher runs the four enrichment stages over the full table, one stage at
// a time. Each stage writes only its own field set. The country, document,
// and web stages recover from collaborator failure with documented fallback
// values; the internal-risk stage has no fallback and propagates.
type Enricher struct {
	riskAPI   ports.InternalRiskAPI
	countries ports.CountryMetadata
	documents ports.DocumentExtractor
	scraper   ports.WebScraper
	logger    *slog.Logger

	// OnFallback is invoked once per applied fallback, keyed by stage name;
	// nil disables observation.
	OnFallback func(stage string)
}

func NewEnricher(
	riskAPI ports.InternalRiskAPI,
	countries ports.CountryMetadata,
	documents ports.DocumentExtractor,
	scraper ports.WebScraper,
	logger *slog.Logger,
) *Enricher {
	return &Enricher{
		riskAPI:   riskAPI,
		countries: countries,
		documents: documents,
		scraper:   scraper,
		logger:    logger,
	}
}

// EnrichInternalRisk fetches the internal assessment per merchant. Any
// failure aborts the stage; the records already enriched keep their values.
func (e *Enricher) EnrichInternalRisk(ctx context.Context, table *domain.MerchantTable) error {
	for i := range table.Records {
		rec := &table.Records[i]
		report, err := e.riskAPI.FetchRisk(ctx, rec.MerchantID)
		if err != nil {
			return domain.WrapError(domain.ErrCollaborator, "internal risk enrichment",
				fmt.Errorf("merchant %s: %w", rec.MerchantID, err))
		}
		rec.Internal = domain.InternalSignals{
			RiskFlag:        report.RiskFlag,
			Last30dVolume:   report.Summary.Last30dVolume,
			Last30dTxnCount: report.Summary.Last30dTxnCount,
			AvgTicketSize:   report.Summary.AvgTicketSize,
			LastReviewDate:  report.LastReviewDate,
		}
	}
	return nil
}

// EnrichCountry resolves region/subregion per record. Lookups are memoized
// per country name for the run; any failure yields the Unknown pair and a
// warning, never an error.
func (e *Enricher) EnrichCountry(ctx context.Context, table *domain.MerchantTable) {
	cache := make(map[string]domain.CountryMeta)
	for i := range table.Records {
		rec := &table.Records[i]
		meta, ok := cache[rec.Country]
		if !ok {
			var err error
			meta, err = e.countries.FetchCountryMeta(ctx, rec.Country)
			if err != nil {
				e.logger.Warn("country metadata lookup failed, using fallback",
					"country", rec.Country, "error", err)
				e.fallback("country")
				meta = domain.UnknownCountryMeta()
			}
			cache[rec.Country] = meta
		}
		rec.Geo = domain.CountrySignals{Region: meta.Region, Subregion: meta.Subregion}
	}
}

// EnrichDocument extracts the merchant summary document once and applies the
// derived signals to every record. Extraction failure or empty text degrades
// to the zero signal.
func (e *Enricher) EnrichDocument(ctx context.Context, table *domain.MerchantTable, path string) {
	text := ""
	if path != "" {
		extracted, err := e.documents.ExtractText(ctx, path)
		if err != nil {
			e.logger.Warn("document extraction failed, using zero signal",
				"path", path, "error", err)
			e.fallback("document")
		} else {
			text = extracted
		}
	}
	signals := BuildDocumentSignals(text)
	for i := range table.Records {
		table.Records[i].Document = signals
	}
}

// EnrichWeb scrapes the merchant site once and applies the counts to every
// record. Scrape failure degrades to zero counts.
func (e *Enricher) EnrichWeb(ctx context.Context, table *domain.MerchantTable) {
	presence, err := e.scraper.Scrape(ctx)
	if err != nil {
		e.logger.Warn("web scrape failed, using zero counts", "error", err)
		e.fallback("web")
		presence = domain.WebPresence{}
	}
	signals := domain.WebSignals{
		NumValueProps:  len(presence.ValuePropositions),
		NumPublicStats: len(presence.PublicStats),
		NumPartners:    len(presence.Partners),
	}
	for i := range table.Records {
		table.Records[i].Web = signals
	}
}

func (e *Enricher) fallback(stage string) {
	if e.OnFallback != nil {
		e.OnFallback(stage)
	}
}

// riskKeywords drive the composite document risk ratio.
var riskKeywords = []string{"fraud", "lawsuit", "bankruptcy"}

// BuildDocumentSignals runs the case-insensitive substring tests against the
// extracted text. Empty text yields all-false signals and a zero ratio.
func BuildDocumentSignals(text string) domain.DocumentSignals {
	if text == "" {
		return domain.DocumentSignals{}
	}
	lower := strings.ToLower(text)

	hits := 0
	for _, kw := range riskKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}

	return domain.DocumentSignals{
		MentionsRefunds:    strings.Contains(lower, "refund"),
		MentionsChargeback: strings.Contains(lower, "chargeback"),
		MentionsComplaint:  strings.Contains(lower, "complaint"),
		RiskSignal:         float64(hits) / float64(len(riskKeywords)),
	}
}
