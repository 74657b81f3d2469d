package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/claritypay/merchant-underwriter/internal/bootstrap"
	"github.com/claritypay/merchant-underwriter/internal/config"
	"github.com/claritypay/merchant-underwriter/internal/core/domain"
	"github.com/claritypay/merchant-underwriter/internal/infrastructure/ingest"
	"github.com/claritypay/merchant-underwriter/internal/observability/logging"
	"github.com/claritypay/merchant-underwriter/internal/observability/metrics"
)

const service = "underwriting-pipeline"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(service, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	pipelineMetrics := metrics.NewPipelineMetrics(service)
	app.Pipeline.Observer = func(stage string, duration time.Duration, err error) {
		pipelineMetrics.ObserveStage(service, stage, duration, err)
	}
	app.Enricher.OnFallback = func(stage string) {
		pipelineMetrics.IncFallback(service, stage)
	}
	go serveMetrics(cfg.MetricsPort, pipelineMetrics, logger)

	table, err := loadMerchants(cfg.MerchantFile)
	if err != nil {
		log.Fatalf("load merchants: %v", err)
	}
	pipelineMetrics.SetRunSize(len(table.Records))

	result, err := app.Pipeline.Run(ctx, table)
	if err != nil {
		log.Fatalf("pipeline run: %v", err)
	}

	printPortfolio(result.Portfolio)

	top := highestRisk(result.Table)
	if top == nil {
		return
	}

	report, err := app.Reports.Narrate(ctx, *top, result.Importance, result.Portfolio)
	if err != nil {
		log.Fatalf("report generation: %v", err)
	}
	fmt.Println(report)

	path, err := app.ReportStore.SaveReport(ctx, top.MerchantID, report)
	if err != nil {
		logger.Warn("report save failed", "merchant_id", top.MerchantID, "error", err)
		return
	}
	logger.Info("report saved", "merchant_id", top.MerchantID, "path", path)
}

func loadMerchants(path string) (*domain.MerchantTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ingest.LoadXLSX(path)
	default:
		return ingest.LoadCSV(path)
	}
}

func highestRisk(table *domain.MerchantTable) *domain.MerchantRecord {
	if len(table.Records) == 0 {
		return nil
	}
	ranked := make([]*domain.MerchantRecord, len(table.Records))
	for i := range table.Records {
		ranked[i] = &table.Records[i]
	}
	sort.Slice(ranked, func(a, b int) bool {
		return ranked[a].Scoring.Probability > ranked[b].Scoring.Probability
	})
	return ranked[0]
}

func printPortfolio(m domain.PortfolioMetrics) {
	fmt.Println("--- Portfolio-level Risk Metrics ---")
	fmt.Printf("num_high_risk: %d\n", m.NumHighRisk)
	fmt.Printf("num_medium_risk: %d\n", m.NumMediumRisk)
	fmt.Printf("num_low_risk: %d\n", m.NumLowRisk)
	fmt.Printf("expected_high_risk_merchants: %.3f\n", m.ExpectedHighRisk)
	fmt.Printf("average_risk_probability: %.3f\n", m.AverageRiskProbability)
}

func serveMetrics(port string, m *metrics.PipelineMetrics, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		logger.Warn("metrics server stopped", "error", err)
	}
}
