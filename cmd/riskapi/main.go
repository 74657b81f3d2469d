// Command riskapi serves the simulated internal merchant-risk API used in
// development and tests. Responses are deterministic per merchant so runs
// are reproducible.
package main

import (
	"encoding/json"
	"hash/fnv"
	"log"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/claritypay/merchant-underwriter/internal/config"
	"github.com/claritypay/merchant-underwriter/internal/core/domain"
	"github.com/claritypay/merchant-underwriter/internal/observability/logging"
	"github.com/claritypay/merchant-underwriter/internal/observability/metrics"
)

const service = "risk-api"

var riskFlags = []domain.RiskFlag{domain.FlagLow, domain.FlagMedium, domain.FlagHigh}

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	httpMetrics := metrics.NewHTTPMetrics(service)

	mux := http.NewServeMux()
	mux.Handle("/metrics", httpMetrics.Handler())
	mux.HandleFunc("GET /risk/{merchant_id}", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		code := handleRisk(w, r)
		httpMetrics.ObserveRequest(service, "/risk", code, time.Since(start))
	})

	logger.Info("risk api listening", "port", cfg.RiskAPIPort)
	if err := http.ListenAndServe(":"+cfg.RiskAPIPort, mux); err != nil {
		log.Fatalf("risk api server: %v", err)
	}
}

func handleRisk(w http.ResponseWriter, r *http.Request) string {
	merchantID := r.PathValue("merchant_id")
	if !strings.HasPrefix(merchantID, domain.MerchantIDPrefix) {
		http.Error(w, `{"detail":"Invalid merchant_id"}`, http.StatusBadRequest)
		return "400"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(simulateRisk(merchantID)); err != nil {
		return "500"
	}
	return "200"
}

func simulateRisk(merchantID string) domain.InternalRiskReport {
	rng := rand.New(rand.NewSource(seedFor(merchantID)))

	volume := round2(10000 + rng.Float64()*190000)
	txnCount := 100 + rng.Intn(4901)
	now := time.Now().UTC().Truncate(24 * time.Hour)

	return domain.InternalRiskReport{
		MerchantID: merchantID,
		RiskFlag:   riskFlags[rng.Intn(len(riskFlags))],
		Summary: domain.TransactionSummary{
			Last30dVolume:   volume,
			Last30dTxnCount: txnCount,
			AvgTicketSize:   round2(volume / float64(txnCount)),
		},
		LastReviewDate: &now,
	}
}

func seedFor(merchantID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(merchantID))
	return int64(h.Sum64())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
