package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
)

// RunRepository persists scored pipeline runs: one row per run plus one row
// per scored merchant.
type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent pipeline starts.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS underwriting_runs (
	id TEXT PRIMARY KEY,
	total_merchants INTEGER NOT NULL,
	num_high_risk INTEGER NOT NULL,
	num_medium_risk INTEGER NOT NULL,
	num_low_risk INTEGER NOT NULL,
	expected_high_risk DOUBLE PRECISION NOT NULL,
	average_risk_probability DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS merchant_scores (
	run_id TEXT NOT NULL REFERENCES underwriting_runs(id),
	merchant_id TEXT NOT NULL,
	country TEXT NOT NULL,
	region TEXT NOT NULL,
	risk_score DOUBLE PRECISION NOT NULL,
	risk_probability DOUBLE PRECISION NOT NULL,
	predicted_high_risk BOOLEAN NOT NULL,
	risk_tier TEXT NOT NULL,
	PRIMARY KEY (run_id, merchant_id)
);

CREATE INDEX IF NOT EXISTS idx_merchant_scores_tier ON merchant_scores(risk_tier);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *RunRepository) SaveRun(ctx context.Context, runID string, records []domain.MerchantRecord, metrics domain.PortfolioMetrics) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO underwriting_runs (
	id, total_merchants, num_high_risk, num_medium_risk, num_low_risk,
	expected_high_risk, average_risk_probability, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		runID, metrics.TotalMerchants, metrics.NumHighRisk, metrics.NumMediumRisk,
		metrics.NumLowRisk, metrics.ExpectedHighRisk, metrics.AverageRiskProbability,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i := range records {
		rec := &records[i]
		_, err = tx.ExecContext(ctx, `
INSERT INTO merchant_scores (
	run_id, merchant_id, country, region, risk_score,
	risk_probability, predicted_high_risk, risk_tier
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
			runID, rec.MerchantID, rec.Country, rec.Geo.Region, rec.Derived.RiskScore,
			rec.Scoring.Probability, rec.Scoring.HighRisk, string(rec.Scoring.Tier),
		)
		if err != nil {
			return fmt.Errorf("insert merchant score %s: %w", rec.MerchantID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run tx: %w", err)
	}
	return nil
}

// HighestRiskMerchant returns the merchant with the top probability in a
// persisted run.
func (r *RunRepository) HighestRiskMerchant(ctx context.Context, runID string) (string, float64, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT merchant_id, risk_probability
FROM merchant_scores
WHERE run_id = $1
ORDER BY risk_probability DESC
LIMIT 1
`, runID)

	var merchantID string
	var probability float64
	if err := row.Scan(&merchantID, &probability); err != nil {
		if err == sql.ErrNoRows {
			return "", 0, domain.WrapError(domain.ErrMerchantNotFound, "highest risk merchant", err)
		}
		return "", 0, fmt.Errorf("query highest risk merchant: %w", err)
	}
	return merchantID, probability, nil
}
