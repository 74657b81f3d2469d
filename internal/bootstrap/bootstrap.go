package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claritypay/merchant-underwriter/internal/config"
	"github.com/claritypay/merchant-underwriter/internal/core/ports"
	"github.com/claritypay/merchant-underwriter/internal/core/usecase"
	"github.com/claritypay/merchant-underwriter/internal/infrastructure/countries"
	"github.com/claritypay/merchant-underwriter/internal/infrastructure/extractor/pdfdoc"
	"github.com/claritypay/merchant-underwriter/internal/infrastructure/llm/ollama"
	"github.com/claritypay/merchant-underwriter/internal/infrastructure/model"
	natsqueue "github.com/claritypay/merchant-underwriter/internal/infrastructure/queue/nats"
	"github.com/claritypay/merchant-underwriter/internal/infrastructure/repository/postgres"
	"github.com/claritypay/merchant-underwriter/internal/infrastructure/resilience"
	"github.com/claritypay/merchant-underwriter/internal/infrastructure/riskapi"
	"github.com/claritypay/merchant-underwriter/internal/infrastructure/scraper"
	"github.com/claritypay/merchant-underwriter/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Pipeline    *usecase.UnderwritingPipeline
	Enricher    *usecase.Enricher
	Reports     *usecase.ReportAssembler
	ReportStore ports.ReportStore
	Artifacts   *model.ArtifactStore

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	executor := resilience.NewExecutor(resilience.DefaultPolicy())

	enricher := usecase.NewEnricher(
		riskapi.New(cfg.RiskAPIURL, executor),
		countries.New(cfg.CountriesAPIURL, cfg.CountriesRPS),
		pdfdoc.NewExtractor(),
		scraper.New(cfg.ScrapeURL, cfg.ScrapeRPS),
		logger,
	)
	features := usecase.NewFeatureBuilder(cfg.HighRiskRegions, logger)

	policy, err := config.LoadScoringPolicy(cfg.ScoringPolicyPath)
	if err != nil {
		return nil, fmt.Errorf("load scoring policy: %w", err)
	}

	artifacts := model.NewArtifactStore(cfg.ModelArtifactPath)
	trainer := model.NewTrainer(model.DefaultTrainerConfig(), artifacts, logger)

	closers := make([]func(), 0, 2)

	var repo ports.RunRepository
	if cfg.PersistEnabled {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		runRepo := postgres.NewRunRepository(db)
		if err := runRepo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		repo = runRepo
		closers = append(closers, func() { _ = db.Close() })
	}

	var reviews ports.ReviewQueue
	if cfg.ReviewQueueEnabled {
		queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init review queue: %w", err)
		}
		reviews = queue
		closers = append(closers, queue.Close)
	}

	var generator ports.NarrativeGenerator
	if cfg.NarrativeEnabled {
		generator = ollama.New(cfg.OllamaURL, cfg.OllamaGenModel)
	}

	reportStore, err := localfs.NewReportStore(cfg.ReportDir)
	if err != nil {
		return nil, fmt.Errorf("init report store: %w", err)
	}

	pipeline := usecase.NewUnderwritingPipeline(
		usecase.NewSchemaValidator(),
		enricher,
		features,
		trainer,
		policy,
		usecase.NewPortfolioAggregator(),
		repo,
		reviews,
		logger,
	)
	pipeline.DocumentPath = cfg.DocumentPath
	if cfg.UseSavedModel {
		pipeline.Pretrained = artifacts
	}

	return &App{
		Config:      cfg,
		Pipeline:    pipeline,
		Enricher:    enricher,
		Reports:     usecase.NewReportAssembler(generator, logger),
		ReportStore: reportStore,
		Artifacts:   artifacts,
		closeFn: func() {
			for _, close := range closers {
				close()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
