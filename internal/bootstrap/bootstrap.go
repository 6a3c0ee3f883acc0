package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/claim-assessor/internal/config"
	"github.com/kirillkom/claim-assessor/internal/core/assessment"
	"github.com/kirillkom/claim-assessor/internal/core/catalog"
	"github.com/kirillkom/claim-assessor/internal/core/ports"
	"github.com/kirillkom/claim-assessor/internal/core/stages"
	"github.com/kirillkom/claim-assessor/internal/core/usecase"
	rediscache "github.com/kirillkom/claim-assessor/internal/infrastructure/cache/redis"
	"github.com/kirillkom/claim-assessor/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/claim-assessor/internal/infrastructure/queue/nats"
	"github.com/kirillkom/claim-assessor/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/claim-assessor/internal/infrastructure/resilience"
	"github.com/kirillkom/claim-assessor/internal/observability/metrics"
	"github.com/kirillkom/claim-assessor/internal/observability/tracing"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

type Options struct {
	Service    string
	Logger     *slog.Logger
	Registerer prometheus.Registerer
}

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     *nats.Queue
	AssessUC  *usecase.AssessClaimUseCase
	CatalogUC *usecase.CatalogUseCase

	closeFn func()
}

// Engine builds the assessment engine alone: catalog, stages and assembler,
// with no storage or transport. claimctl uses it offline.
func Engine(cfg config.Config, notes ports.NotesWriter, logger *slog.Logger) (*assessment.Engine, *catalog.Loader, *catalog.Store, error) {
	loader, err := catalog.OpenLoader(cfg.CatalogDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open catalog loader: %w", err)
	}
	initial, err := loader.Load(cfg.CatalogVersion)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load catalog %s: %w", cfg.CatalogVersion, err)
	}
	store, err := catalog.NewStore(initial)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init catalog store: %w", err)
	}
	branch, err := stages.ParseThirdPartyBranch(cfg.ThirdPartyBranch)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("third-party branch: %w", err)
	}
	schema, err := assessment.NewOutputSchema()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("compile output schema: %w", err)
	}

	assembler := assessment.NewAssembler(notes, schema, logger)
	engine := assessment.NewEngine(store, stages.Pipeline(cfg.Thresholds(), branch), assembler, logger)
	return engine, loader, store, nil
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registerer := opts.Registerer
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		ServiceName:    opts.Service,
		ServiceVersion: Version,
		Endpoint:       cfg.OTELEndpoint,
		Insecure:       cfg.OTELInsecure,
		SampleRate:     cfg.OTELSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	assessmentMetrics := metrics.NewAssessmentMetrics(opts.Service, registerer)
	executor := resilience.NewExecutor(cfg.Resilience(),
		resilience.WithLogger(logger),
		resilience.WithHooks(resilience.Hooks{
			OnRetry:       assessmentMetrics.ObserveRetry,
			OnStateChange: assessmentMetrics.ObserveBreakerState,
		}),
	)

	var notes ports.NotesWriter
	if cfg.OllamaURL != "" {
		client := ollama.New(cfg.OllamaURL, cfg.OllamaModel, ollama.Options{
			Timeout:            time.Duration(cfg.OllamaTimeoutSeconds) * time.Second,
			MaxTokens:          cfg.OllamaMaxTokens,
			ResilienceExecutor: executor,
		})
		notes = ollama.NewNotesWriter(client)
	}

	engine, loader, store, err := Engine(cfg, notes, logger)
	if err != nil {
		return nil, err
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewAssessmentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, nats.Options{
		SubmittedSubject:   cfg.NATSSubmittedSubject,
		CompletedSubject:   cfg.NATSCompletedSubject,
		QueueGroup:         cfg.NATSQueueGroup,
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	assessOpts := []usecase.AssessOption{
		usecase.WithClaimHistory(repo),
		usecase.WithPublisher(queue),
		usecase.WithObserver(assessmentMetrics),
		usecase.WithLogger(logger),
	}
	var cache *rediscache.Cache
	if cfg.RedisAddr != "" {
		cache, err = rediscache.New(ctx, cfg.RedisAddr, rediscache.Options{
			Password:           cfg.RedisPassword,
			DB:                 cfg.RedisDB,
			TTL:                time.Duration(cfg.CacheTTLSeconds) * time.Second,
			ResilienceExecutor: executor,
		})
		if err != nil {
			queue.Close()
			_ = db.Close()
			return nil, fmt.Errorf("init assessment cache: %w", err)
		}
		assessOpts = append(assessOpts, usecase.WithCache(cache))
	}

	logger.Info("bootstrap_complete",
		"catalog_version", store.Current().Version(),
		"third_party_branch", cfg.ThirdPartyBranch,
		"cache_enabled", cache != nil,
		"llm_notes_enabled", notes != nil,
	)

	return &App{
		Config: cfg,
		Logger: logger,
		Queue:  queue,

		AssessUC:  usecase.NewAssessClaimUseCase(engine, repo, assessOpts...),
		CatalogUC: usecase.NewCatalogUseCase(loader, store, logger),

		closeFn: func() {
			queue.Close()
			if cache != nil {
				_ = cache.Close()
			}
			_ = db.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				logger.Warn("tracing_shutdown_failed", "error", err)
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
