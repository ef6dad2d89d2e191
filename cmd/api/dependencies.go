package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/advisor"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/categorization"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/scoring"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement/handler"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement/parser"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement/service"
	"github.com/FACorreiaa/statement-analyzer/pkg/config"
	"github.com/FACorreiaa/statement-analyzer/pkg/cron"
	"github.com/FACorreiaa/statement-analyzer/pkg/interceptors"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry

	// Classification
	Catalog     *categorization.Catalog
	Classifier  *categorization.Classifier
	SearchIndex *categorization.SearchIndex

	// Services
	Extractor        *parser.Extractor
	Advisor          *advisor.GeminiAdvisor
	ScoreEngine      *scoring.Engine
	PipelineMetrics  *service.Metrics
	StatementService *service.StatementService

	// Transport
	HTTPMetrics      *interceptors.HTTPMetrics
	RateLimiter      *interceptors.RateLimiter
	StatementHandler *handler.StatementHandler

	Scheduler *cron.Scheduler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initRegistry()

	if err := deps.initClassifier(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init classifier: %w", err)
	}

	if err := deps.initServices(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.initHandlers()
	deps.initScheduler()

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initRegistry creates the metrics registry with runtime collectors
func (d *Dependencies) initRegistry() {
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// initClassifier loads the provider catalog and builds the classifier and
// the catalog search index from it
func (d *Dependencies) initClassifier() error {
	catalog := categorization.DefaultCatalog()
	if path := d.Config.Classifier.CatalogPath; path != "" {
		loaded, err := categorization.LoadCatalogFile(path)
		if err != nil {
			return err
		}
		catalog = loaded
	}
	d.Catalog = catalog

	classifier, err := categorization.NewClassifier(catalog, d.Logger)
	if err != nil {
		return err
	}
	d.Classifier = classifier

	index, err := categorization.NewSearchIndex(catalog)
	if err != nil {
		return fmt.Errorf("failed to build catalog index: %w", err)
	}
	d.SearchIndex = index

	d.Logger.Info("classifier initialized",
		slog.Int("providers", len(catalog.Providers)),
		slog.Int("search_entries", index.Len()),
		slog.Bool("custom_catalog", d.Config.Classifier.CatalogPath != ""))
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices(ctx context.Context) error {
	d.Extractor = parser.NewExtractor(parser.Config{
		HeaderScanRows: d.Config.Pipeline.HeaderScanRows,
		SampleSize:     d.Config.Pipeline.SampleSize,
	})

	// Score hints are optional; without a key the engine is rule based only
	var provider scoring.HintProvider
	if d.Config.Gemini.Enabled() {
		adv, err := advisor.NewGeminiAdvisor(ctx, d.Config.Gemini.APIKey, d.Config.Gemini.Model, d.Logger)
		if err != nil {
			return err
		}
		d.Advisor = adv
		provider = adv
	} else {
		d.Logger.Warn("GEMINI_API_KEY not set, score hints disabled")
	}
	d.ScoreEngine = scoring.NewEngine(provider, d.Config.Gemini.Timeout, d.Logger)

	d.PipelineMetrics = service.NewMetrics(d.Registry)
	d.StatementService = service.NewStatementService(
		d.Extractor,
		d.Classifier,
		d.ScoreEngine,
		d.PipelineMetrics,
		service.Config{MaxUploadBytes: d.Config.Upload.MaxBytes},
		d.Logger,
	)

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() {
	d.StatementHandler = handler.NewStatementHandler(
		d.StatementService,
		d.SearchIndex,
		handler.Config{MaxTransactions: d.Config.Pipeline.MaxTransactions},
		d.Logger,
	)
	d.HTTPMetrics = interceptors.NewHTTPMetrics(d.Registry)
	d.RateLimiter = interceptors.NewRateLimiter(
		float64(d.Config.Server.RateLimitPerSecond),
		d.Config.Server.RateLimitBurst,
	)

	d.Logger.Info("handlers initialized")
}

// initScheduler wires the catalog reload job. It is started by the caller.
func (d *Dependencies) initScheduler() {
	d.Scheduler = cron.NewScheduler(
		d.Config.Classifier.CatalogPath,
		d.Config.Classifier.ReloadSchedule,
		d.Logger,
		catalogConsumers(d.Classifier, d.SearchIndex)...,
	)
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Advisor != nil {
		if err := d.Advisor.Close(); err != nil {
			d.Logger.Warn("failed to close gemini client", slog.Any("error", err))
		}
	}
	if d.SearchIndex != nil {
		if err := d.SearchIndex.Close(); err != nil {
			d.Logger.Warn("failed to close search index", slog.Any("error", err))
		}
	}
	d.Logger.Info("cleanup completed")
}
