package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"Factulist/internal/config"
	"Factulist/internal/export"
	"Factulist/internal/extract"
	"Factulist/internal/infrastructure/document"
	"Factulist/internal/infrastructure/httpapi"
	"Factulist/internal/infrastructure/metrics"
	"Factulist/internal/infrastructure/ml"
	"Factulist/internal/infrastructure/probe"
	"Factulist/internal/infrastructure/storage"
	"Factulist/internal/infrastructure/telegram"
	"Factulist/internal/infrastructure/web"
	"Factulist/internal/lexicon"
	"Factulist/internal/logging"
	"Factulist/internal/ports"
	"Factulist/internal/report"
	"Factulist/internal/scoring"
	"Factulist/internal/stats"
	"Factulist/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	Pipeline *usecase.Pipeline
	History  *usecase.History
	Prober   *probe.Prober
	Metrics  *metrics.Metrics
	CSV      export.CSV
	PDF      export.PDF

	closers []func() error
}

// New builds the runnable application. Backends are opened eagerly so
// misconfiguration surfaces at startup.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging)
	}
	a := &Application{cfg: cfg, logger: baseLogger, Metrics: metrics.New()}

	reports, sourceStats, err := a.openStorage(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	vocab := lexicon.Default()
	if len(cfg.Scoring.Vocabulary) > 0 {
		vocab = lexicon.New(cfg.Scoring.Vocabulary)
	}

	registry := extract.NewRegistry(document.PDFParser{}, document.DOCXParser{})
	fetcher := web.NewFetcher(nil, web.Options{
		Timeout:   cfg.Extraction.Timeout,
		UserAgent: cfg.Extraction.UserAgent,
		CacheSize: cfg.Extraction.CacheSize,
	}, baseLogger.With("component", "fetcher"))
	extractor := extract.New(fetcher, registry, extract.Options{
		MaxChars: cfg.Extraction.MaxChars,
		Timeout:  cfg.Extraction.Timeout,
	}, baseLogger.With("component", "extractor"))

	bias := a.biasScorer(vocab)
	reputation := scoring.LoadReputationTable(cfg.Scoring.ReputationPath, baseLogger.With("component", "reputation"))
	credibility := scoring.NewCredibilityScorer(reputation, vocab)

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	a.Pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Extractor:   extractor,
		Bias:        bias,
		Credibility: credibility,
		Assembler:   report.NewAssembler(reports, bias.Name()),
		Stats:       stats.NewAggregator(sourceStats, baseLogger.With("component", "stats")),
		Notifier:    notifier,
		Metrics:     a.Metrics,
		Logger:      baseLogger.With("component", "pipeline"),
	})
	a.History = usecase.NewHistory(reports, sourceStats)
	a.Prober = probe.New(nil, probe.DefaultTimeout, baseLogger.With("component", "probe"))

	baseLogger.Info("application configured", "config", cfg.String(), "reputation_entries", reputation.Len())
	return a, nil
}

func (a *Application) biasScorer(vocab *lexicon.Vocabulary) ports.BiasScorer {
	switch a.cfg.Scoring.BiasStrategy {
	case scoring.SentimentName:
		client := ml.NewClient(a.cfg.Sentiment.Endpoint, a.cfg.Sentiment.APIKey, a.cfg.Sentiment.Timeout)
		return scoring.NewSentimentScorer(client)
	case scoring.HeuristicName, "":
	default:
		a.logger.Warn("unknown bias strategy, using heuristic", "strategy", a.cfg.Scoring.BiasStrategy)
	}
	return scoring.NewHeuristicScorer(vocab)
}

func (a *Application) openStorage(ctx context.Context) (ports.ReportRepository, ports.SourceStatsRepository, error) {
	var db *sql.DB
	if a.cfg.Storage.Backend == config.BackendPostgres || a.cfg.Stats.Backend == config.BackendPostgres {
		var err error
		db, err = storage.OpenPostgres(ctx, a.cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := storage.EnsureSchema(ctx, db); err != nil {
			return nil, nil, err
		}
	}

	var reports ports.ReportRepository
	switch a.cfg.Storage.Backend {
	case config.BackendPostgres:
		reports = storage.NewPostgresRepository(db)
	default:
		reports = storage.NewFileReportLog(a.dataFile("reports.json"))
	}

	var sourceStats ports.SourceStatsRepository
	switch a.cfg.Stats.Backend {
	case config.BackendPostgres:
		sourceStats = storage.NewPostgresStatsRepository(db)
	case config.BackendRedis:
		rc := a.cfg.Stats.Redis
		client := redis.NewClient(&redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
		a.closers = append(a.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("ping redis %s: %w", rc.Addr, err)
		}
		sourceStats = storage.NewRedisStatsRepository(client, rc.KeyPrefix)
	default:
		sourceStats = storage.NewFileStatsStore(a.dataFile("sources.json"))
	}

	a.logger.Debug("storage ready", "reports", a.cfg.Storage.Backend, "stats", a.cfg.Stats.Backend)
	return reports, sourceStats, nil
}

// dataFile returns "" for an empty data dir, which keeps the file stores in memory.
func (a *Application) dataFile(name string) string {
	if a.cfg.Storage.DataDir == "" {
		return ""
	}
	return filepath.Join(a.cfg.Storage.DataDir, name)
}

// Server builds the HTTP API over the wired use cases.
func (a *Application) Server() *httpapi.Server {
	deps := httpapi.Deps{
		Checker:   a.Pipeline,
		History:   a.History,
		CSV:       a.CSV,
		PDF:       a.PDF,
		Prober:    a.Prober,
		UploadDir: a.cfg.HTTP.UploadDir,
		MaxUpload: int64(a.cfg.HTTP.MaxUploadMB) << 20,
		Logger:    a.logger.With("component", "http"),
	}
	if !a.cfg.Metrics.Disabled {
		deps.Metrics = a.Metrics.Handler()
	}
	return httpapi.NewServer(deps)
}

// Serve runs the HTTP API until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	return a.Server().Run(ctx, a.cfg.HTTP.Addr)
}

// Close releases database and cache connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
