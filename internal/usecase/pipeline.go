package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"Factulist/internal/domain"
	"Factulist/internal/infrastructure/metrics"
	"Factulist/internal/ports"
)

// PipelineDeps wires all driven adapters into the report pipeline.
type PipelineDeps struct {
	Extractor   ports.TextExtractor
	Bias        ports.BiasScorer
	Credibility ports.CredibilityScorer
	Assembler   ports.ReportAssembler
	Stats       ports.StatsRecorder
	Notifier    ports.Notifier
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Pipeline implements the check-an-article workflow.
type Pipeline struct {
	extractor   ports.TextExtractor
	bias        ports.BiasScorer
	credibility ports.CredibilityScorer
	assembler   ports.ReportAssembler
	stats       ports.StatsRecorder
	notifier    ports.Notifier
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		extractor:   deps.Extractor,
		bias:        deps.Bias,
		credibility: deps.Credibility,
		assembler:   deps.Assembler,
		stats:       deps.Stats,
		notifier:    deps.Notifier,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
}

// Check extracts, scores, assembles and records one article. Extraction and
// scoring never fail; only persisting the report can return an error.
func (p *Pipeline) Check(ctx context.Context, input domain.ArticleInput) (domain.Report, error) {
	if p.extractor == nil || p.bias == nil || p.credibility == nil || p.assembler == nil {
		return domain.Report{}, fmt.Errorf("pipeline is not fully configured")
	}
	started := time.Now()

	text := p.extractor.Extract(ctx, input)
	if domain.IsMarker(text) {
		p.debug("extraction degraded", "input", input.Kind(), "marker", text)
		if p.metrics != nil && input.Kind() != domain.InputNone {
			p.metrics.ExtractionFailures.WithLabelValues(string(input.Kind())).Inc()
		}
	}

	var (
		bias domain.BiasResult
		cred domain.CredibilityResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bias = p.bias.Score(gctx, text)
		return nil
	})
	g.Go(func() error {
		cred = p.credibility.Score(text, input.SourceURL())
		return nil
	})
	_ = g.Wait()

	report, err := p.assembler.Assemble(ctx, text, bias, cred, input.SourceURL())
	if err != nil {
		return domain.Report{}, fmt.Errorf("assemble report: %w", err)
	}

	if p.stats != nil {
		if err := p.stats.Record(ctx, report.SourceDomain, report.Credibility.Label); err != nil {
			p.warn("record source stats", "domain", report.SourceDomain, "error", err)
			if p.metrics != nil {
				p.metrics.StatsErrors.Inc()
			}
		}
	}

	if p.notifier != nil && needsAlert(report) {
		if err := p.notifier.PublishAlert(ctx, report); err != nil {
			p.warn("publish alert", "report", report.ID, "error", err)
		}
	}

	if p.metrics != nil {
		p.metrics.ReportsTotal.WithLabelValues(report.Bias.Label, report.Credibility.Label).Inc()
		p.metrics.PipelineDuration.Observe(time.Since(started).Seconds())
	}

	p.debug("report created",
		"id", report.ID,
		"domain", report.SourceDomain,
		"bias", report.Bias.Label,
		"credibility", report.Credibility.Label)
	return report, nil
}

func needsAlert(report domain.Report) bool {
	if domain.IsBlank(report.Text) {
		return false
	}
	switch report.Credibility.Label {
	case domain.CredibilityMisleading, domain.CredibilityFalse:
		return true
	default:
		return false
	}
}

func (p *Pipeline) debug(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
