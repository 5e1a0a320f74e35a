package ports

import (
	"context"
	"io"

	"Factulist/internal/domain"
)

// TextExtractor normalizes any ArticleInput into bounded plain text or a marker.
type TextExtractor interface {
	Extract(ctx context.Context, input domain.ArticleInput) string
}

// ArticleFetcher downloads a web page and returns its readable text.
type ArticleFetcher interface {
	FetchText(ctx context.Context, rawURL string) (string, error)
}

// DocumentParser turns an uploaded document into text.
type DocumentParser interface {
	Format() domain.FileFormat
	Parse(ctx context.Context, path string) (string, error)
}

// BiasScorer is implemented by the word-list and sentiment strategies.
type BiasScorer interface {
	Name() string
	Score(ctx context.Context, text string) domain.BiasResult
}

// CredibilityScorer computes the weighted credibility of text from a source.
type CredibilityScorer interface {
	Score(text, sourceURL string) domain.CredibilityResult
}

// ReputationStore maps normalised domains to prior scores in [0,1].
type ReputationStore interface {
	Lookup(domain string) (float64, bool)
}

// SentimentClient asks an external model for a polarity label.
type SentimentClient interface {
	Classify(ctx context.Context, text string) (domain.Sentiment, error)
}

// ReportRepository is the append-only report log.
type ReportRepository interface {
	// Append assigns the next sequential id and stores the report.
	Append(ctx context.Context, report domain.Report) (domain.Report, error)
	All(ctx context.Context) ([]domain.Report, error)
	Last(ctx context.Context, n int) ([]domain.Report, error)
	Get(ctx context.Context, id int64) (domain.Report, error)
}

// SourceStatsRepository is keyed by normalised domain.
type SourceStatsRepository interface {
	// Increment atomically adds one to the label count, creating the record if needed.
	Increment(ctx context.Context, domain, label string) (domain.SourceStats, error)
	Get(ctx context.Context, domain string) (domain.SourceStats, bool, error)
	All(ctx context.Context) ([]domain.SourceStats, error)
}

// Notifier pushes alerts for low-credibility reports.
type Notifier interface {
	PublishAlert(ctx context.Context, report domain.Report) error
}

// ReportExporter renders reports for download.
type ReportExporter interface {
	WriteReports(w io.Writer, reports []domain.Report) error
	WriteSources(w io.Writer, stats []domain.SourceStats) error
}

// ReportAssembler builds a report from scorer outputs and appends it to the log.
type ReportAssembler interface {
	Assemble(ctx context.Context, extracted string, bias domain.BiasResult, cred domain.CredibilityResult, sourceURL string) (domain.Report, error)
}

// StatsRecorder tallies a credibility label for a source domain.
type StatsRecorder interface {
	Record(ctx context.Context, source, label string) error
}

// ReportRenderer writes a single report as a printable document.
type ReportRenderer interface {
	WriteReport(w io.Writer, report domain.Report) error
}
