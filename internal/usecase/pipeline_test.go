package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Factulist/internal/domain"
	"Factulist/internal/infrastructure/metrics"
	"Factulist/internal/infrastructure/storage"
	"Factulist/internal/report"
	"Factulist/internal/scoring"
	"Factulist/internal/stats"
)

type stubExtractor struct {
	text string
}

func (s stubExtractor) Extract(_ context.Context, _ domain.ArticleInput) string {
	return s.text
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []domain.Report
	err    error
}

func (n *recordingNotifier) PublishAlert(_ context.Context, rep domain.Report) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, rep)
	return n.err
}

type failingRepo struct {
	*storage.FileReportLog
}

func (failingRepo) Append(context.Context, domain.Report) (domain.Report, error) {
	return domain.Report{}, errors.New("disk full")
}

type failingStats struct{}

func (failingStats) Record(context.Context, string, string) error {
	return errors.New("stats store unavailable")
}

type fixture struct {
	pipeline *Pipeline
	reports  *storage.FileReportLog
	stats    *storage.FileStatsStore
	notifier *recordingNotifier
	metrics  *metrics.Metrics
}

func newFixture(text string, reputation map[string]float64) fixture {
	reports := storage.NewFileReportLog("")
	statsStore := storage.NewFileStatsStore("")
	notifier := &recordingNotifier{}
	m := metrics.New()

	p := NewPipeline(PipelineDeps{
		Extractor:   stubExtractor{text: text},
		Bias:        scoring.NewHeuristicScorer(nil),
		Credibility: scoring.NewCredibilityScorer(scoring.NewReputationTable(reputation), nil),
		Assembler:   report.NewAssembler(reports, scoring.HeuristicName),
		Stats:       stats.NewAggregator(statsStore, nil),
		Notifier:    notifier,
		Metrics:     m,
	})
	return fixture{pipeline: p, reports: reports, stats: statsStore, notifier: notifier, metrics: m}
}

func TestPipelineCheckLowCredibility(t *testing.T) {
	t.Parallel()

	f := newFixture("This is a shocking and unbelievable scandal.", map[string]float64{"example.com": 0.2})
	ctx := context.Background()

	rep, err := f.pipeline.Check(ctx, domain.ArticleInput{URL: "https://www.Example.com/story"})
	require.NoError(t, err)

	assert.Equal(t, int64(0), rep.ID)
	assert.Equal(t, "example.com", rep.SourceDomain)
	assert.Equal(t, domain.BiasBiased, rep.Bias.Label)
	assert.Equal(t, domain.CredibilityFalse, rep.Credibility.Label)
	assert.Equal(t, scoring.HeuristicName, rep.BiasStrategy)

	s, ok, err := f.stats.Get(ctx, "example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, s.Counts[domain.CredibilityFalse])

	require.Len(t, f.notifier.alerts, 1)
	assert.Equal(t, rep.ID, f.notifier.alerts[0].ID)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		f.metrics.ReportsTotal.WithLabelValues(domain.BiasBiased, domain.CredibilityFalse)))
}

func TestPipelineCheckVerifiedSkipsAlert(t *testing.T) {
	t.Parallel()

	f := newFixture("The council met on Tuesday to discuss the budget.", map[string]float64{"reuters.com": 1.0})
	ctx := context.Background()

	rep, err := f.pipeline.Check(ctx, domain.ArticleInput{URL: "https://reuters.com/world"})
	require.NoError(t, err)
	assert.Equal(t, domain.CredibilityVerified, rep.Credibility.Label)
	assert.Equal(t, domain.BiasNeutral, rep.Bias.Label)
	assert.Empty(t, f.notifier.alerts)

	second, err := f.pipeline.Check(ctx, domain.ArticleInput{URL: "https://reuters.com/world"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.ID)

	s, _, err := f.stats.Get(ctx, "reuters.com")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Total())
}

func TestPipelineCheckRawTextHasNoSource(t *testing.T) {
	t.Parallel()

	f := newFixture("Plain words only.", nil)
	ctx := context.Background()

	rep, err := f.pipeline.Check(ctx, domain.ArticleInput{RawText: "Plain words only."})
	require.NoError(t, err)
	assert.Equal(t, domain.NotApplicable, rep.SourceDomain)

	all, err := f.stats.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPipelineCheckMarkerText(t *testing.T) {
	t.Parallel()

	marker := domain.FetchFailure(errors.New("timeout"))
	f := newFixture(marker, nil)

	rep, err := f.pipeline.Check(context.Background(), domain.ArticleInput{URL: "https://slow.example.org"})
	require.NoError(t, err)
	assert.Equal(t, marker, rep.Text)
	assert.Equal(t, domain.BiasNeutral, rep.Bias.Label)
	assert.Empty(t, f.notifier.alerts)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ExtractionFailures.WithLabelValues("url")))
}

func TestPipelineNotifierFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	f := newFixture("A shocking scandal.", nil)
	f.notifier.err = errors.New("telegram down")

	_, err := f.pipeline.Check(context.Background(), domain.ArticleInput{URL: "https://blog.example.net"})
	require.NoError(t, err)
}

func TestPipelineAppendFailure(t *testing.T) {
	t.Parallel()

	p := NewPipeline(PipelineDeps{
		Extractor:   stubExtractor{text: "text"},
		Bias:        scoring.NewHeuristicScorer(nil),
		Credibility: scoring.NewCredibilityScorer(nil, nil),
		Assembler:   report.NewAssembler(failingRepo{storage.NewFileReportLog("")}, scoring.HeuristicName),
	})

	_, err := p.Check(context.Background(), domain.ArticleInput{RawText: "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestPipelineNonFiniteReputationStillStoresReport(t *testing.T) {
	t.Parallel()

	f := newFixture("Plain reporting on the budget.", map[string]float64{"bad.com": math.NaN()})
	rep, err := f.pipeline.Check(context.Background(), domain.ArticleInput{URL: "https://bad.com/a"})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultDomainScore, rep.Credibility.DomainScore)

	stored, err := f.reports.Get(context.Background(), rep.ID)
	require.NoError(t, err)
	assert.Equal(t, "bad.com", stored.SourceDomain)
}

func TestPipelineStatsFailureKeepsReport(t *testing.T) {
	t.Parallel()

	reports := storage.NewFileReportLog("")
	m := metrics.New()
	p := NewPipeline(PipelineDeps{
		Extractor:   stubExtractor{text: "A shocking scandal."},
		Bias:        scoring.NewHeuristicScorer(nil),
		Credibility: scoring.NewCredibilityScorer(nil, nil),
		Assembler:   report.NewAssembler(reports, scoring.HeuristicName),
		Stats:       failingStats{},
		Metrics:     m,
	})

	rep, err := p.Check(context.Background(), domain.ArticleInput{URL: "https://example.com/a"})
	require.NoError(t, err)
	assert.Equal(t, "example.com", rep.SourceDomain)

	stored, err := reports.Get(context.Background(), rep.ID)
	require.NoError(t, err)
	assert.Equal(t, rep.Credibility.Label, stored.Credibility.Label)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatsErrors))
}

func TestPipelineConcurrentChecksAssignDistinctIDs(t *testing.T) {
	t.Parallel()

	f := newFixture("Neutral reporting.", nil)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rep, err := f.pipeline.Check(ctx, domain.ArticleInput{URL: "https://example.com"})
			if err == nil {
				ids <- rep.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)

	s, _, err := f.stats.Get(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, n, s.Total())
}
