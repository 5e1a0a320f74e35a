// Package export renders the report log and source statistics for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"Factulist/internal/domain"
	"Factulist/internal/ports"
)

var reportHeader = []string{
	"id", "title", "created_at", "source_domain", "language", "bias_strategy",
	"bias_label", "bias_score", "bias_confidence", "highlighted_word_count",
	"credibility_label", "credibility_score", "credibility_stars",
	"domain_score", "refs_score", "lang_score", "refs_found", "emotional_words_found",
	"recommendation", "corroborating_sources",
}

// CSV writes reports and source statistics as comma separated values.
type CSV struct{}

var _ ports.ReportExporter = CSV{}

// WriteReports writes one row per report in log order.
func (CSV) WriteReports(w io.Writer, reports []domain.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range reports {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Title,
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.SourceDomain,
			r.Language,
			r.BiasStrategy,
			r.Bias.Label,
			formatFloat(r.Bias.Score),
			formatFloat(r.Bias.Confidence),
			strconv.Itoa(r.HighlightedWordCount),
			r.Credibility.Label,
			formatFloat(r.Credibility.Rounded()),
			strconv.Itoa(r.CredibilityStars),
			formatFloat(r.Credibility.DomainScore),
			formatFloat(r.Credibility.RefsScore),
			formatFloat(r.Credibility.LangScore),
			strconv.Itoa(r.Credibility.RefsFound),
			strconv.Itoa(r.Credibility.EmotionalWordsFound),
			r.Credibility.Recommendation,
			strings.Join(r.CorroboratingSources, " "),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write report %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSources writes one row per domain with a column per credibility label.
// Labels outside the standard set get their own trailing columns.
func (CSV) WriteSources(w io.Writer, stats []domain.SourceStats) error {
	labels := sourceLabels(stats)
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"domain", "total"}, labels...)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range stats {
		row := make([]string, 0, len(labels)+2)
		row = append(row, s.Domain, strconv.Itoa(s.Total()))
		for _, l := range labels {
			row = append(row, strconv.Itoa(s.Counts[l]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write source %s: %w", s.Domain, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func sourceLabels(stats []domain.SourceStats) []string {
	labels := append([]string(nil), domain.CredibilityLabels...)
	known := make(map[string]bool, len(labels))
	for _, l := range labels {
		known[l] = true
	}
	var extra []string
	for _, s := range stats {
		for l := range s.Counts {
			if !known[l] {
				known[l] = true
				extra = append(extra, l)
			}
		}
	}
	sort.Strings(extra)
	return append(labels, extra...)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
