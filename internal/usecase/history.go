package usecase

import (
	"context"
	"fmt"
	"sort"

	"Factulist/internal/domain"
	"Factulist/internal/ports"
)

// SourcesPerPage is the page size of the sources view.
const SourcesPerPage = 10

// SourceRow is a stats record with its precomputed total.
type SourceRow struct {
	domain.SourceStats
	Total int `json:"total"`
}

// SourcePage is one page of sources ordered by total reports.
type SourcePage struct {
	Sources    []SourceRow `json:"sources"`
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
}

// History serves the read side: report log and source statistics.
type History struct {
	reports ports.ReportRepository
	stats   ports.SourceStatsRepository
}

// NewHistory wires both repositories.
func NewHistory(reports ports.ReportRepository, stats ports.SourceStatsRepository) *History {
	return &History{reports: reports, stats: stats}
}

// Reports returns the last limit reports, or all of them when limit <= 0.
func (h *History) Reports(ctx context.Context, limit int) ([]domain.Report, error) {
	if limit <= 0 {
		return h.reports.All(ctx)
	}
	return h.reports.Last(ctx, limit)
}

// Report returns a report by id.
func (h *History) Report(ctx context.Context, id int64) (domain.Report, error) {
	return h.reports.Get(ctx, id)
}

// AllSources returns every stats record sorted by total, most reported first.
func (h *History) AllSources(ctx context.Context) ([]SourceRow, error) {
	all, err := h.stats.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}

	rows := make([]SourceRow, 0, len(all))
	for _, s := range all {
		rows = append(rows, SourceRow{SourceStats: s, Total: s.Total()})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].Domain < rows[j].Domain
	})
	return rows, nil
}

// Sources returns one page; pages start at 1 and out-of-range pages are empty.
func (h *History) Sources(ctx context.Context, page int) (SourcePage, error) {
	rows, err := h.AllSources(ctx)
	if err != nil {
		return SourcePage{}, err
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * SourcesPerPage
	end := min(start+SourcesPerPage, len(rows))
	out := []SourceRow{}
	if start < len(rows) {
		out = rows[start:end]
	}

	return SourcePage{
		Sources:    out,
		Page:       page,
		TotalPages: (len(rows) + SourcesPerPage - 1) / SourcesPerPage,
	}, nil
}
